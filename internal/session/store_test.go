package session

import (
	"context"
	"path/filepath"
	"testing"

	"nutriplan-bot/internal/database"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTokenStore(db.SQL)
}

func TestTokenStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		token, err := store.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if token != "" {
			t.Errorf("Expected empty token for unknown chat, got '%s'", token)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := store.Save(ctx, 1, "T1"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		token, err := store.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if token != "T1" {
			t.Errorf("Expected token 'T1', got '%s'", token)
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		if err := store.Save(ctx, 1, "T2"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		token, _ := store.Get(ctx, 1)
		if token != "T2" {
			t.Errorf("Expected replaced token 'T2', got '%s'", token)
		}
	})

	t.Run("PerChatIsolation", func(t *testing.T) {
		if err := store.Save(ctx, 2, "OTHER"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		token, _ := store.Get(ctx, 1)
		if token != "T2" {
			t.Errorf("Expected chat 1 token untouched, got '%s'", token)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, 1); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		token, _ := store.Get(ctx, 1)
		if token != "" {
			t.Errorf("Expected empty token after delete, got '%s'", token)
		}
		// Deleting again is not an error.
		if err := store.Delete(ctx, 1); err != nil {
			t.Errorf("Delete of absent token failed: %v", err)
		}
	})
}
