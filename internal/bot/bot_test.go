package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"nutriplan-bot/internal/api"
	"nutriplan-bot/internal/database"
	"nutriplan-bot/internal/metrics"
	"nutriplan-bot/internal/session"
)

// newTestBot builds a bot wired to a fake backend, without a Telegram
// connection. Only the backend-facing paths are exercised here.
func newTestBot(t *testing.T, backendURL string) *Bot {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Bot{
		backend:      api.NewClient(backendURL),
		sessions:     session.NewRegistry(),
		tokens:       session.NewTokenStore(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),
	}
}

func TestRefreshGroceryWithoutPlanSkipsBackend(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(api.GroceryResponse{Ingredients: []string{"eggs"}})
	}))
	defer srv.Close()

	b := newTestBot(t, srv.URL)
	s := session.New(1)
	s.Authenticate("T1")
	s.ShowDashboard()

	if err := b.refreshGrocery(context.Background(), s); err != nil {
		t.Fatalf("refreshGrocery failed: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("Expected no backend request without a plan id, got %d", n)
	}
	if s.View() != session.ViewDashboard {
		t.Errorf("Expected view to stay 'dashboard', got '%s'", s.View())
	}
	if s.Grocery() != nil {
		t.Errorf("Expected no grocery items, got %v", s.Grocery())
	}
}

func TestRefreshGroceryFetchesAndApplies(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if r.URL.Path != "/api/grocery-list/plan-1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.GroceryResponse{Ingredients: []string{"eggs", "milk"}})
	}))
	defer srv.Close()

	b := newTestBot(t, srv.URL)
	s := session.New(1)
	s.Authenticate("T1")
	s.ApplyPlan("plan-1", &api.MealPlan{})
	s.ShowDashboard()

	if err := b.refreshGrocery(context.Background(), s); err != nil {
		t.Fatalf("refreshGrocery failed: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("Expected exactly one backend request, got %d", n)
	}
	if s.View() != session.ViewGrocery {
		t.Errorf("Expected view 'grocery', got '%s'", s.View())
	}
	items := s.Grocery()
	if len(items) != 2 || items[0] != "eggs" || items[1] != "milk" {
		t.Errorf("Expected [eggs milk], got %v", items)
	}
}
