package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"nutriplan-bot/internal/api"
	"nutriplan-bot/internal/config"
	"nutriplan-bot/internal/metrics"
	"nutriplan-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
)

// Bot wraps the Telegram API, the NutriPlan backend client, and the
// per-chat session state.
type Bot struct {
	api          *tgbotapi.BotAPI
	backend      *api.Client
	sessions     *session.Registry
	tokens       *session.TokenStore
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	backend *api.Client,
	tokens *session.TokenStore,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		backend:      backend,
		sessions:     session.NewRegistry(),
		tokens:       tokens,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// Router returns the HTTP routes for the webhook server.
func (b *Bot) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", b.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	return r
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		go b.processCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	go b.processMessage(update.Message)
}

// sessionFor loads the chat's session, restoring a persisted token on first
// contact. Restore re-fetches the profile and latest plan; any profile fetch
// failure invalidates the stored token.
func (b *Bot) sessionFor(ctx context.Context, chatID int64) *session.Session {
	s, created := b.sessions.GetOrCreate(chatID)
	if !created {
		return s
	}

	token, err := b.tokens.Get(ctx, chatID)
	if err != nil {
		log.Printf("Failed to load stored token for chat %d: %v", chatID, err)
		return s
	}
	if token == "" {
		return s
	}
	if session.TokenExpired(token, time.Now()) {
		log.Printf("Stored token for chat %d is expired, discarding", chatID)
		if err := b.tokens.Delete(ctx, chatID); err != nil {
			log.Printf("Failed to delete expired token for chat %d: %v", chatID, err)
		}
		return s
	}

	s.Authenticate(token)
	if !b.loadAccount(ctx, s) {
		return s
	}
	b.loadLatestPlan(ctx, s)
	return s
}

// loadAccount fetches the user record for an authenticated session and
// routes to profile or dashboard. Any error is treated as an invalid
// session: token cleared, back to login.
func (b *Bot) loadAccount(ctx context.Context, s *session.Session) bool {
	if !s.Begin(session.OpFetchProfile) {
		return false
	}
	defer s.End(session.OpFetchProfile)

	acc, err := b.observeAccount(ctx, s.Token())
	if err != nil {
		log.Printf("Profile fetch failed for chat %d, invalidating session: %v", s.ChatID(), err)
		s.Reset()
		if err := b.tokens.Delete(ctx, s.ChatID()); err != nil {
			log.Printf("Failed to delete token for chat %d: %v", s.ChatID(), err)
		}
		return false
	}
	s.ApplyAccount(acc)
	return true
}

// loadLatestPlan fetches the most recent plan, tolerating "no plan yet".
func (b *Bot) loadLatestPlan(ctx context.Context, s *session.Session) {
	if !s.Begin(session.OpFetchPlan) {
		return
	}
	defer s.End(session.OpFetchPlan)

	start := time.Now()
	resp, err := b.backend.LatestMealPlan(ctx, s.Token())
	b.observe("fetch_plan", start, err)
	if err != nil {
		if apiErr, ok := err.(*api.Error); ok && apiErr.StatusCode == http.StatusNotFound {
			return
		}
		log.Printf("Latest plan fetch failed for chat %d: %v", s.ChatID(), err)
		return
	}
	s.ApplyPlan(resp.MealPlanID, &resp.MealPlan)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	s := b.sessionFor(ctx, msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, s, msg)
		return
	}

	switch s.View() {
	case session.ViewLogin, session.ViewRegister:
		b.handleAuthInput(ctx, s, msg)
	case session.ViewProfile:
		b.handleProfileInput(ctx, s, msg)
	default:
		// Free text on the dashboard or grocery view just re-renders.
		b.renderView(s)
	}
}

func (b *Bot) handleCommand(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.renderView(s)
	case "logout":
		b.logout(ctx, s)
	case "metrics":
		if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
			b.send(s.ChatID(), "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(s.ChatID())
	default:
		b.send(s.ChatID(), "Unknown command. Use /start to show the current screen or /logout to sign out.")
	}
}

// logout clears the durable token and all session state, from any view.
func (b *Bot) logout(ctx context.Context, s *session.Session) {
	if err := b.tokens.Delete(ctx, s.ChatID()); err != nil {
		log.Printf("Failed to delete token for chat %d: %v", s.ChatID(), err)
	}
	s.Reset()
	b.send(s.ChatID(), "👋 Signed out.")
	b.renderView(s)
}

func (b *Bot) processCallback(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	if query.Message == nil {
		return
	}
	s := b.sessionFor(ctx, query.Message.Chat.ID)

	parts := strings.Split(query.Data, "|")
	action := parts[0]

	// Answer the callback first to remove the spinner.
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	// Only the auth switch is reachable without a token.
	if !s.Authenticated() && action != "auth" {
		b.renderView(s)
		return
	}

	switch action {
	case "auth":
		if len(parts) < 2 {
			return
		}
		b.switchAuthForm(s, parts[1])
	case "activity", "goal", "tags":
		b.handleProfileCallback(ctx, s, parts)
	case "generate":
		b.generatePlan(ctx, s)
	case "recipe":
		b.showRecipe(s, query.Message.MessageID, parts)
	case "dine":
		b.toggleDiningOut(ctx, s, query.Message.MessageID, parts)
	case "grocery":
		b.showGroceryList(ctx, s)
	case "dashboard":
		s.ShowDashboard()
		b.renderView(s)
	case "profile":
		s.StartProfileForm()
		b.startProfilePrompt(s)
	case "logout":
		b.logout(ctx, s)
	}
}

// generatePlan requests a fresh 7-day plan, fully replacing the current one.
// A second press while one is pending is dropped.
func (b *Bot) generatePlan(ctx context.Context, s *session.Session) {
	if !s.Begin(session.OpGeneratePlan) {
		b.send(s.ChatID(), "⏳ Already generating your plan, hang tight.")
		return
	}
	defer s.End(session.OpGeneratePlan)

	b.send(s.ChatID(), "🧑‍🍳 *Generating your meal plan...*\n(This can take a minute)")

	start := time.Now()
	resp, err := b.backend.GenerateMealPlan(ctx, s.Token())
	b.observe("generate_plan", start, err)
	if err != nil {
		b.sendError(s.ChatID(), "Error generating plan", err)
		b.renderView(s)
		return
	}

	s.ApplyPlan(resp.MealPlanID, &resp.MealPlan)
	b.renderView(s)
}

// refreshGrocery fetches the grocery list for the current plan and applies
// it to the session. Without a plan id there is nothing to fetch: no network
// call is issued and the session stays where it is.
func (b *Bot) refreshGrocery(ctx context.Context, s *session.Session) error {
	_, planID := s.Plan()
	if planID == "" {
		return nil
	}
	if !s.Begin(session.OpGrocery) {
		return nil
	}
	defer s.End(session.OpGrocery)

	start := time.Now()
	items, err := b.backend.GroceryList(ctx, s.Token(), planID)
	b.observe("grocery", start, err)
	if err != nil {
		return err
	}
	s.ApplyGrocery(items)
	return nil
}

func (b *Bot) showGroceryList(ctx context.Context, s *session.Session) {
	if err := b.refreshGrocery(ctx, s); err != nil {
		b.sendError(s.ChatID(), "Error fetching grocery list", err)
		return
	}
	b.renderView(s)
}

// showRecipe opens the per-meal detail as an in-place message edit. Pure
// local state: no network call involved.
func (b *Bot) showRecipe(s *session.Session, messageID int, parts []string) {
	day, mealType, ok := parseMealRef(parts)
	if !ok {
		return
	}
	plan, _ := s.Plan()
	if plan == nil {
		b.renderView(s)
		return
	}
	d := plan.Day(day)
	if d == nil {
		return
	}
	m := d.Meal(mealType)
	if m == nil {
		return
	}

	text, keyboard := renderMealDetail(day, mealType, m)
	edit := tgbotapi.NewEditMessageText(s.ChatID(), messageID, text)
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &keyboard
	b.api.Send(edit)
}

// toggleDiningOut applies the flip locally first, re-renders, then mirrors
// it to the backend. A failed sync is logged only; local state stands until
// the next full fetch.
func (b *Bot) toggleDiningOut(ctx context.Context, s *session.Session, messageID int, parts []string) {
	day, mealType, ok := parseMealRef(parts)
	if !ok {
		return
	}
	newValue, ok := s.ToggleDiningOut(day, mealType)
	if !ok {
		return
	}

	// Re-render the detail with the already-flipped flag.
	b.showRecipe(s, messageID, parts)

	_, planID := s.Plan()
	op := session.UpdateMealOp(day, mealType)
	go func() {
		if !s.Begin(op) {
			log.Printf("Dropped dining-out sync for chat %d (day %d %s): previous sync still pending", s.ChatID(), day, mealType)
			return
		}
		defer s.End(op)

		start := time.Now()
		err := b.backend.UpdateMeal(ctx, s.Token(), planID, day, mealType, newValue)
		b.observe("update_meal", start, err)
		if err != nil {
			log.Printf("Failed to sync dining-out for chat %d (day %d %s): %v", s.ChatID(), day, mealType, err)
		}
	}()
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🌐 *Recent Backend Requests*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d requests, %d errors, avg %dms\n",
			d.Date, d.TotalRequests, d.TotalErrors, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

// observe records one backend request in the metrics store. Transport
// failures are recorded with status 0.
func (b *Bot) observe(operation string, start time.Time, err error) {
	status := http.StatusOK
	if err != nil {
		status = 0
		if apiErr, ok := err.(*api.Error); ok {
			status = apiErr.StatusCode
		}
	}
	if recErr := b.metricsStore.Record(metrics.RequestMetric{
		Operation:  operation,
		StatusCode: status,
		LatencyMS:  time.Since(start).Milliseconds(),
	}); recErr != nil {
		log.Printf("Failed to record metric for %s: %v", operation, recErr)
	}
}

// observeAccount is the metered variant of the profile fetch, shared by
// restore and the post-auth load.
func (b *Bot) observeAccount(ctx context.Context, token string) (*api.Account, error) {
	start := time.Now()
	acc, err := b.backend.GetProfile(ctx, token)
	b.observe("fetch_profile", start, err)
	return acc, err
}

// send delivers a markdown message to a chat.
func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

// sendError surfaces a failed request as a one-line error banner. The server
// detail is shown when present, a generic message otherwise.
func (b *Bot) sendError(chatID int64, prefix string, err error) {
	log.Printf("%s (chat %d): %v", prefix, chatID, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.send(chatID, fmt.Sprintf("❌ *%s:*\n```\n%v\n```", prefix, safeErr))
}
