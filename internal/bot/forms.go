package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"nutriplan-bot/internal/api"
	"nutriplan-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Auth form stages.
const (
	stageUsername = "username"
	stagePassword = "password"
)

// Profile form stages, in prompt order.
const (
	stageGender       = "gender"
	stageAge          = "age"
	stageWeight       = "weight"
	stageHeight       = "height"
	stageActivity     = "activity"
	stageGoal         = "goal"
	stageCalories     = "calories"
	stageProtein      = "protein"
	stageFiber        = "fiber"
	stageRestrictions = "restrictions"
	stageAllergies    = "allergies"
)

func (b *Bot) switchAuthForm(s *session.Session, target string) {
	switch target {
	case "login":
		s.SwitchAuthView(session.ViewLogin)
	case "register":
		s.SwitchAuthView(session.ViewRegister)
	}
	b.renderView(s)
}

// handleAuthInput drives the two-step username/password prompt for both the
// login and register forms.
func (b *Bot) handleAuthInput(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch s.Stage() {
	case stageUsername:
		if text == "" {
			b.send(s.ChatID(), "Please send a username.")
			return
		}
		s.BufferUsername(text)
		s.SetStage(stagePassword)
		b.send(s.ChatID(), "🔑 Now send your password.")
	case stagePassword:
		// Remove the password message from the chat history.
		b.api.Request(tgbotapi.NewDeleteMessage(s.ChatID(), msg.MessageID))
		b.submitAuth(ctx, s, s.TakeUsername(), text)
	default:
		b.renderView(s)
	}
}

// submitAuth calls login or register depending on the active form. On
// success the token is persisted and dependent state fetched; on failure
// the form re-prompts from the username step.
func (b *Bot) submitAuth(ctx context.Context, s *session.Session, username, password string) {
	op := session.OpLogin
	operation := "login"
	if s.View() == session.ViewRegister {
		op = session.OpRegister
		operation = "register"
	}
	if !s.Begin(op) {
		return
	}
	defer s.End(op)

	start := time.Now()
	var tok *api.TokenResponse
	var err error
	if s.View() == session.ViewRegister {
		tok, err = b.backend.Register(ctx, username, password)
	} else {
		tok, err = b.backend.Login(ctx, username, password)
	}
	b.observe(operation, start, err)

	if err != nil {
		b.sendError(s.ChatID(), "Sign-in failed", err)
		s.SetStage("")
		b.renderView(s)
		return
	}

	if err := b.tokens.Save(ctx, s.ChatID(), tok.AccessToken); err != nil {
		log.Printf("Failed to persist token for chat %d: %v", s.ChatID(), err)
	}
	s.Authenticate(tok.AccessToken)

	if !b.loadAccount(ctx, s) {
		b.send(s.ChatID(), "❌ Could not load your account, please sign in again.")
		b.renderView(s)
		return
	}
	if s.View() == session.ViewDashboard {
		b.loadLatestPlan(ctx, s)
	}
	b.renderView(s)
}

// startProfilePrompt opens (or resumes) the profile form at its first
// unanswered step.
func (b *Bot) startProfilePrompt(s *session.Session) {
	if s.Stage() == "" {
		s.SetStage(stageGender)
	}
	b.promptProfileStage(s)
}

func (b *Bot) promptProfileStage(s *session.Session) {
	form := s.Form()
	if form == nil {
		return
	}

	var msg tgbotapi.MessageConfig
	switch s.Stage() {
	case stageGender:
		msg = tgbotapi.NewMessage(s.ChatID(), "👤 *Let's set up your profile.*\n\nWhat's your gender? (e.g. male, female, other)")
	case stageAge:
		msg = tgbotapi.NewMessage(s.ChatID(), "How old are you?")
	case stageWeight:
		msg = tgbotapi.NewMessage(s.ChatID(), "What's your weight in kg?")
	case stageHeight:
		msg = tgbotapi.NewMessage(s.ChatID(), "What's your height in cm?")
	case stageActivity:
		msg = tgbotapi.NewMessage(s.ChatID(), "How active are you?")
		msg.ReplyMarkup = choiceKeyboard("activity", api.ActivityLevels)
	case stageGoal:
		msg = tgbotapi.NewMessage(s.ChatID(), "What's your fitness goal?")
		msg.ReplyMarkup = choiceKeyboard("goal", api.FitnessGoals)
	case stageCalories:
		msg = tgbotapi.NewMessage(s.ChatID(), "Daily calorie target in kcal? Send *skip* to let the backend decide.")
	case stageProtein:
		msg = tgbotapi.NewMessage(s.ChatID(), "Daily protein target in grams? Send *skip* to let the backend decide.")
	case stageFiber:
		msg = tgbotapi.NewMessage(s.ChatID(), "Daily fiber target in grams? Send *skip* to let the backend decide.")
	case stageRestrictions:
		msg = tgbotapi.NewMessage(s.ChatID(), tagPrompt("Dietary restrictions", form.DietaryRestrictions))
		msg.ReplyMarkup = doneKeyboard()
	case stageAllergies:
		msg = tgbotapi.NewMessage(s.ChatID(), tagPrompt("Allergies", form.Allergies))
		msg.ReplyMarkup = doneKeyboard()
	default:
		return
	}
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

// choiceKeyboard renders one enum option per row.
func choiceKeyboard(action string, options []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range options {
		label := title(strings.ReplaceAll(opt, "_", " "))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, action+"|"+opt),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func doneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", "tags|done"),
		),
	)
}

// tagPrompt shows the current tag list with its removal positions.
func tagPrompt(label string, tags []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏷 *%s*\n\n", label))
	if len(tags) == 0 {
		sb.WriteString("_None yet._\n")
	} else {
		for i, tag := range tags {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, tag))
		}
	}
	sb.WriteString("\nSend one entry at a time to add, *remove N* to remove by position, or press Done.")
	return sb.String()
}

// handleProfileInput drives the sequential profile form. Only type-level
// validation happens here; domain bounds are the backend's business.
func (b *Bot) handleProfileInput(ctx context.Context, s *session.Session, msg *tgbotapi.Message) {
	form := s.Form()
	if form == nil {
		form = s.StartProfileForm()
		b.startProfilePrompt(s)
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch s.Stage() {
	case "":
		b.startProfilePrompt(s)
		return
	case stageGender:
		if text == "" {
			b.send(s.ChatID(), "⚠️ Please send your gender.")
			return
		}
		form.Gender = text
		s.SetStage(stageAge)
	case stageAge:
		age, err := strconv.Atoi(text)
		if err != nil || age <= 0 {
			b.send(s.ChatID(), "⚠️ Please send your age as a whole number.")
			return
		}
		form.Age = age
		s.SetStage(stageWeight)
	case stageWeight:
		weight, err := strconv.ParseFloat(text, 64)
		if err != nil || weight <= 0 {
			b.send(s.ChatID(), "⚠️ Please send your weight in kg as a number.")
			return
		}
		form.Weight = weight
		s.SetStage(stageHeight)
	case stageHeight:
		height, err := strconv.ParseFloat(text, 64)
		if err != nil || height <= 0 {
			b.send(s.ChatID(), "⚠️ Please send your height in cm as a number.")
			return
		}
		form.Height = height
		s.SetStage(stageActivity)
	case stageActivity, stageGoal:
		// These steps are answered via the keyboards.
		b.promptProfileStage(s)
		return
	case stageCalories:
		if !b.readTarget(s, text, &form.CalorieTarget, "calorie") {
			return
		}
		s.SetStage(stageProtein)
	case stageProtein:
		if !b.readTarget(s, text, &form.ProteinTarget, "protein") {
			return
		}
		s.SetStage(stageFiber)
	case stageFiber:
		if !b.readTarget(s, text, &form.FiberTarget, "fiber") {
			return
		}
		s.SetStage(stageRestrictions)
	case stageRestrictions:
		b.handleTagInput(s, text, form.AddRestriction, form.RemoveRestriction)
		return
	case stageAllergies:
		b.handleTagInput(s, text, form.AddAllergy, form.RemoveAllergy)
		return
	default:
		return
	}

	b.promptProfileStage(s)
}

// readTarget parses an optional numeric target, accepting "skip".
func (b *Bot) readTarget(s *session.Session, text string, target **int, name string) bool {
	if strings.EqualFold(text, "skip") {
		*target = nil
		return true
	}
	v, err := strconv.Atoi(text)
	if err != nil || v <= 0 {
		b.send(s.ChatID(), fmt.Sprintf("⚠️ Please send the %s target as a whole number, or *skip*.", name))
		return false
	}
	*target = &v
	return true
}

// handleTagInput applies a single add or remove to a tag list and re-prompts
// with the updated list.
func (b *Bot) handleTagInput(s *session.Session, text string, add func(string) bool, remove func(int) bool) {
	if pos, ok := parseRemove(text); ok {
		if !remove(pos) {
			b.send(s.ChatID(), fmt.Sprintf("⚠️ Nothing at position %d.", pos))
		}
		b.promptProfileStage(s)
		return
	}
	if !add(text) {
		b.send(s.ChatID(), "⚠️ Please send a non-empty entry.")
		return
	}
	b.promptProfileStage(s)
}

// parseRemove matches "remove N" (case-insensitive).
func parseRemove(text string) (int, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "remove") {
		return 0, false
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return pos, true
}

// handleProfileCallback handles the keyboard-driven form steps: activity
// level, fitness goal, and finishing a tag list.
func (b *Bot) handleProfileCallback(ctx context.Context, s *session.Session, parts []string) {
	form := s.Form()
	if form == nil || len(parts) < 2 {
		return
	}

	switch parts[0] {
	case "activity":
		if s.Stage() != stageActivity || !validChoice(api.ActivityLevels, parts[1]) {
			return
		}
		form.ActivityLevel = parts[1]
		s.SetStage(stageGoal)
	case "goal":
		if s.Stage() != stageGoal || !validChoice(api.FitnessGoals, parts[1]) {
			return
		}
		form.FitnessGoal = parts[1]
		s.SetStage(stageCalories)
	case "tags":
		switch s.Stage() {
		case stageRestrictions:
			s.SetStage(stageAllergies)
		case stageAllergies:
			b.submitProfile(ctx, s, form)
			return
		default:
			return
		}
	}

	b.promptProfileStage(s)
}

func validChoice(options []string, choice string) bool {
	for _, opt := range options {
		if opt == choice {
			return true
		}
	}
	return false
}

// submitProfile sends the full form to the backend. On success the
// canonical stored profile is applied and the view moves to the dashboard;
// the current plan, if any, is kept as-is. On failure the form stays
// editable on its last step.
func (b *Bot) submitProfile(ctx context.Context, s *session.Session, form *session.ProfileForm) {
	if !s.Begin(session.OpSaveProfile) {
		return
	}
	defer s.End(session.OpSaveProfile)

	start := time.Now()
	stored, err := b.backend.SaveProfile(ctx, s.Token(), form.Profile)
	b.observe("save_profile", start, err)
	if err != nil {
		b.sendError(s.ChatID(), "Error saving profile", err)
		b.promptProfileStage(s)
		return
	}

	s.ApplyProfile(stored)
	b.send(s.ChatID(), "✅ *Profile saved!*")
	b.renderView(s)
}
