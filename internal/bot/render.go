package bot

import (
	"fmt"
	"strconv"
	"strings"

	"nutriplan-bot/internal/api"
	"nutriplan-bot/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var mealEmoji = map[string]string{
	api.MealBreakfast: "🍳",
	api.MealLunch:     "🥗",
	api.MealDinner:    "🍲",
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseMealRef parses callback data of the form "action|day|mealType".
func parseMealRef(parts []string) (int, string, bool) {
	if len(parts) < 3 {
		return 0, "", false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", false
	}
	mealType := parts[2]
	if mealEmoji[mealType] == "" {
		return 0, "", false
	}
	return day, mealType, true
}

// renderView sends the message for the session's current view.
func (b *Bot) renderView(s *session.Session) {
	switch s.View() {
	case session.ViewLogin, session.ViewRegister:
		b.renderAuth(s)
	case session.ViewProfile:
		if s.Form() == nil {
			s.StartProfileForm()
		}
		b.startProfilePrompt(s)
	case session.ViewDashboard:
		b.renderDashboard(s)
	case session.ViewGrocery:
		b.renderGrocery(s)
	}
}

func (b *Bot) renderAuth(s *session.Session) {
	var text, switchLabel, switchTarget string
	if s.View() == session.ViewRegister {
		text = "📝 *Create your NutriPlan account*\n\nSend me a username to get started."
		switchLabel = "🔐 Log in instead"
		switchTarget = "auth|login"
	} else {
		text = "🔐 *Welcome to NutriPlan*\n\nSend me your username to log in."
		switchLabel = "📝 Register instead"
		switchTarget = "auth|register"
	}

	if s.Stage() == "" {
		s.SetStage(stageUsername)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(switchLabel, switchTarget),
		),
	)
	msg := tgbotapi.NewMessage(s.ChatID(), text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	b.api.Send(msg)
}

func (b *Bot) renderDashboard(s *session.Session) {
	plan, _ := s.Plan()
	text, keyboard := renderDashboard(plan)
	msg := tgbotapi.NewMessage(s.ChatID(), text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	b.api.Send(msg)
}

// renderDashboard builds the 7-day grid. Without a plan no per-meal controls
// are offered: the recipe detail is unreachable until a plan exists.
func renderDashboard(plan *api.MealPlan) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📅 *Your Meal Plan*\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton

	if plan == nil {
		sb.WriteString("_No meal plan yet. Generate one to get started!_\n")
	} else {
		for _, d := range plan.Days {
			sb.WriteString(fmt.Sprintf("*Day %d*\n", d.Day))
			var row []tgbotapi.InlineKeyboardButton
			for _, mt := range api.MealTypes {
				m := d.Meal(mt)
				marker := ""
				if m.DiningOut {
					marker = " 🍽"
				}
				sb.WriteString(fmt.Sprintf("%s %s: %s (%.0f kcal)%s\n",
					mealEmoji[mt], title(mt), m.Name, m.Nutrition.Calories, marker))
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s %d", mealEmoji[mt], d.Day),
					fmt.Sprintf("recipe|%d|%s", d.Day, mt),
				))
			}
			sb.WriteString("\n")
			rows = append(rows, row)
		}
	}

	label := "🔄 Generate Meal Plan"
	if plan != nil {
		label = "🔄 Regenerate Plan"
	}
	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(label, "generate"),
	}
	if plan != nil {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("🛒 Grocery List", "grocery"))
	}
	rows = append(rows, actions)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("👤 Edit Profile", "profile"),
		tgbotapi.NewInlineKeyboardButtonData("🚪 Logout", "logout"),
	})

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderMealDetail builds the recipe "modal" shown as a message edit.
func renderMealDetail(day int, mealType string, m *api.Meal) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *%s*\nDay %d %s\n\n", mealEmoji[mealType], m.Name, day, title(mealType)))

	if m.DiningOut {
		sb.WriteString("🍽 _Dining out: excluded from the grocery list_\n\n")
	}

	n := m.Nutrition
	sb.WriteString("*Nutrition*\n")
	sb.WriteString(fmt.Sprintf("• Calories: %.0f kcal\n", n.Calories))
	sb.WriteString(fmt.Sprintf("• Protein: %.0fg  Carbs: %.0fg  Fat: %.0fg\n", n.Protein, n.Carbs, n.Fat))
	sb.WriteString(fmt.Sprintf("• Fiber: %.0fg  Sugar: %.0fg\n\n", n.Fiber, n.Sugar))

	sb.WriteString("*Ingredients*\n")
	for _, ing := range m.Recipe.Ingredients {
		sb.WriteString(fmt.Sprintf("• %s\n", ing))
	}

	sb.WriteString("\n*Instructions*\n")
	for i, step := range m.Recipe.Instructions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}

	toggleLabel := "🍽 Mark as dining out"
	if m.DiningOut {
		toggleLabel = "🏠 Mark as cooking at home"
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, fmt.Sprintf("dine|%d|%s", day, mealType)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to plan", "dashboard"),
		),
	)
	return sb.String(), keyboard
}

func (b *Bot) renderGrocery(s *session.Session) {
	text := renderGroceryList(s.Grocery())
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to plan", "dashboard"),
		),
	)
	msg := tgbotapi.NewMessage(s.ChatID(), text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	b.api.Send(msg)
}

// renderGroceryList formats the ingredient list exactly as the backend
// returned it: no sorting, no dedup.
func renderGroceryList(items []string) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Grocery List*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Nothing to buy: every meal is dining out._\n")
		return sb.String()
	}
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", item))
	}
	return sb.String()
}
