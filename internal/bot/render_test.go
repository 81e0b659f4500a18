package bot

import (
	"fmt"
	"strings"
	"testing"

	"nutriplan-bot/internal/api"
)

func testPlan() *api.MealPlan {
	plan := &api.MealPlan{}
	for day := 1; day <= 7; day++ {
		d := api.DayPlan{Day: day}
		for _, mt := range api.MealTypes {
			m := d.Meal(mt)
			m.Name = fmt.Sprintf("Day %d %s dish", day, mt)
			m.Nutrition = api.Nutrition{Calories: 400, Protein: 25, Carbs: 45, Fat: 12, Fiber: 8, Sugar: 5}
			m.Recipe = api.Recipe{
				Ingredients:  []string{"2 eggs", "1 cup oats"},
				Instructions: []string{"Mix everything.", "Cook it."},
			}
		}
		plan.Days = append(plan.Days, d)
	}
	return plan
}

func TestRenderDashboard(t *testing.T) {
	t.Run("WithPlan", func(t *testing.T) {
		text, keyboard := renderDashboard(testPlan())

		for day := 1; day <= 7; day++ {
			if !strings.Contains(text, fmt.Sprintf("*Day %d*", day)) {
				t.Errorf("Missing day %d card", day)
			}
		}
		if !strings.Contains(text, "🍳 Breakfast: Day 1 breakfast dish (400 kcal)") {
			t.Error("Missing breakfast line for day 1")
		}

		// 7 meal rows plus two action rows.
		if len(keyboard.InlineKeyboard) != 9 {
			t.Fatalf("Expected 9 keyboard rows, got %d", len(keyboard.InlineKeyboard))
		}
		if len(keyboard.InlineKeyboard[0]) != 3 {
			t.Errorf("Expected 3 meal buttons per day row, got %d", len(keyboard.InlineKeyboard[0]))
		}
		if got := *keyboard.InlineKeyboard[0][0].CallbackData; got != "recipe|1|breakfast" {
			t.Errorf("Expected first button callback 'recipe|1|breakfast', got '%s'", got)
		}

		actions := keyboard.InlineKeyboard[7]
		if len(actions) != 2 || *actions[1].CallbackData != "grocery" {
			t.Errorf("Expected regenerate + grocery action row, got %v", actions)
		}
	})

	t.Run("WithoutPlan", func(t *testing.T) {
		text, keyboard := renderDashboard(nil)

		if !strings.Contains(text, "No meal plan yet") {
			t.Error("Missing empty-plan hint")
		}

		// No per-meal controls may be rendered without a plan: just the
		// generate row and the profile/logout row.
		if len(keyboard.InlineKeyboard) != 2 {
			t.Fatalf("Expected 2 keyboard rows without a plan, got %d", len(keyboard.InlineKeyboard))
		}
		for _, row := range keyboard.InlineKeyboard {
			for _, btn := range row {
				if strings.HasPrefix(*btn.CallbackData, "recipe|") {
					t.Errorf("Recipe control rendered without a plan: %s", *btn.CallbackData)
				}
				if *btn.CallbackData == "grocery" {
					t.Error("Grocery control rendered without a plan")
				}
			}
		}
	})
}

func TestRenderMealDetail(t *testing.T) {
	plan := testPlan()
	m := plan.Day(3).Meal(api.MealLunch)

	text, keyboard := renderMealDetail(3, api.MealLunch, m)

	if !strings.Contains(text, "*Day 3 lunch dish*") {
		t.Error("Missing meal name header")
	}
	if !strings.Contains(text, "• Calories: 400 kcal") {
		t.Error("Missing calories line")
	}
	if !strings.Contains(text, "• 2 eggs") {
		t.Error("Missing ingredient")
	}
	if !strings.Contains(text, "1. Mix everything.") {
		t.Error("Missing numbered instruction")
	}
	if strings.Contains(text, "Dining out") {
		t.Error("Unexpected dining-out banner on a home-cooked meal")
	}

	if got := *keyboard.InlineKeyboard[0][0].CallbackData; got != "dine|3|lunch" {
		t.Errorf("Expected toggle callback 'dine|3|lunch', got '%s'", got)
	}

	m.DiningOut = true
	text, _ = renderMealDetail(3, api.MealLunch, m)
	if !strings.Contains(text, "Dining out") {
		t.Error("Missing dining-out banner after toggle")
	}
}

func TestRenderGroceryList(t *testing.T) {
	text := renderGroceryList([]string{"2 eggs", "1 cup oats", "2 eggs"})
	if !strings.Contains(text, "🛒 *Grocery List*") {
		t.Error("Missing header")
	}
	// Order and duplicates come straight from the backend.
	if !strings.Contains(text, "• 2 eggs\n• 1 cup oats\n• 2 eggs\n") {
		t.Errorf("Expected backend order preserved, got:\n%s", text)
	}

	empty := renderGroceryList(nil)
	if !strings.Contains(empty, "Nothing to buy") {
		t.Error("Missing empty-list message")
	}
}

func TestParseMealRef(t *testing.T) {
	day, mealType, ok := parseMealRef([]string{"recipe", "3", "lunch"})
	if !ok || day != 3 || mealType != "lunch" {
		t.Errorf("Expected (3, lunch), got (%d, %s, %v)", day, mealType, ok)
	}

	for _, parts := range [][]string{
		{"recipe"},
		{"recipe", "three", "lunch"},
		{"recipe", "3", "brunch"},
	} {
		if _, _, ok := parseMealRef(parts); ok {
			t.Errorf("Expected parse failure for %v", parts)
		}
	}
}

func TestParseRemove(t *testing.T) {
	if pos, ok := parseRemove("remove 2"); !ok || pos != 2 {
		t.Errorf("Expected (2, true), got (%d, %v)", pos, ok)
	}
	if pos, ok := parseRemove("Remove 10"); !ok || pos != 10 {
		t.Errorf("Expected case-insensitive match, got (%d, %v)", pos, ok)
	}
	for _, text := range []string{"remove", "remove two", "delete 2", "vegetarian"} {
		if _, ok := parseRemove(text); ok {
			t.Errorf("Expected no match for '%s'", text)
		}
	}
}

func TestChoiceKeyboard(t *testing.T) {
	kb := choiceKeyboard("activity", api.ActivityLevels)
	if len(kb.InlineKeyboard) != len(api.ActivityLevels) {
		t.Fatalf("Expected %d rows, got %d", len(api.ActivityLevels), len(kb.InlineKeyboard))
	}
	if kb.InlineKeyboard[1][0].Text != "Lightly active" {
		t.Errorf("Expected humanized label, got '%s'", kb.InlineKeyboard[1][0].Text)
	}
	if *kb.InlineKeyboard[1][0].CallbackData != "activity|lightly_active" {
		t.Errorf("Expected raw enum in callback, got '%s'", *kb.InlineKeyboard[1][0].CallbackData)
	}
}

func TestTagPrompt(t *testing.T) {
	text := tagPrompt("Allergies", []string{"peanuts", "shellfish"})
	if !strings.Contains(text, "1. peanuts") || !strings.Contains(text, "2. shellfish") {
		t.Errorf("Expected positions listed, got:\n%s", text)
	}

	empty := tagPrompt("Allergies", nil)
	if !strings.Contains(empty, "None yet") {
		t.Error("Missing empty-list hint")
	}
}
