package api

// TokenResponse is returned by the login and register endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Account is the authenticated user record returned by GET /api/profile.
// Profile is nil until the user has saved one.
type Account struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Profile  *Profile `json:"profile"`
}

// Profile holds the biometric and dietary preference fields owned by the backend.
// Weight is in kg, height in cm. Targets are optional and omitted when unset.
type Profile struct {
	Gender              string   `json:"gender"`
	Age                 int      `json:"age"`
	Weight              float64  `json:"weight"`
	Height              float64  `json:"height"`
	ActivityLevel       string   `json:"activity_level"`
	FitnessGoal         string   `json:"fitness_goal"`
	CalorieTarget       *int     `json:"calorie_target,omitempty"`
	ProteinTarget       *int     `json:"protein_target,omitempty"`
	FiberTarget         *int     `json:"fiber_target,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Allergies           []string `json:"allergies"`
}

// Activity levels and fitness goals accepted by the backend.
var (
	ActivityLevels = []string{
		"sedentary",
		"lightly_active",
		"moderately_active",
		"very_active",
		"extremely_active",
	}
	FitnessGoals = []string{
		"weight_loss",
		"muscle_build",
		"more_fiber",
		"maintain_weight",
	}
)

// Nutrition holds the per-meal nutritional breakdown.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
}

// Recipe holds the ordered ingredients and instructions for a meal.
type Recipe struct {
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Meal is a single meal slot in a day plan.
type Meal struct {
	Name      string    `json:"name"`
	DiningOut bool      `json:"dining_out"`
	Nutrition Nutrition `json:"nutrition"`
	Recipe    Recipe    `json:"recipe"`
}

// Meal type identifiers used in plan days and the update-meal request.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

// MealTypes lists the slots of a day in serving order.
var MealTypes = []string{MealBreakfast, MealLunch, MealDinner}

// DayPlan is one day of a weekly plan, day numbered 1..7.
type DayPlan struct {
	Day       int  `json:"day"`
	Breakfast Meal `json:"breakfast"`
	Lunch     Meal `json:"lunch"`
	Dinner    Meal `json:"dinner"`
}

// Meal returns a pointer to the named meal slot, or nil for an unknown type.
func (d *DayPlan) Meal(mealType string) *Meal {
	switch mealType {
	case MealBreakfast:
		return &d.Breakfast
	case MealLunch:
		return &d.Lunch
	case MealDinner:
		return &d.Dinner
	}
	return nil
}

// MealPlan is the 7-day plan generated by the backend.
type MealPlan struct {
	Days []DayPlan `json:"days"`
}

// Day returns a pointer to the plan day with the given number, or nil.
func (p *MealPlan) Day(day int) *DayPlan {
	for i := range p.Days {
		if p.Days[i].Day == day {
			return &p.Days[i]
		}
	}
	return nil
}

// PlanResponse wraps a meal plan with its backend identifier.
type PlanResponse struct {
	MealPlanID string   `json:"meal_plan_id"`
	MealPlan   MealPlan `json:"meal_plan"`
}

// GroceryResponse is the ingredient list derived from a plan's
// non-dining-out meals.
type GroceryResponse struct {
	MealPlanID  string   `json:"meal_plan_id"`
	Ingredients []string `json:"ingredients"`
}
