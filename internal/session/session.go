package session

import (
	"fmt"
	"strings"
	"sync"

	"nutriplan-bot/internal/api"
)

// View identifies which of the five screens a chat is currently on.
type View string

const (
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewProfile   View = "profile"
	ViewDashboard View = "dashboard"
	ViewGrocery   View = "grocery"
)

// Op identifies a backend operation that may be in flight for a session.
// Pending state is tracked per operation rather than as one shared flag, so
// unrelated actions cannot block or race each other in the UI.
type Op string

const (
	OpLogin        Op = "login"
	OpRegister     Op = "register"
	OpFetchProfile Op = "fetch_profile"
	OpSaveProfile  Op = "save_profile"
	OpGeneratePlan Op = "generate_plan"
	OpFetchPlan    Op = "fetch_plan"
	OpUpdateMeal   Op = "update_meal"
	OpGrocery      Op = "grocery"
)

// UpdateMealOp keys the dining-out sync to one specific meal. Toggles on
// different meals carry independent in-flight marks, so a pending sync for
// one meal never swallows the mirror for another.
func UpdateMealOp(day int, mealType string) Op {
	return Op(fmt.Sprintf("%s|%d|%s", OpUpdateMeal, day, mealType))
}

// Session is the per-chat state container. All mutation goes through explicit
// methods so every transition has a single auditable place.
type Session struct {
	mu sync.Mutex

	chatID  int64
	token   string
	account *api.Account
	plan    *api.MealPlan
	planID  string
	grocery []string

	view  View
	stage string // substate within a view (form step), owned by the bot
	form  *ProfileForm

	pendingUsername string // buffered between the username and password prompts

	inflight map[Op]bool
}

// New creates a session starting on the login view.
func New(chatID int64) *Session {
	return &Session{
		chatID:   chatID,
		view:     ViewLogin,
		inflight: make(map[Op]bool),
	}
}

func (s *Session) ChatID() int64 {
	return s.chatID
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Stage returns the current form substate within the active view.
func (s *Session) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) SetStage(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether the session holds a bearer token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Account() *api.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Plan returns the current meal plan and its backend id. The plan is nil
// until one has been fetched or generated.
func (s *Session) Plan() (*api.MealPlan, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan, s.planID
}

func (s *Session) Grocery() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grocery
}

// SwitchAuthView moves between the login and register forms. It is a no-op
// for any other view: authenticated screens never fall back to auth forms
// except through Reset.
func (s *Session) SwitchAuthView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != ViewLogin && v != ViewRegister {
		return
	}
	if s.token != "" {
		return
	}
	s.view = v
	s.stage = ""
	s.pendingUsername = ""
}

// BufferUsername stores the username entered on the first auth prompt.
func (s *Session) BufferUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingUsername = username
}

// TakeUsername returns and clears the buffered username.
func (s *Session) TakeUsername() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.pendingUsername
	s.pendingUsername = ""
	return u
}

// Authenticate stores the bearer token after a successful login or register.
// Dependent state (account, plan) is fetched lazily afterwards.
func (s *Session) Authenticate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.stage = ""
	s.pendingUsername = ""
}

// ApplyAccount records the fetched user record and routes to the profile
// form when no profile is saved yet, otherwise to the dashboard.
func (s *Session) ApplyAccount(acc *api.Account) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = acc
	if acc.Profile == nil {
		s.view = ViewProfile
	} else {
		s.view = ViewDashboard
	}
	s.stage = ""
	return s.view
}

// Reset clears the token and all dependent state and returns to the login
// view. Used for both logout and session invalidation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.account = nil
	s.plan = nil
	s.planID = ""
	s.grocery = nil
	s.form = nil
	s.pendingUsername = ""
	s.view = ViewLogin
	s.stage = ""
	s.inflight = make(map[Op]bool)
}

// StartProfileForm opens the profile view with a draft prefilled from the
// stored profile when one exists.
func (s *Session) StartProfileForm() *ProfileForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	form := &ProfileForm{}
	if s.account != nil && s.account.Profile != nil {
		form.Profile = *s.account.Profile
	}
	s.form = form
	s.view = ViewProfile
	s.stage = ""
	return form
}

// Form returns the draft profile form, nil when none is being edited.
func (s *Session) Form() *ProfileForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// ApplyProfile records the canonical stored profile echoed by the backend
// and moves to the dashboard. The plan, if any, is left untouched.
func (s *Session) ApplyProfile(p *api.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account != nil {
		s.account.Profile = p
	}
	s.form = nil
	s.view = ViewDashboard
	s.stage = ""
}

// ApplyPlan fully replaces the current plan.
func (s *Session) ApplyPlan(planID string, plan *api.MealPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planID = planID
	s.plan = plan
}

// ShowDashboard switches to the dashboard view without touching data.
func (s *Session) ShowDashboard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = ViewDashboard
	s.stage = ""
}

// ToggleDiningOut flips the dining-out flag on exactly one meal of the local
// plan copy and returns the new value. The second return is false when the
// plan, day, or meal type does not exist.
func (s *Session) ToggleDiningOut(day int, mealType string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return false, false
	}
	d := s.plan.Day(day)
	if d == nil {
		return false, false
	}
	m := d.Meal(mealType)
	if m == nil {
		return false, false
	}
	m.DiningOut = !m.DiningOut
	return m.DiningOut, true
}

// ApplyGrocery replaces the grocery list and switches to the grocery view.
func (s *Session) ApplyGrocery(items []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grocery = items
	s.view = ViewGrocery
	s.stage = ""
}

// Begin marks an operation as in flight. It returns false when the same
// operation is already pending, which callers use to drop duplicate
// triggers (e.g. a double-pressed Generate button).
func (s *Session) Begin(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[op] {
		return false
	}
	s.inflight[op] = true
	return true
}

// End clears the in-flight mark for an operation.
func (s *Session) End(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, op)
}

// Busy reports whether an operation is currently in flight.
func (s *Session) Busy(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[op]
}

// ProfileForm is the draft profile under construction. Tag lists are built
// one entry at a time and removable by 1-based position.
type ProfileForm struct {
	api.Profile
}

func addTag(list []string, tag string) ([]string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return list, false
	}
	return append(list, tag), true
}

func removeTag(list []string, pos int) ([]string, bool) {
	if pos < 1 || pos > len(list) {
		return list, false
	}
	return append(list[:pos-1], list[pos:]...), true
}

// AddRestriction appends a trimmed dietary restriction. Empty input is
// rejected; duplicates are not.
func (f *ProfileForm) AddRestriction(tag string) bool {
	list, ok := addTag(f.DietaryRestrictions, tag)
	f.DietaryRestrictions = list
	return ok
}

// RemoveRestriction removes the restriction at the given 1-based position.
// Out-of-range positions are a no-op.
func (f *ProfileForm) RemoveRestriction(pos int) bool {
	list, ok := removeTag(f.DietaryRestrictions, pos)
	f.DietaryRestrictions = list
	return ok
}

// AddAllergy appends a trimmed allergy entry.
func (f *ProfileForm) AddAllergy(tag string) bool {
	list, ok := addTag(f.Allergies, tag)
	f.Allergies = list
	return ok
}

// RemoveAllergy removes the allergy at the given 1-based position.
func (f *ProfileForm) RemoveAllergy(pos int) bool {
	list, ok := removeTag(f.Allergies, pos)
	f.Allergies = list
	return ok
}
