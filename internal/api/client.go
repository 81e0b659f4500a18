package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error is a non-success response from the backend, carrying the
// server-supplied detail message when one was returned.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend error: status %d", e.StatusCode)
}

// Client talks to the NutriPlan backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do executes a request and decodes the JSON response into out (if non-nil).
// Non-2xx responses are returned as *Error with the server's detail message.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp struct {
			Detail string `json:"detail"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(bodyBytes, &errResp)
		return &Error{StatusCode: resp.StatusCode, Detail: errResp.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var tok TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", credentials{username, password}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates a new account and returns its bearer token.
func (c *Client) Register(ctx context.Context, username, password string) (*TokenResponse, error) {
	var tok TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", credentials{username, password}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// GetProfile fetches the authenticated user record. Profile is nil when the
// user has not saved one yet.
func (c *Client) GetProfile(ctx context.Context, token string) (*Account, error) {
	var acc Account
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// SaveProfile submits the full profile form and returns the canonical stored
// profile echoed back by the backend.
func (c *Client) SaveProfile(ctx context.Context, token string, profile Profile) (*Profile, error) {
	var resp struct {
		Message string  `json:"message"`
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/profile", token, profile, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// GenerateMealPlan requests a fresh 7-day plan, replacing any previous one.
func (c *Client) GenerateMealPlan(ctx context.Context, token string) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.do(ctx, http.MethodPost, "/api/meal-plan/generate", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LatestMealPlan fetches the most recently generated plan. A 404 means the
// user has no plan yet and is returned as *Error.
func (c *Client) LatestMealPlan(ctx context.Context, token string) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.do(ctx, http.MethodGet, "/api/meal-plan/latest", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type updateMealRequest struct {
	MealPlanID string `json:"meal_plan_id"`
	Day        int    `json:"day"`
	MealType   string `json:"meal_type"`
	DiningOut  bool   `json:"dining_out"`
}

// UpdateMeal mirrors a dining-out toggle to the backend.
func (c *Client) UpdateMeal(ctx context.Context, token, planID string, day int, mealType string, diningOut bool) error {
	req := updateMealRequest{
		MealPlanID: planID,
		Day:        day,
		MealType:   mealType,
		DiningOut:  diningOut,
	}
	return c.do(ctx, http.MethodPut, "/api/meal-plan/update-meal", token, req, nil)
}

// GroceryList fetches the ingredient list for a plan's non-dining-out meals.
func (c *Client) GroceryList(ctx context.Context, token, planID string) ([]string, error) {
	var resp GroceryResponse
	if err := c.do(ctx, http.MethodGet, "/api/grocery-list/"+planID, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Ingredients, nil
}

// Health pings the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", "", nil, nil)
}
