package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const userAgent = "NutriPlan-LLM-Agent/1.0"

// Client fetches personal data from the main backend on behalf of the user.
// Every method returns a descriptive string, never an error: failures become
// context the generation model can explain to the user.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL string, logger *log.Logger) *Client {
	logger.Printf("[BackendTool] Initialized with base_url: %s", baseURL)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values) (int, json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Cookie", "accessToken="+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, body, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, env.Data, nil
}

// GetPantryItems lists the user's pantry contents.
func (c *Client) GetPantryItems(ctx context.Context, token, status string) string {
	if status == "" {
		status = "in_pantry"
	}
	params := url.Values{"status": {status}, "limit": {"20"}}

	code, data, err := c.get(ctx, token, "/pantry", params)
	if err != nil {
		return fmt.Sprintf("Backend connection error: %v", err)
	}
	if code != http.StatusOK {
		c.logger.Printf("[BackendTool] Error fetching pantry: %d", code)
		return fmt.Sprintf("Error fetching pantry: %d", code)
	}

	var items []struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Sprintf("Backend connection error: %v", err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("Pantry (%s) is empty.", status)
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("- %s (%g %s)", item.Name, item.Quantity, item.Unit)
	}
	result := fmt.Sprintf("Items in %s:\n%s", status, strings.Join(lines, "\n"))
	c.logger.Printf("[BackendTool] Pantry Result:\n%s", result)
	return result
}

// GetUserProfile fetches the user's name and email.
func (c *Client) GetUserProfile(ctx context.Context, token string) string {
	code, data, err := c.get(ctx, token, "/user/me", nil)
	if err != nil {
		return fmt.Sprintf("Backend connection error: %v", err)
	}
	if code != http.StatusOK {
		c.logger.Printf("[BackendTool] Error fetching profile: %d", code)
		return fmt.Sprintf("Error fetching profile: %d", code)
	}

	var profile struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return fmt.Sprintf("Backend connection error: %v", err)
	}
	c.logger.Printf("[BackendTool] Retrieved user profile: %s (%s)", profile.FullName, profile.Email)
	return fmt.Sprintf("User Profile: %s (%s)", profile.FullName, profile.Email)
}

// GetDailyPlan summarizes the meal plan for a YYYY-MM-DD date.
func (c *Client) GetDailyPlan(ctx context.Context, token, date string) string {
	c.logger.Printf("[BackendTool] Fetching: %s/planner | Date: %s", c.baseURL, date)

	code, data, err := c.get(ctx, token, "/planner", url.Values{"date": {date}})
	if err != nil {
		return fmt.Sprintf("Backend connection error: %v", err)
	}
	if code != http.StatusOK {
		return fmt.Sprintf("Error fetching meal plan: %d - %s", code, string(data))
	}

	plan, ok := decodePlan(data)
	if !ok {
		return fmt.Sprintf("No meal plan found for %s.", date)
	}

	summary := summarizeMeals(plan.MealItems)
	if len(summary) == 0 {
		c.logger.Printf("[BackendTool] Meal plan empty for date: %s", date)
		return fmt.Sprintf("Meal plan for %s is empty.", date)
	}

	result := fmt.Sprintf("Meal Plan for %s:\n%s", date, strings.Join(summary, "\n"))
	c.logger.Printf("[BackendTool] Retrieved meal plan for %s:\n%s", date, result)
	return result
}

type planItem struct {
	FoodID struct {
		Name string `json:"name"`
	} `json:"foodId"`
}

type dailyPlan struct {
	MealItems map[string][]planItem `json:"mealItems"`
}

// decodePlan tolerates both an object and a one-element array payload, the
// backend returns either depending on the query.
func decodePlan(data json.RawMessage) (dailyPlan, bool) {
	var plan dailyPlan
	if err := json.Unmarshal(data, &plan); err == nil && plan.MealItems != nil {
		return plan, true
	}

	var plans []dailyPlan
	if err := json.Unmarshal(data, &plans); err == nil && len(plans) > 0 {
		return plans[0], true
	}
	return dailyPlan{}, false
}

func summarizeMeals(mealItems map[string][]planItem) []string {
	mealTypes := make([]string, 0, len(mealItems))
	for mealType := range mealItems {
		mealTypes = append(mealTypes, mealType)
	}
	sort.Strings(mealTypes)

	var summary []string
	for _, mealType := range mealTypes {
		items := mealItems[mealType]
		if len(items) == 0 {
			continue
		}
		names := make([]string, len(items))
		for i, item := range items {
			name := item.FoodID.Name
			if name == "" {
				name = "Unknown"
			}
			names[i] = name
		}
		summary = append(summary, fmt.Sprintf("%s: %s", capitalize(mealType), strings.Join(names, ", ")))
	}
	return summary
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
