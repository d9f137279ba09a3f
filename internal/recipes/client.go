// Package recipes wraps the third-party recipe search provider: a keyed HTTP
// GET/JSON API whose responses are normalized into a fixed Recipe shape
// before they reach the frontend.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

var (
	// ErrUnavailable covers network errors and timeouts to the provider.
	ErrUnavailable = errors.New("recipe provider unreachable")
	// ErrSearchFailed covers provider rejections and malformed responses.
	ErrSearchFailed = errors.New("recipe search failed")
)

// Recipe is the normalized search result. Downstream consumers (favorites,
// reviews, the frontend) rely on this shape instead of the provider's.
type Recipe struct {
	ID                   int      `json:"id"`
	Title                string   `json:"title"`
	Image                string   `json:"image"`
	ReadyInMinutes       int      `json:"readyInMinutes,omitempty"`
	Servings             int      `json:"servings,omitempty"`
	Cuisines             []string `json:"cuisines,omitempty"`
	DishTypes            []string `json:"dishTypes,omitempty"`
	Vegetarian           bool     `json:"vegetarian"`
	Vegan                bool     `json:"vegan"`
	GlutenFree           bool     `json:"glutenFree"`
	DairyFree            bool     `json:"dairyFree"`
	UsedIngredientCount  int      `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount int     `json:"missedIngredientCount,omitempty"`
	Likes                int      `json:"likes"`
}

// SearchFilters narrows a free-text search.
type SearchFilters struct {
	Cuisine     string
	Diet        string
	Intolerance string
	MealType    string
}

type Client struct {
	baseURL string
	apiKey  string

	secureClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secureClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FindByIngredients searches for recipes using up to number results matching
// the comma-separated ingredient list.
func (c *Client) FindByIngredients(ctx context.Context, ingredients string, number int) ([]Recipe, error) {
	q := url.Values{}
	q.Set("ingredients", ingredients)
	q.Set("number", strconv.Itoa(number))

	var results []findByIngredientsResult
	if err := c.getJSON(ctx, "/recipes/findByIngredients", q, &results); err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(results))
	for _, r := range results {
		recipes = append(recipes, Recipe{
			ID:                    r.ID,
			Title:                 r.Title,
			Image:                 r.Image,
			UsedIngredientCount:   r.UsedIngredientCount,
			MissedIngredientCount: r.MissedIngredientCount,
			Likes:                 r.Likes,
		})
	}

	return recipes, nil
}

// Search runs a filtered free-text search.
func (c *Client) Search(ctx context.Context, query string, filters SearchFilters, number int) ([]Recipe, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("number", strconv.Itoa(number))
	q.Set("addRecipeInformation", "true")
	if filters.Cuisine != "" {
		q.Set("cuisine", filters.Cuisine)
	}
	if filters.Diet != "" {
		q.Set("diet", filters.Diet)
	}
	if filters.Intolerance != "" {
		q.Set("intolerances", filters.Intolerance)
	}
	if filters.MealType != "" {
		q.Set("type", filters.MealType)
	}

	var response complexSearchResponse
	if err := c.getJSON(ctx, "/recipes/complexSearch", q, &response); err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(response.Results))
	for _, r := range response.Results {
		recipes = append(recipes, Recipe{
			ID:             r.ID,
			Title:          r.Title,
			Image:          r.Image,
			ReadyInMinutes: r.ReadyInMinutes,
			Servings:       r.Servings,
			Cuisines:       r.Cuisines,
			DishTypes:      r.DishTypes,
			Vegetarian:     r.Vegetarian,
			Vegan:          r.Vegan,
			GlutenFree:     r.GlutenFree,
			DairyFree:      r.DairyFree,
			Likes:          r.AggregateLikes,
		})
	}

	return recipes, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, decodeInto any) error {
	query.Set("apiKey", c.apiKey)

	u := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.secureClient.Do(req)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slogctx.Warn(ctx, "Recipe provider rejected the request", "status", resp.StatusCode)
		return fmt.Errorf("%w: provider returned status %d", ErrSearchFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(decodeInto); err != nil {
		return fmt.Errorf("%w: decoding response: %s", ErrSearchFailed, err)
	}

	return nil
}

// HasAPIKey reports whether a provider key is configured; used by the health
// endpoint.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

type findByIngredientsResult struct {
	ID                    int    `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image"`
	UsedIngredientCount   int    `json:"usedIngredientCount"`
	MissedIngredientCount int    `json:"missedIngredientCount"`
	Likes                 int    `json:"likes"`
}

type complexSearchResponse struct {
	Results []struct {
		ID             int      `json:"id"`
		Title          string   `json:"title"`
		Image          string   `json:"image"`
		ReadyInMinutes int      `json:"readyInMinutes"`
		Servings       int      `json:"servings"`
		Cuisines       []string `json:"cuisines"`
		DishTypes      []string `json:"dishTypes"`
		Vegetarian     bool     `json:"vegetarian"`
		Vegan          bool     `json:"vegan"`
		GlutenFree     bool     `json:"glutenFree"`
		DairyFree      bool     `json:"dairyFree"`
		AggregateLikes int      `json:"aggregateLikes"`
	} `json:"results"`
}
