package recipes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasteboard/tasteboard/internal/recipes"
)

func newUpstream(t *testing.T, status int, body any) (*httptest.Server, *http.Request) {
	t.Helper()

	var got http.Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &got
}

func TestClient_FindByIngredients(t *testing.T) {
	srv, got := newUpstream(t, http.StatusOK, []map[string]any{
		{"id": 7, "title": "Tomato Soup", "image": "soup.jpg", "usedIngredientCount": 2, "missedIngredientCount": 1, "likes": 42},
	})

	c := recipes.NewClient(srv.URL, "the-key", time.Second)

	results, err := c.FindByIngredients(t.Context(), "tomato,onion", 6)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].ID)
	assert.Equal(t, "Tomato Soup", results[0].Title)
	assert.Equal(t, 2, results[0].UsedIngredientCount)
	assert.Equal(t, 42, results[0].Likes)

	q := got.URL.Query()
	assert.Equal(t, "/recipes/findByIngredients", got.URL.Path)
	assert.Equal(t, "tomato,onion", q.Get("ingredients"))
	assert.Equal(t, "6", q.Get("number"))
	assert.Equal(t, "the-key", q.Get("apiKey"))
}

func TestClient_Search(t *testing.T) {
	srv, got := newUpstream(t, http.StatusOK, map[string]any{
		"results": []map[string]any{
			{"id": 3, "title": "Pasta", "readyInMinutes": 25, "servings": 4, "vegetarian": true, "aggregateLikes": 10, "cuisines": []string{"Italian"}},
		},
	})

	c := recipes.NewClient(srv.URL, "the-key", time.Second)

	results, err := c.Search(t.Context(), "pasta", recipes.SearchFilters{
		Cuisine:     "Italian",
		Diet:        "vegetarian",
		Intolerance: "gluten",
		MealType:    "main course",
	}, 6)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Pasta", results[0].Title)
	assert.Equal(t, 25, results[0].ReadyInMinutes)
	assert.True(t, results[0].Vegetarian)
	assert.Equal(t, 10, results[0].Likes)

	q := got.URL.Query()
	assert.Equal(t, "/recipes/complexSearch", got.URL.Path)
	assert.Equal(t, "pasta", q.Get("query"))
	assert.Equal(t, "Italian", q.Get("cuisine"))
	assert.Equal(t, "vegetarian", q.Get("diet"))
	assert.Equal(t, "gluten", q.Get("intolerances"))
	assert.Equal(t, "main course", q.Get("type"))
	assert.Equal(t, "true", q.Get("addRecipeInformation"))
}

func TestClient_Errors(t *testing.T) {
	t.Run("Provider rejects the request", func(t *testing.T) {
		srv, _ := newUpstream(t, http.StatusPaymentRequired, nil)
		c := recipes.NewClient(srv.URL, "the-key", time.Second)

		_, err := c.Search(t.Context(), "pasta", recipes.SearchFilters{}, 6)
		assert.ErrorIs(t, err, recipes.ErrSearchFailed)
	})

	t.Run("Provider unreachable", func(t *testing.T) {
		srv, _ := newUpstream(t, http.StatusOK, nil)
		srv.Close()
		c := recipes.NewClient(srv.URL, "the-key", time.Second)

		_, err := c.FindByIngredients(t.Context(), "tomato", 6)
		assert.ErrorIs(t, err, recipes.ErrUnavailable)
	})
}

func TestClient_HasAPIKey(t *testing.T) {
	assert.True(t, recipes.NewClient("http://x", "key", time.Second).HasAPIKey())
	assert.False(t, recipes.NewClient("http://x", "", time.Second).HasAPIKey())
}

func TestTaxonomy(t *testing.T) {
	assert.Contains(t, recipes.Cuisines(), "Italian")
	assert.Contains(t, recipes.Diets(), "vegetarian")
	assert.Contains(t, recipes.Intolerances(), "gluten")
	assert.Contains(t, recipes.MealTypes(), "main course")
	assert.NotEmpty(t, recipes.Cuisines())
}
