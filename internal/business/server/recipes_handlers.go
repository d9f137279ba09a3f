package server

import (
	"context"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/recipes"
)

// FindRecipes proxies the ingredient search.
func (s *Server) FindRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ingredients := r.URL.Query().Get("ingredients")
	if ingredients == "" {
		s.respondError(ctx, w, http.StatusBadRequest, "ingredients parameter is required")
		return
	}

	results, err := s.recipes.FindByIngredients(ctx, ingredients, s.searchLimit)
	if err != nil {
		s.respondSearchError(ctx, w, err)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, results)
}

// SearchRecipes proxies the filtered free-text search.
func (s *Server) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	filters := recipes.SearchFilters{
		Cuisine:     q.Get("cuisine"),
		Diet:        q.Get("diet"),
		Intolerance: q.Get("intolerances"),
		MealType:    q.Get("type"),
	}

	results, err := s.recipes.Search(ctx, q.Get("query"), filters, s.searchLimit)
	if err != nil {
		s.respondSearchError(ctx, w, err)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, results)
}

// respondSearchError hides upstream details behind a uniform 502.
func (s *Server) respondSearchError(ctx context.Context, w http.ResponseWriter, err error) {
	slogctx.Error(ctx, "Recipe search failed", "error", err)
	s.respondError(ctx, w, http.StatusBadGateway, "Recipe search is currently unavailable")
}

func (s *Server) Cuisines(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, recipes.Cuisines())
}

func (s *Server) Diets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, recipes.Diets())
}

func (s *Server) Intolerances(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, recipes.Intolerances())
}

func (s *Server) MealTypes(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, recipes.MealTypes())
}
