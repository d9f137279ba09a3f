package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/content"
	"github.com/tasteboard/tasteboard/internal/serviceerr"
)

// ListComments is public: anyone can read a recipe's comments.
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, ok := s.recipeIDParam(w, r)
	if !ok {
		return
	}

	comments, err := s.content.CommentsByRecipe(ctx, recipeID)
	if err != nil {
		slogctx.Error(ctx, "Failed to list comments", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not load comments")
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":  true,
		"comments": emptyIfNil(comments),
	})
}

func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, ok := s.recipeIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := s.content.CreateComment(ctx, identityFromContext(ctx), recipeID, body.Content)
	if err != nil {
		if errors.Is(err, content.ErrEmptyContent) {
			s.respondError(ctx, w, http.StatusBadRequest, "Comment content is required")
			return
		}

		slogctx.Error(ctx, "Failed to create comment", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not save comment")
		return
	}

	s.respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": comment,
	})
}

func (s *Server) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.content.UpdateComment(ctx, identityFromContext(ctx), chi.URLParam(r, "commentID"), body.Content)
	if err != nil {
		s.respondCommentMutationError(ctx, w, err)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := s.content.DeleteComment(ctx, identityFromContext(ctx), chi.URLParam(r, "commentID"))
	if err != nil {
		s.respondCommentMutationError(ctx, w, err)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	favorites, err := s.content.FavoritesByUser(ctx, identityFromContext(ctx))
	if err != nil {
		slogctx.Error(ctx, "Failed to list favorites", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not load favorites")
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":   true,
		"favorites": emptyIfNil(favorites),
	})
}

func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		RecipeID int    `json:"recipe_id"`
		Title    string `json:"title"`
		Image    string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RecipeID == 0 {
		s.respondError(ctx, w, http.StatusBadRequest, "recipe_id is required")
		return
	}

	favorite, err := s.content.AddFavorite(ctx, identityFromContext(ctx), body.RecipeID, body.Title, body.Image)
	if err != nil {
		if errors.Is(err, serviceerr.ErrConflict) {
			// Favoriting twice is a no-op for the caller.
			s.respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true})
			return
		}

		slogctx.Error(ctx, "Failed to add favorite", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not save favorite")
		return
	}

	s.respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success":  true,
		"favorite": favorite,
	})
}

func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, err := strconv.Atoi(chi.URLParam(r, "recipeID"))
	if err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid recipe id")
		return
	}

	if err := s.content.RemoveFavorite(ctx, identityFromContext(ctx), recipeID); err != nil {
		if errors.Is(err, serviceerr.ErrNotFound) {
			s.respondError(ctx, w, http.StatusNotFound, "Favorite not found")
			return
		}

		slogctx.Error(ctx, "Failed to remove favorite", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not remove favorite")
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{"success": true})
}

// ListReviews is public: anyone can read a recipe's reviews.
func (s *Server) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, ok := s.recipeIDParam(w, r)
	if !ok {
		return
	}

	reviews, err := s.content.ReviewsByRecipe(ctx, recipeID)
	if err != nil {
		slogctx.Error(ctx, "Failed to list reviews", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not load reviews")
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"reviews": emptyIfNil(reviews),
	})
}

func (s *Server) AddReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recipeID, ok := s.recipeIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Rating  int    `json:"rating"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := s.content.AddReview(ctx, identityFromContext(ctx), recipeID, body.Rating, body.Content)
	if err != nil {
		if errors.Is(err, content.ErrInvalidRating) {
			s.respondError(ctx, w, http.StatusBadRequest, "Rating must be between 1 and 5")
			return
		}

		slogctx.Error(ctx, "Failed to add review", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not save review")
		return
	}

	s.respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success": true,
		"review":  review,
	})
}

func (s *Server) ListOwnReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reviews, err := s.content.ReviewsByUser(ctx, identityFromContext(ctx))
	if err != nil {
		slogctx.Error(ctx, "Failed to list own reviews", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not load reviews")
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"reviews": emptyIfNil(reviews),
	})
}

func (s *Server) recipeIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	recipeID, err := strconv.Atoi(chi.URLParam(r, "recipeID"))
	if err != nil {
		s.respondError(r.Context(), w, http.StatusBadRequest, "Invalid recipe id")
		return 0, false
	}

	return recipeID, true
}

func (s *Server) respondCommentMutationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrEmptyContent):
		s.respondError(ctx, w, http.StatusBadRequest, "Comment content is required")
	case errors.Is(err, serviceerr.ErrNotFound):
		// Covers both "no such comment" and "not yours"; the distinction is
		// not leaked.
		s.respondError(ctx, w, http.StatusNotFound, "Comment not found")
	default:
		slogctx.Error(ctx, "Failed to mutate comment", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Could not update comment")
	}
}

// emptyIfNil keeps list responses as JSON arrays instead of null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
