package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasteboard/tasteboard/internal/oidc"
)

var (
	ErrEmptyContent  = errors.New("content must not be empty")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Service applies attribution and validation on top of the repository. The
// authorization gate already ran by the time any of these are called; the
// identity passed in is trusted.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateComment(ctx context.Context, identity oidc.Identity, recipeID int, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyContent
	}

	now := time.Now().UTC()
	comment := Comment{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		UserID:    identity.Subject,
		UserEmail: identity.Email,
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return Comment{}, fmt.Errorf("creating comment: %w", err)
	}

	return comment, nil
}

func (s *Service) CommentsByRecipe(ctx context.Context, recipeID int) ([]Comment, error) {
	return s.repo.CommentsByRecipe(ctx, recipeID)
}

// UpdateComment only touches comments owned by the caller.
func (s *Service) UpdateComment(ctx context.Context, identity oidc.Identity, commentID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyContent
	}

	return s.repo.UpdateComment(ctx, commentID, identity.Subject, text)
}

func (s *Service) DeleteComment(ctx context.Context, identity oidc.Identity, commentID string) error {
	return s.repo.DeleteComment(ctx, commentID, identity.Subject)
}

// AddFavorite stores one favorite per user and recipe; a duplicate surfaces
// as serviceerr.ErrConflict for the HTTP layer to collapse into success.
func (s *Service) AddFavorite(ctx context.Context, identity oidc.Identity, recipeID int, title, image string) (Favorite, error) {
	favorite := Favorite{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		UserID:    identity.Subject,
		UserEmail: identity.Email,
		Title:     title,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}

	err := s.repo.AddFavorite(ctx, favorite)
	if err != nil {
		return Favorite{}, fmt.Errorf("adding favorite: %w", err)
	}

	return favorite, nil
}

func (s *Service) RemoveFavorite(ctx context.Context, identity oidc.Identity, recipeID int) error {
	return s.repo.RemoveFavorite(ctx, identity.Subject, recipeID)
}

func (s *Service) FavoritesByUser(ctx context.Context, identity oidc.Identity) ([]Favorite, error) {
	return s.repo.FavoritesByUser(ctx, identity.Subject)
}

func (s *Service) AddReview(ctx context.Context, identity oidc.Identity, recipeID, rating int, text string) (Review, error) {
	if rating < 1 || rating > 5 {
		return Review{}, ErrInvalidRating
	}

	review := Review{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		UserID:    identity.Subject,
		UserEmail: identity.Email,
		Rating:    rating,
		Content:   strings.TrimSpace(text),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AddReview(ctx, review); err != nil {
		return Review{}, fmt.Errorf("adding review: %w", err)
	}

	return review, nil
}

func (s *Service) ReviewsByRecipe(ctx context.Context, recipeID int) ([]Review, error) {
	return s.repo.ReviewsByRecipe(ctx, recipeID)
}

func (s *Service) ReviewsByUser(ctx context.Context, identity oidc.Identity) ([]Review, error) {
	return s.repo.ReviewsByUser(ctx, identity.Subject)
}
