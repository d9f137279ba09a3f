// Package contentmemory is a process-lifetime content repository for tests
// and keyless local development.
package contentmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tasteboard/tasteboard/internal/content"
	"github.com/tasteboard/tasteboard/internal/serviceerr"
)

type Repository struct {
	mu        sync.RWMutex
	comments  map[string]content.Comment
	favorites map[string]content.Favorite
	reviews   map[string]content.Review
}

var _ = content.Repository(&Repository{})

func NewRepository() *Repository {
	return &Repository{
		comments:  make(map[string]content.Comment),
		favorites: make(map[string]content.Favorite),
		reviews:   make(map[string]content.Review),
	}
}

func (r *Repository) CreateComment(_ context.Context, comment content.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[comment.ID]; ok {
		return serviceerr.ErrConflict
	}
	r.comments[comment.ID] = comment

	return nil
}

func (r *Repository) CommentsByRecipe(_ context.Context, recipeID int) ([]content.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var comments []content.Comment
	for _, c := range r.comments {
		if c.RecipeID == recipeID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	return comments, nil
}

func (r *Repository) UpdateComment(_ context.Context, commentID, userID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.comments[commentID]
	if !ok || c.UserID != userID {
		return serviceerr.ErrNotFound
	}

	c.Content = text
	c.UpdatedAt = time.Now().UTC()
	r.comments[commentID] = c

	return nil
}

func (r *Repository) DeleteComment(_ context.Context, commentID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.comments[commentID]
	if !ok || c.UserID != userID {
		return serviceerr.ErrNotFound
	}

	delete(r.comments, commentID)

	return nil
}

func (r *Repository) AddFavorite(_ context.Context, favorite content.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.favorites {
		if f.UserID == favorite.UserID && f.RecipeID == favorite.RecipeID {
			return serviceerr.ErrConflict
		}
	}
	r.favorites[favorite.ID] = favorite

	return nil
}

func (r *Repository) RemoveFavorite(_ context.Context, userID string, recipeID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, f := range r.favorites {
		if f.UserID == userID && f.RecipeID == recipeID {
			delete(r.favorites, id)
			return nil
		}
	}

	return serviceerr.ErrNotFound
}

func (r *Repository) FavoritesByUser(_ context.Context, userID string) ([]content.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var favorites []content.Favorite
	for _, f := range r.favorites {
		if f.UserID == userID {
			favorites = append(favorites, f)
		}
	}
	sort.Slice(favorites, func(i, j int) bool {
		return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
	})

	return favorites, nil
}

func (r *Repository) AddReview(_ context.Context, review content.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[review.ID]; ok {
		return serviceerr.ErrConflict
	}
	r.reviews[review.ID] = review

	return nil
}

func (r *Repository) ReviewsByRecipe(_ context.Context, recipeID int) ([]content.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []content.Review
	for _, v := range r.reviews {
		if v.RecipeID == recipeID {
			reviews = append(reviews, v)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})

	return reviews, nil
}

func (r *Repository) ReviewsByUser(_ context.Context, userID string) ([]content.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviews []content.Review
	for _, v := range r.reviews {
		if v.UserID == userID {
			reviews = append(reviews, v)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})

	return reviews, nil
}
