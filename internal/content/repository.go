package content

import "context"

// Repository persists user-generated documents. Mutations that name a userID
// only touch rows owned by that user; a write that matches no row reports
// serviceerr.ErrNotFound.
type Repository interface {
	CreateComment(ctx context.Context, comment Comment) error
	CommentsByRecipe(ctx context.Context, recipeID int) ([]Comment, error)
	UpdateComment(ctx context.Context, commentID, userID, content string) error
	DeleteComment(ctx context.Context, commentID, userID string) error

	AddFavorite(ctx context.Context, favorite Favorite) error
	RemoveFavorite(ctx context.Context, userID string, recipeID int) error
	FavoritesByUser(ctx context.Context, userID string) ([]Favorite, error)

	AddReview(ctx context.Context, review Review) error
	ReviewsByRecipe(ctx context.Context, recipeID int) ([]Review, error)
	ReviewsByUser(ctx context.Context, userID string) ([]Review, error)
}
