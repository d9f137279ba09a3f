// Package contentsql is the Postgres content repository.
package contentsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasteboard/tasteboard/internal/content"
	"github.com/tasteboard/tasteboard/internal/serviceerr"
)

const uniqueViolationCode = "23505"

type Repository struct {
	db *pgxpool.Pool
}

var _ = content.Repository(&Repository{})

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateComment(ctx context.Context, c content.Comment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO comments (id, recipe_id, user_id, user_email, content, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		c.ID, c.RecipeID, c.UserID, c.UserEmail, c.Content, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return serviceerr.ErrConflict
		}

		return fmt.Errorf("inserting into comments: %w", err)
	}

	return nil
}

func (r *Repository) CommentsByRecipe(ctx context.Context, recipeID int) ([]content.Comment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, recipe_id, user_id, user_email, content, created_at, updated_at
			 FROM comments WHERE recipe_id = $1 ORDER BY created_at DESC;`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting from comments: %w", err)
	}
	defer rows.Close()

	var comments []content.Comment
	for rows.Next() {
		var c content.Comment
		if err := rows.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.UserEmail, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// UpdateComment filters on user_id so only the author's own comment is touched.
func (r *Repository) UpdateComment(ctx context.Context, commentID, userID, text string) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3 AND user_id = $4;`,
		text, time.Now().UTC(), commentID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return serviceerr.ErrNotFound
	}

	return nil
}

func (r *Repository) DeleteComment(ctx context.Context, commentID, userID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM comments WHERE id = $1 AND user_id = $2;`,
		commentID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return serviceerr.ErrNotFound
	}

	return nil
}

func (r *Repository) AddFavorite(ctx context.Context, f content.Favorite) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO favorites (id, recipe_id, user_id, user_email, title, image, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		f.ID, f.RecipeID, f.UserID, f.UserEmail, f.Title, f.Image, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return serviceerr.ErrConflict
		}

		return fmt.Errorf("inserting into favorites: %w", err)
	}

	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID string, recipeID int) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2;`,
		userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return serviceerr.ErrNotFound
	}

	return nil
}

func (r *Repository) FavoritesByUser(ctx context.Context, userID string) ([]content.Favorite, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, recipe_id, user_id, user_email, title, image, created_at
			 FROM favorites WHERE user_id = $1 ORDER BY created_at DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting from favorites: %w", err)
	}
	defer rows.Close()

	var favorites []content.Favorite
	for rows.Next() {
		var f content.Favorite
		if err := rows.Scan(&f.ID, &f.RecipeID, &f.UserID, &f.UserEmail, &f.Title, &f.Image, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning favorite row: %w", err)
		}
		favorites = append(favorites, f)
	}

	return favorites, rows.Err()
}

func (r *Repository) AddReview(ctx context.Context, v content.Review) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO reviews (id, recipe_id, user_id, user_email, rating, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		v.ID, v.RecipeID, v.UserID, v.UserEmail, v.Rating, v.Content, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return serviceerr.ErrConflict
		}

		return fmt.Errorf("inserting into reviews: %w", err)
	}

	return nil
}

func (r *Repository) ReviewsByRecipe(ctx context.Context, recipeID int) ([]content.Review, error) {
	return r.reviews(ctx,
		`SELECT id, recipe_id, user_id, user_email, rating, content, created_at
			 FROM reviews WHERE recipe_id = $1 ORDER BY created_at DESC;`,
		recipeID,
	)
}

func (r *Repository) ReviewsByUser(ctx context.Context, userID string) ([]content.Review, error) {
	return r.reviews(ctx,
		`SELECT id, recipe_id, user_id, user_email, rating, content, created_at
			 FROM reviews WHERE user_id = $1 ORDER BY created_at DESC;`,
		userID,
	)
}

func (r *Repository) reviews(ctx context.Context, query string, arg any) ([]content.Review, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("selecting from reviews: %w", err)
	}
	defer rows.Close()

	var reviews []content.Review
	for rows.Next() {
		var v content.Review
		if err := rows.Scan(&v.ID, &v.RecipeID, &v.UserID, &v.UserEmail, &v.Rating, &v.Content, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, v)
	}

	return reviews, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	return false
}
