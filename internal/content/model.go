// Package content holds the user-generated documents: comments, favorites
// and reviews. Every record embeds the author's subject ID and email captured
// at creation time; the attribution is immutable afterwards.
package content

import "time"

type Comment struct {
	ID        string    `json:"id"`
	RecipeID  int       `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Favorite struct {
	ID        string    `json:"id"`
	RecipeID  int       `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID        string    `json:"id"`
	RecipeID  int       `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
