package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/tasteboard/tasteboard/internal/middleware"
	"github.com/tasteboard/tasteboard/pkg/fingerprint"
)

// Router assembles the full route table. The recipe-proxy routes sit behind
// the per-client rate limiter because the upstream quota is metered; the
// identity-scoped routes sit behind the authorization gate.
func (s *Server) Router(appName, frontendOrigin string, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(traceMiddleware(appName))
	r.Use(func(next http.Handler) http.Handler {
		return fingerprint.FingerprintCtxMiddleware(next)
	})
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{frontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Login flow. These are browser navigations, not XHR calls.
	r.Get("/login", s.Login)
	r.Get("/authorize", s.Authorize)
	r.Get("/logout", s.Logout)

	r.Get("/api/user/profile", s.Profile)

	// Recipe search proxy.
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/recipes", s.FindRecipes)
		r.Get("/api/recipes/search", s.SearchRecipes)
	})

	r.Get("/api/cuisines", s.Cuisines)
	r.Get("/api/diets", s.Diets)
	r.Get("/api/intolerances", s.Intolerances)
	r.Get("/api/meal-types", s.MealTypes)

	// User content. Reads on a recipe are public, everything else requires
	// an authenticated session.
	r.Get("/api/recipes/{recipeID}/comments", s.ListComments)
	r.Post("/api/recipes/{recipeID}/comments", s.requireIdentity(s.CreateComment))
	r.Put("/api/comments/{commentID}", s.requireIdentity(s.UpdateComment))
	r.Delete("/api/comments/{commentID}", s.requireIdentity(s.DeleteComment))

	r.Get("/api/user/favorites", s.requireIdentity(s.ListFavorites))
	r.Post("/api/user/favorites", s.requireIdentity(s.AddFavorite))
	r.Delete("/api/user/favorites/{recipeID}", s.requireIdentity(s.RemoveFavorite))

	r.Get("/api/recipes/{recipeID}/reviews", s.ListReviews)
	r.Post("/api/recipes/{recipeID}/reviews", s.requireIdentity(s.AddReview))
	r.Get("/api/user/reviews", s.requireIdentity(s.ListOwnReviews))

	r.Get("/health", s.Health)
	r.Get("/debug/auth", s.DebugAuth)
	r.Get("/debug/dex", s.DebugDex)

	return r
}
