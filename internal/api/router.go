package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(apiHandler *APIHandler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", apiHandler.RootHandler)
	r.Get("/health", apiHandler.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", apiHandler.RecommendHandler)

		r.Get("/favourites", apiHandler.ListFavouritesHandler)
		r.Post("/favourites", apiHandler.AddFavouriteHandler)
		r.Delete("/favourites/{movieID}", apiHandler.RemoveFavouriteHandler)

		r.Get("/history", apiHandler.ListHistoryHandler)

		r.Get("/movies/search", apiHandler.SearchMoviesHandler)
		r.Get("/movies/{movieID}", apiHandler.MovieDetailsHandler)
	})

	return r
}
