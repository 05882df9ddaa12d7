package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"favourflix.com/favourflix-api/internal/core"
	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/store"
	"favourflix.com/favourflix-api/internal/tmdb"
	"favourflix.com/favourflix-api/internal/validation"
)

const (
	APIVersion = "1.0.0"

	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	healthPingTimeout   = 2 * time.Second
)

type Recommender interface {
	Recommend(ctx context.Context, mood string, page int) (*core.RecommendationResult, error)
	Search(ctx context.Context, query string, page int) *core.SearchResult
	MovieDetails(ctx context.Context, movieID int) (*tmdb.MovieDetails, bool)
}

type Library interface {
	AddFavourite(ctx context.Context, in core.FavouriteInput) (*store.Favourite, error)
	ListFavourites(ctx context.Context) ([]store.Favourite, error)
	RemoveFavourite(ctx context.Context, movieID int) error
	ListHistory(ctx context.Context, limit int) ([]store.History, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	recommender Recommender
	library     Library
	db          Pinger
}

func NewAPIHandler(rec Recommender, lib Library, db Pinger) *APIHandler {
	return &APIHandler{recommender: rec, library: lib, db: db}
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to FavourFlix-AI API",
		"version": APIVersion,
		"status":  "running",
	})
}

// HealthHandler answers 503 while the database cannot be reached.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "ok"})
}

type RecommendRequest struct {
	Mood string `json:"mood" validate:"required,min=1,max=500"`
}

type pageQuery struct {
	Page int `json:"page" validate:"gte=1,lte=500"`
}

func (h *APIHandler) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !validRequest(w, &pageQuery{Page: page}) {
		return
	}

	var req RecommendRequest
	if !decodeBody(w, r, &req) || !validRequest(w, &req) {
		return
	}

	result, err := h.recommender.Recommend(r.Context(), req.Mood, page)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation failed")
		writeError(w, http.StatusInternalServerError, "Failed to get recommendations: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) AddFavouriteHandler(w http.ResponseWriter, r *http.Request) {
	var req core.FavouriteInput
	if !decodeBody(w, r, &req) || !validRequest(w, &req) {
		return
	}

	fav, err := h.library.AddFavourite(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateFavourite) {
			writeError(w, http.StatusBadRequest, "This movie is already in your favourites")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int("movie_id", *req.MovieID).Msg("Error adding favourite")
		writeError(w, http.StatusInternalServerError, "Failed to add favourite: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

func (h *APIHandler) ListFavouritesHandler(w http.ResponseWriter, r *http.Request) {
	favs, err := h.library.ListFavourites(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Error listing favourites")
		writeError(w, http.StatusInternalServerError, "Failed to list favourites")
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

func (h *APIHandler) RemoveFavouriteHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "movie_id must be an integer")
		return
	}

	if err := h.library.RemoveFavourite(r.Context(), movieID); err != nil {
		if errors.Is(err, store.ErrFavouriteNotFound) {
			writeError(w, http.StatusNotFound, "Favourite not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int("movie_id", movieID).Msg("Error removing favourite")
		writeError(w, http.StatusInternalServerError, "Failed to remove favourite")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Favourite removed successfully"})
}

type historyQuery struct {
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

func (h *APIHandler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !validRequest(w, &historyQuery{Limit: limit}) {
		return
	}

	history, err := h.library.ListHistory(r.Context(), limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Error listing history")
		writeError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type searchQuery struct {
	Query string `json:"query" validate:"required,max=500"`
	Page  int    `json:"page" validate:"gte=1,lte=500"`
}

func (h *APIHandler) SearchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	q := searchQuery{Query: r.URL.Query().Get("query"), Page: page}
	if !validRequest(w, &q) {
		return
	}

	writeJSON(w, http.StatusOK, h.recommender.Search(r.Context(), q.Query, q.Page))
}

func (h *APIHandler) MovieDetailsHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "movie_id must be an integer")
		return
	}

	details, ok := h.recommender.MovieDetails(r.Context(), movieID)
	if !ok {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func validRequest(w http.ResponseWriter, v any) bool {
	if err := validation.ValidateStruct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
