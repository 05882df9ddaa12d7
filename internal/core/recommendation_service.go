package core

import (
	"context"
	"fmt"

	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/metrics"
	"favourflix.com/favourflix-api/internal/store"
	"favourflix.com/favourflix-api/internal/tmdb"
)

type GenreInferrer interface {
	InferGenres(ctx context.Context, mood string) GenreResult
}

// Catalog is the subset of the TMDB client the services use.
type Catalog interface {
	Discover(ctx context.Context, genreIDs []int, page int, sortBy string) tmdb.Page
	SearchByTitle(ctx context.Context, query string, page int) tmdb.Page
	GetDetails(ctx context.Context, movieID int) (*tmdb.MovieDetails, bool)
}

type HistoryWriter interface {
	CreateHistory(ctx context.Context, h *store.History) error
}

type RecommendationResult struct {
	Explanation  string       `json:"explanation"`
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Movies       []tmdb.Movie `json:"movies"`
}

type RecommendationService struct {
	genres  GenreInferrer
	catalog Catalog
	history HistoryWriter
}

func NewRecommendationService(genres GenreInferrer, catalog Catalog, history HistoryWriter) *RecommendationService {
	return &RecommendationService{
		genres:  genres,
		catalog: catalog,
		history: history,
	}
}

// Recommend infers genres for mood, fetches the requested discover page and,
// for the first page only, records the search in history.
func (s *RecommendationService) Recommend(ctx context.Context, mood string, page int) (*RecommendationResult, error) {
	inferred := s.genres.InferGenres(ctx, mood)
	catalogPage := s.catalog.Discover(ctx, inferred.GenreIDs, page, "")

	if page == 1 {
		entry := &store.History{
			Mood:        mood,
			Genres:      tmdb.JoinGenreIDs(inferred.GenreIDs),
			Explanation: inferred.Explanation,
		}
		if err := s.history.CreateHistory(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record history: %w", err)
		}
		metrics.HistoryWrites.Inc()
	}

	logging.Ctx(ctx).Info().
		Ints("genre_ids", inferred.GenreIDs).
		Int("page", page).
		Int("results", len(catalogPage.Results)).
		Msg("Recommendations served")

	return &RecommendationResult{
		Explanation:  inferred.Explanation,
		Page:         catalogPage.Page,
		TotalPages:   catalogPage.TotalPages,
		TotalResults: catalogPage.TotalResults,
		Movies:       projectMovies(catalogPage.Results),
	}, nil
}

// SearchResult is a title search page.
type SearchResult struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Movies       []tmdb.Movie `json:"movies"`
}

func (s *RecommendationService) Search(ctx context.Context, query string, page int) *SearchResult {
	p := s.catalog.SearchByTitle(ctx, query, page)
	return &SearchResult{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Movies:       projectMovies(p.Results),
	}
}

func (s *RecommendationService) MovieDetails(ctx context.Context, movieID int) (*tmdb.MovieDetails, bool) {
	return s.catalog.GetDetails(ctx, movieID)
}

func projectMovies(results []tmdb.Movie) []tmdb.Movie {
	movies := make([]tmdb.Movie, 0, len(results))
	for _, m := range results {
		if m.GenreIDs == nil {
			m.GenreIDs = []int{}
		}
		movies = append(movies, m)
	}
	return movies
}
