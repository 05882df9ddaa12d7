package core

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"favourflix.com/favourflix-api/internal/store"
	"favourflix.com/favourflix-api/internal/tmdb"
)

type fakeCatalog struct {
	page       tmdb.Page
	gotGenres  []int
	gotPage    int
	gotSortBy  string
	details    map[int]*tmdb.MovieDetails
	searchPage tmdb.Page
	gotQuery   string
}

func (c *fakeCatalog) Discover(_ context.Context, genreIDs []int, page int, sortBy string) tmdb.Page {
	c.gotGenres, c.gotPage, c.gotSortBy = genreIDs, page, sortBy
	return c.page
}

func (c *fakeCatalog) SearchByTitle(_ context.Context, query string, page int) tmdb.Page {
	c.gotQuery, c.gotPage = query, page
	return c.searchPage
}

func (c *fakeCatalog) GetDetails(_ context.Context, movieID int) (*tmdb.MovieDetails, bool) {
	d, ok := c.details[movieID]
	return d, ok
}

type failingHistory struct{}

func (failingHistory) CreateHistory(context.Context, *store.History) error {
	return errors.New("disk full")
}

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func threeMovies() []tmdb.Movie {
	return []tmdb.Movie{
		{ID: 1, Title: "Before Sunrise", GenreIDs: []int{18, 10749}},
		{ID: 2, Title: "Cinema Paradiso", Overview: strPtr("A filmmaker recalls his childhood.")},
		{ID: 3, Title: "Amélie", GenreIDs: []int{35, 10749}},
	}
}

func TestRecommend_NostalgicMood(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	gen := &stubGenerator{text: `{"genres": ["drama", "romance"], "explanation": "Warm stories for a wistful evening."}`}
	catalog := &fakeCatalog{page: tmdb.Page{Results: threeMovies(), Page: 1, TotalPages: 7, TotalResults: 130}}

	svc := NewRecommendationService(NewGenreService(gen, time.Second), catalog, db)
	mood := "feeling nostalgic about my college years"

	res, err := svc.Recommend(ctx, mood, 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if !reflect.DeepEqual(catalog.gotGenres, []int{18, 10749}) || catalog.gotPage != 1 || catalog.gotSortBy != "" {
		t.Errorf("Discover called with %v page %d sort %q", catalog.gotGenres, catalog.gotPage, catalog.gotSortBy)
	}
	if res.Explanation != "Warm stories for a wistful evening." {
		t.Errorf("Explanation = %q", res.Explanation)
	}
	if res.Page != 1 || res.TotalPages != 7 || res.TotalResults != 130 {
		t.Errorf("paging = %d/%d/%d", res.Page, res.TotalPages, res.TotalResults)
	}
	if len(res.Movies) != 3 {
		t.Fatalf("len(Movies) = %d, want 3", len(res.Movies))
	}
	if res.Movies[1].GenreIDs == nil {
		t.Error("missing genre_ids should project to an empty list")
	}

	history, err := db.ListHistory(ctx, 20)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	h := history[0]
	if h.Mood != mood || h.Genres != "18,10749" || h.Explanation != res.Explanation {
		t.Errorf("history = %+v", h)
	}
}

func TestRecommend_HistoryOnlyOnFirstPage(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	gen := &stubGenerator{text: `{"genres": ["comedy"], "explanation": "e"}`}
	catalog := &fakeCatalog{page: tmdb.Page{Results: threeMovies(), Page: 2, TotalPages: 7, TotalResults: 130}}
	svc := NewRecommendationService(NewGenreService(gen, time.Second), catalog, db)

	if _, err := svc.Recommend(ctx, "happy", 2); err != nil {
		t.Fatalf("Recommend(page 2) error = %v", err)
	}
	history, _ := db.ListHistory(ctx, 20)
	if len(history) != 0 {
		t.Errorf("page 2 wrote %d history rows", len(history))
	}

	if _, err := svc.Recommend(ctx, "happy", 1); err != nil {
		t.Fatalf("Recommend(page 1) error = %v", err)
	}
	history, _ = db.ListHistory(ctx, 20)
	if len(history) != 1 {
		t.Errorf("page 1 wrote %d history rows, want 1", len(history))
	}
}

func TestRecommend_InferenceTimeoutStillServes(t *testing.T) {
	ctx := context.Background()
	db := newStore(t)
	catalog := &fakeCatalog{page: tmdb.Page{Results: threeMovies(), Page: 1, TotalPages: 500, TotalResults: 10000}}
	svc := NewRecommendationService(NewGenreService(&stubGenerator{block: true}, 30*time.Millisecond), catalog, db)

	res, err := svc.Recommend(ctx, "can't decide", 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(catalog.gotGenres, []int{18, 35}) {
		t.Errorf("Discover genres = %v, want fallback", catalog.gotGenres)
	}
	if res.Explanation != fallbackExplanation || len(res.Movies) != 3 {
		t.Errorf("result = %+v", res)
	}

	history, _ := db.ListHistory(ctx, 1)
	if len(history) != 1 || history[0].Genres != "18,35" {
		t.Errorf("history = %+v", history)
	}
}

func TestRecommend_EmptyCatalogPage(t *testing.T) {
	catalog := &fakeCatalog{page: tmdb.EmptyPage()}
	svc := NewRecommendationService(NewGenreService(&stubGenerator{text: `{"genres":["war"]}`}, time.Second), catalog, newStore(t))

	res, err := svc.Recommend(context.Background(), "grim", 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Movies == nil || len(res.Movies) != 0 || res.Page != 1 || res.TotalPages != 1 || res.TotalResults != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRecommend_HistoryWriteFailure(t *testing.T) {
	catalog := &fakeCatalog{page: tmdb.EmptyPage()}
	svc := NewRecommendationService(NewGenreService(&stubGenerator{text: `{"genres":["war"]}`}, time.Second), catalog, failingHistory{})

	if _, err := svc.Recommend(context.Background(), "grim", 1); err == nil {
		t.Fatal("Recommend() should fail when history cannot be written")
	}
	if _, err := svc.Recommend(context.Background(), "grim", 2); err != nil {
		t.Errorf("Recommend(page 2) error = %v, history is not written there", err)
	}
}

func TestSearchAndDetails(t *testing.T) {
	catalog := &fakeCatalog{
		searchPage: tmdb.Page{Results: []tmdb.Movie{{ID: 603, Title: "The Matrix"}}, Page: 1, TotalPages: 1, TotalResults: 1},
		details:    map[int]*tmdb.MovieDetails{603: {Movie: tmdb.Movie{ID: 603, Title: "The Matrix"}}},
	}
	svc := NewRecommendationService(nil, catalog, nil)

	res := svc.Search(context.Background(), "matrix", 1)
	if catalog.gotQuery != "matrix" || len(res.Movies) != 1 || res.Movies[0].GenreIDs == nil {
		t.Errorf("Search() = %+v", res)
	}

	if d, ok := svc.MovieDetails(context.Background(), 603); !ok || d.Title != "The Matrix" {
		t.Errorf("MovieDetails(603) = %+v, %v", d, ok)
	}
	if _, ok := svc.MovieDetails(context.Background(), 1); ok {
		t.Error("MovieDetails(1) should be absent")
	}
}
