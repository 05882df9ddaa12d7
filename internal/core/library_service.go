package core

import (
	"context"
	"errors"
	"fmt"

	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/store"
)

// LibraryStore is the persistence the library needs.
type LibraryStore interface {
	CreateFavourite(ctx context.Context, fav *store.Favourite) error
	ListFavourites(ctx context.Context) ([]store.Favourite, error)
	DeleteFavourite(ctx context.Context, movieID int) error
	ListHistory(ctx context.Context, limit int) ([]store.History, error)
}

// FavouriteInput is the body of an add request. movie_id and title must be
// present; any integer id and any title, empty included, are stored as sent.
type FavouriteInput struct {
	MovieID      *int     `json:"movie_id" validate:"required"`
	Title        *string  `json:"title" validate:"required"`
	Overview     *string  `json:"overview"`
	PosterPath   *string  `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	VoteAverage  *float64 `json:"vote_average"`
	ReleaseDate  *string  `json:"release_date"`
}

// LibraryService manages favourites and exposes the search history.
type LibraryService struct {
	store LibraryStore
}

func NewLibraryService(s LibraryStore) *LibraryService {
	return &LibraryService{store: s}
}

// ErrIncompleteFavourite is returned when movie_id or title is missing.
var ErrIncompleteFavourite = errors.New("favourite needs movie_id and title")

// AddFavourite returns store.ErrDuplicateFavourite when the movie is already
// saved; the existing record is left untouched.
func (s *LibraryService) AddFavourite(ctx context.Context, in FavouriteInput) (*store.Favourite, error) {
	if in.MovieID == nil || in.Title == nil {
		return nil, ErrIncompleteFavourite
	}
	fav := &store.Favourite{
		MovieID:      *in.MovieID,
		Title:        *in.Title,
		Overview:     in.Overview,
		PosterPath:   in.PosterPath,
		BackdropPath: in.BackdropPath,
		VoteAverage:  in.VoteAverage,
		ReleaseDate:  in.ReleaseDate,
	}
	if err := s.store.CreateFavourite(ctx, fav); err != nil {
		if errors.Is(err, store.ErrDuplicateFavourite) {
			return nil, err
		}
		return nil, fmt.Errorf("could not save favourite %d: %w", fav.MovieID, err)
	}

	logging.Ctx(ctx).Info().Int("movie_id", fav.MovieID).Msg("Favourite added")
	return fav, nil
}

func (s *LibraryService) ListFavourites(ctx context.Context) ([]store.Favourite, error) {
	return s.store.ListFavourites(ctx)
}

// RemoveFavourite returns store.ErrFavouriteNotFound for unknown movies.
func (s *LibraryService) RemoveFavourite(ctx context.Context, movieID int) error {
	if err := s.store.DeleteFavourite(ctx, movieID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int("movie_id", movieID).Msg("Favourite removed")
	return nil
}

func (s *LibraryService) ListHistory(ctx context.Context, limit int) ([]store.History, error) {
	return s.store.ListHistory(ctx, limit)
}
