package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	ErrDuplicateFavourite = errors.New("movie is already a favourite")
	ErrFavouriteNotFound  = errors.New("favourite not found")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS favourites (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        movie_id INTEGER UNIQUE NOT NULL,
        title TEXT NOT NULL,
        overview TEXT,
        poster_path TEXT,
        backdrop_path TEXT,
        vote_average REAL,
        release_date TEXT,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        mood TEXT NOT NULL,
        genres TEXT NOT NULL, -- comma-separated genre ids
        explanation TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_favourites_created_at ON favourites (created_at);
    CREATE INDEX IF NOT EXISTS idx_history_created_at ON history (created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Favourite methods

// CreateFavourite inserts fav and fills in its ID and CreatedAt.
// Returns ErrDuplicateFavourite if the movie is already stored.
func (s *SQLiteStore) CreateFavourite(ctx context.Context, fav *Favourite) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO favourites (movie_id, title, overview, poster_path, backdrop_path, vote_average, release_date, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fav.MovieID, fav.Title, fav.Overview, fav.PosterPath, fav.BackdropPath, fav.VoteAverage, fav.ReleaseDate, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateFavourite
		}
		return fmt.Errorf("failed to insert favourite: %w", err)
	}

	fav.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read favourite id: %w", err)
	}
	fav.CreatedAt = now
	return nil
}

// ListFavourites returns all favourites, most recently added first.
func (s *SQLiteStore) ListFavourites(ctx context.Context) ([]Favourite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, movie_id, title, overview, poster_path, backdrop_path, vote_average, release_date, created_at
         FROM favourites ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favourites: %w", err)
	}
	defer rows.Close()

	favourites := make([]Favourite, 0)
	for rows.Next() {
		fav, err := scanFavourite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favourite row: %w", err)
		}
		favourites = append(favourites, *fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favourites: %w", err)
	}
	return favourites, nil
}

// DeleteFavourite removes the favourite for movieID, or returns
// ErrFavouriteNotFound.
func (s *SQLiteStore) DeleteFavourite(ctx context.Context, movieID int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM favourites WHERE movie_id = ?", movieID)
	if err != nil {
		return fmt.Errorf("failed to delete favourite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrFavouriteNotFound
	}
	return nil
}

// History methods

// CreateHistory inserts h and fills in its ID and CreatedAt.
func (s *SQLiteStore) CreateHistory(ctx context.Context, h *History) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO history (mood, genres, explanation, created_at) VALUES (?, ?, ?, ?)",
		h.Mood, h.Genres, h.Explanation, now)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	h.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read history id: %w", err)
	}
	h.CreatedAt = now
	return nil
}

// ListHistory returns up to limit entries, most recent first.
func (s *SQLiteStore) ListHistory(ctx context.Context, limit int) ([]History, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, mood, genres, explanation, created_at FROM history ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := make([]History, 0)
	for rows.Next() {
		var h History
		if err := rows.Scan(&h.ID, &h.Mood, &h.Genres, &h.Explanation, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavourite(row rowScanner) (*Favourite, error) {
	var fav Favourite
	var overview, posterPath, backdropPath, releaseDate sql.NullString
	var voteAverage sql.NullFloat64

	if err := row.Scan(&fav.ID, &fav.MovieID, &fav.Title, &overview, &posterPath, &backdropPath,
		&voteAverage, &releaseDate, &fav.CreatedAt); err != nil {
		return nil, err
	}

	fav.Overview = nullStringPtr(overview)
	fav.PosterPath = nullStringPtr(posterPath)
	fav.BackdropPath = nullStringPtr(backdropPath)
	fav.ReleaseDate = nullStringPtr(releaseDate)
	if voteAverage.Valid {
		fav.VoteAverage = &voteAverage.Float64
	}
	return &fav, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
