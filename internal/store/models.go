package store

import "time"

type Favourite struct {
	ID           int64     `json:"id"`
	MovieID      int       `json:"movie_id"` // TMDB id, unique
	Title        string    `json:"title"`
	Overview     *string   `json:"overview"`
	PosterPath   *string   `json:"poster_path"`
	BackdropPath *string   `json:"backdrop_path"`
	VoteAverage  *float64  `json:"vote_average"`
	ReleaseDate  *string   `json:"release_date"`
	CreatedAt    time.Time `json:"created_at"`
}

type History struct {
	ID          int64     `json:"id"`
	Mood        string    `json:"mood"`
	Genres      string    `json:"genres"` // comma-joined TMDB genre ids, e.g. "18,10749"
	Explanation string    `json:"explanation"`
	CreatedAt   time.Time `json:"created_at"`
}
