package core

import "strings"

// MaxInferredGenres caps how many genres a single mood maps to.
const MaxInferredGenres = 3

const (
	fallbackExplanation = "Based on your mood, we've selected a mix of drama and comedy films that might resonate with you right now."
	defaultExplanation  = "Based on your mood, here are some great movie recommendations!"
)

// FallbackGenreIDs is Drama and Comedy.
var FallbackGenreIDs = []int{18, 35}

// GenreNames lists the vocabulary in the order it is offered to the model.
var GenreNames = []string{
	"action", "adventure", "animation", "comedy", "crime", "documentary",
	"drama", "family", "fantasy", "history", "horror", "music", "mystery",
	"romance", "science fiction", "sci-fi", "tv movie", "thriller", "war",
	"western",
}

var genreIDs = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"sci-fi":          878,
	"tv movie":        10770,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

// GenreID looks up a genre name case-insensitively.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// MapGenres converts names to TMDB ids, dropping unknown names and keeping at
// most MaxInferredGenres in input order.
func MapGenres(names []string) []int {
	ids := make([]int, 0, MaxInferredGenres)
	for _, name := range names {
		id, ok := GenreID(name)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) > MaxInferredGenres {
		ids = ids[:MaxInferredGenres]
	}
	return ids
}

func fallbackGenres() []int {
	return append([]int(nil), FallbackGenreIDs...)
}
