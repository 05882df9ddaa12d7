package tmdb

// MaxPages is the deepest page TMDB will serve for any list endpoint.
const MaxPages = 500

// Movie is the summary shape TMDB returns in discover and search results.
type Movie struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     *string  `json:"overview"`
	PosterPath   *string  `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	VoteAverage  *float64 `json:"vote_average"`
	ReleaseDate  *string  `json:"release_date"`
	GenreIDs     []int    `json:"genre_ids"`
}

// Page is a normalized page of movie results.
type Page struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// EmptyPage is what list operations return when TMDB cannot be reached.
func EmptyPage() Page {
	return Page{Results: []Movie{}, Page: 1, TotalPages: 1, TotalResults: 0}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the /movie/{id} payload.
type MovieDetails struct {
	Movie
	Genres     []Genre `json:"genres"`
	Runtime    *int    `json:"runtime"`
	Tagline    *string `json:"tagline"`
	IMDbID     *string `json:"imdb_id"`
	Homepage   *string `json:"homepage"`
	Status     string  `json:"status"`
	VoteCount  int     `json:"vote_count"`
	Popularity float64 `json:"popularity"`
}

// pageResponse mirrors the raw list payload; pointer counters tell a missing
// field apart from zero.
type pageResponse struct {
	Results      []Movie `json:"results"`
	Page         *int    `json:"page"`
	TotalPages   *int    `json:"total_pages"`
	TotalResults *int    `json:"total_results"`
}

func (r *pageResponse) normalize() Page {
	p := EmptyPage()
	if r.Results != nil {
		p.Results = r.Results
	}
	if r.Page != nil {
		p.Page = *r.Page
	}
	if r.TotalPages != nil {
		p.TotalPages = min(*r.TotalPages, MaxPages)
	}
	if r.TotalResults != nil {
		p.TotalResults = *r.TotalResults
	}
	for i := range p.Results {
		if p.Results[i].GenreIDs == nil {
			p.Results[i].GenreIDs = []int{}
		}
	}
	return p
}
