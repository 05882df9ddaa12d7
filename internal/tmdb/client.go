// Package tmdb is a client for The Movie Database v3 REST API.
//
// Every public method absorbs failures: list operations return EmptyPage and
// GetDetails reports absence. Failure detail is only logged and counted.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"favourflix.com/favourflix-api/internal/config"
	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/metrics"
)

const (
	DefaultSortBy = "popularity.desc"

	language     = "en-US"
	minVoteCount = 100
	breakerName  = "tmdb-api"

	maxResponseBytes = 8 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb returned HTTP %d", e.Code)
}

type response struct {
	status int
	body   []byte
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*response]
}

// NewClient builds a client with its own pooled transport. Dials are bounded
// by cfg.ConnectTimeout and whole requests by cfg.Timeout. Call Close at
// shutdown.
func NewClient(cfg config.TMDBConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport, // nil CheckRedirect: redirects are followed
		},
		cb: metrics.NewBreaker[*response](breakerName, 30*time.Second),
	}
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
	logging.Info().Msg("TMDB client closed.")
}

// Discover lists movies having all of genreIDs with at least 100 votes.
// An empty sortBy means DefaultSortBy.
func (c *Client) Discover(ctx context.Context, genreIDs []int, page int, sortBy string) Page {
	if sortBy == "" {
		sortBy = DefaultSortBy
	}

	params := url.Values{}
	if len(genreIDs) > 0 {
		params.Set("with_genres", JoinGenreIDs(genreIDs))
	}
	params.Set("sort_by", sortBy)
	params.Set("page", strconv.Itoa(page))
	params.Set("vote_count.gte", strconv.Itoa(minVoteCount))

	return c.listPage(ctx, "discover", "/discover/movie", params)
}

// SearchByTitle lists movies whose title matches query.
func (c *Client) SearchByTitle(ctx context.Context, query string, page int) Page {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	return c.listPage(ctx, "search", "/search/movie", params)
}

// GetDetails fetches one movie. The bool is false on any failure, including
// an unknown id.
func (c *Client) GetDetails(ctx context.Context, movieID int) (*MovieDetails, bool) {
	body, err := c.get(ctx, "details", "/movie/"+strconv.Itoa(movieID), url.Values{})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("movie_id", movieID).Msg("TMDB details lookup failed")
		return nil, false
	}

	var details MovieDetails
	if err := json.Unmarshal(body, &details); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("movie_id", movieID).Msg("TMDB details response could not be decoded")
		return nil, false
	}
	if details.GenreIDs == nil {
		details.GenreIDs = make([]int, 0, len(details.Genres))
		for _, g := range details.Genres {
			details.GenreIDs = append(details.GenreIDs, g.ID)
		}
	}
	return &details, true
}

func (c *Client) listPage(ctx context.Context, op, path string, params url.Values) Page {
	body, err := c.get(ctx, op, path, params)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("TMDB request failed, returning empty page")
		return EmptyPage()
	}

	var raw pageResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("TMDB response could not be decoded, returning empty page")
		return EmptyPage()
	}
	return raw.normalize()
}

// get performs a single GET through the circuit breaker. 5xx responses and
// transport errors count against the breaker; other non-2xx and the caller's
// own cancellation do not.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("language", language)
	reqURL := c.baseURL + path + "?" + params.Encode()

	// A caller that is already gone never reaches the breaker.
	if err := ctx.Err(); err != nil {
		metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamTMDB, op, metrics.OutcomeCanceled).Inc()
		return nil, err
	}

	start := time.Now()
	resp, err := c.cb.Execute(func() (*response, error) {
		resp, err := c.do(ctx, reqURL)
		return resp, metrics.CallerError(ctx, err)
	})
	metrics.UpstreamDuration.WithLabelValues(metrics.UpstreamTMDB, op).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := metrics.OutcomeFailure
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = metrics.OutcomeRejected
		case errors.Is(err, metrics.ErrCallerGone):
			outcome = metrics.OutcomeCanceled
		}
		metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamTMDB, op, outcome).Inc()
		return nil, err
	}
	if resp.status < 200 || resp.status > 299 {
		metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamTMDB, op, metrics.OutcomeFailure).Inc()
		return nil, &StatusError{Code: resp.status}
	}

	metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamTMDB, op, metrics.OutcomeSuccess).Inc()
	return resp.body, nil
}

func (c *Client) do(ctx context.Context, reqURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", redactURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

// redactURL strips the query string (and with it the api key) from
// *url.Error messages.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			u.RawQuery = ""
			urlErr.URL = u.String()
		}
	}
	return err
}

// JoinGenreIDs renders ids the way TMDB's with_genres parameter and the
// history table expect: "18,10749".
func JoinGenreIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
