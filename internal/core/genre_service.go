package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"favourflix.com/favourflix-api/internal/logging"
	"favourflix.com/favourflix-api/internal/metrics"
	"favourflix.com/favourflix-api/internal/utils"
)

const (
	defaultInferenceTimeout = 20 * time.Second
	geminiBreakerName       = "gemini-api"
)

// Fallback reasons, used as metric label values.
const (
	fallbackUpstream = "upstream_error"
	fallbackRejected = "circuit_open"
	fallbackDecode   = "decode_error"
	fallbackNoMatch  = "no_match"
	fallbackCanceled = "canceled"
)

// TextGenerator produces a completion for a single prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GenreResult holds 1 to 3 vocabulary genre ids and a user-facing explanation.
type GenreResult struct {
	GenreIDs    []int  `json:"genre_ids"`
	Explanation string `json:"explanation"`
}

type genreResponse struct {
	Genres      []string `json:"genres"`
	Explanation *string  `json:"explanation"`
}

type GenreService struct {
	gen     TextGenerator
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
}

// NewGenreService wraps gen with a per-call timeout and a circuit breaker. A
// non-positive timeout means 20s.
func NewGenreService(gen TextGenerator, timeout time.Duration) *GenreService {
	if timeout <= 0 {
		timeout = defaultInferenceTimeout
	}
	return &GenreService{
		gen:     gen,
		timeout: timeout,
		cb:      metrics.NewBreaker[string](geminiBreakerName, time.Minute),
	}
}

// InferGenres asks the model which genres suit mood. It never fails: any
// upstream or decode problem yields Drama and Comedy with a stock explanation.
func (s *GenreService) InferGenres(ctx context.Context, mood string) GenreResult {
	log := logging.Ctx(ctx)

	text, err := s.generate(ctx, buildPrompt(mood))
	if err != nil {
		reason := fallbackUpstream
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			reason = fallbackRejected
		case errors.Is(err, metrics.ErrCallerGone):
			reason = fallbackCanceled
		}
		log.Warn().Err(err).Str("reason", reason).Msg("Genre inference failed, using fallback genres")
		return fallback(reason)
	}

	var parsed genreResponse
	if err := utils.DecodeJSONFragment(text, &parsed); err != nil {
		log.Warn().Err(err).Str("reason", fallbackDecode).Msg("Genre inference response could not be decoded, using fallback genres")
		return fallback(fallbackDecode)
	}

	result := GenreResult{
		GenreIDs:    MapGenres(parsed.Genres),
		Explanation: defaultExplanation,
	}
	if parsed.Explanation != nil {
		result.Explanation = *parsed.Explanation
	}
	if len(result.GenreIDs) == 0 {
		log.Info().Strs("genres", parsed.Genres).Msg("No inferred genre matched the vocabulary, using fallback ids")
		metrics.GenreFallbacks.WithLabelValues(fallbackNoMatch).Inc()
		result.GenreIDs = fallbackGenres()
	}

	log.Debug().Ints("genre_ids", result.GenreIDs).Msg("Genres inferred")
	return result
}

// generate calls the model under the inference timeout. Only the timeout set
// here counts against the breaker; a caller that cancels or whose own
// deadline passes does not.
func (s *GenreService) generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamGemini, "generate", metrics.OutcomeCanceled).Inc()
		return "", metrics.CallerError(ctx, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.cb.Execute(func() (string, error) {
		text, err := s.gen.GenerateText(callCtx, prompt)
		return text, metrics.CallerError(ctx, err)
	})
	metrics.UpstreamDuration.WithLabelValues(metrics.UpstreamGemini, "generate").Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeRejected
	case errors.Is(err, metrics.ErrCallerGone):
		outcome = metrics.OutcomeCanceled
	case err != nil:
		outcome = metrics.OutcomeFailure
	}
	metrics.UpstreamRequests.WithLabelValues(metrics.UpstreamGemini, "generate", outcome).Inc()

	return text, err
}

func fallback(reason string) GenreResult {
	metrics.GenreFallbacks.WithLabelValues(reason).Inc()
	return GenreResult{
		GenreIDs:    fallbackGenres(),
		Explanation: fallbackExplanation,
	}
}

func buildPrompt(mood string) string {
	var b strings.Builder
	b.WriteString("You are a movie recommendation expert. Based on the user's mood description, suggest 1-3 appropriate movie genres.\n\n")
	fmt.Fprintf(&b, "User's mood: %q\n\n", mood)
	fmt.Fprintf(&b, "Available genres: %s\n\n", strings.Join(GenreNames, ", "))
	b.WriteString("Respond in this EXACT JSON format:\n")
	b.WriteString(`{"genres": ["genre1", "genre2"], "explanation": "A friendly 2-3 sentence explanation of why these genres match their mood"}`)
	b.WriteString("\n\nOnly use genres from the available list. Be creative and empathetic in your explanation.")
	return b.String()
}
