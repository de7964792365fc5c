package cascade

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SourceFallback is Outcome.Source when the fallback produced the items.
const SourceFallback = "fallback"

// Candidate is one way of asking the backend the same question.
type Candidate struct {
	Name  string
	Path  string
	Query url.Values
}

// URL renders the candidate relative to base.
func (c Candidate) URL(base string) string {
	u := base + c.Path
	if len(c.Query) > 0 {
		u += "?" + c.Query.Encode()
	}
	return u
}

// Fetcher performs the request a candidate describes and returns the raw
// body. Non-2xx responses must be returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, c Candidate) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, c Candidate) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, c Candidate) ([]byte, error) {
	return f(ctx, c)
}

// Fallback fetches the unfiltered collection and keeps the items Keep
// accepts. A nil Keep keeps everything.
type Fallback[T any] struct {
	Candidate Candidate
	Keep      func(T) bool
}

// Attempt records what one candidate returned.
type Attempt struct {
	Candidate Candidate
	Kind      Kind
	Err       error
}

// Outcome is the result of a cascade run. Items is never nil.
type Outcome[T any] struct {
	Items    []T
	Source   string
	Attempts []Attempt
}

// Fallback reports whether the fallback produced the items.
func (o Outcome[T]) Fallback() bool {
	return o.Source == SourceFallback
}

// Exhausted reports whether every candidate and the fallback failed.
func (o Outcome[T]) Exhausted() bool {
	return o.Source == ""
}

// Executor runs candidate lists against a Fetcher.
type Executor struct {
	fetcher Fetcher
	tracer  trace.Tracer
}

func NewExecutor(f Fetcher) *Executor {
	return &Executor{
		fetcher: f,
		tracer:  otel.Tracer("storefront/internal/cascade"),
	}
}

func (e *Executor) attempt(ctx context.Context, c Candidate) Result {
	body, err := e.fetcher.Fetch(ctx, c)
	return Classify(body, err)
}

// Run tries candidates strictly in order and returns the items of the first
// one that is both reachable and well shaped. Malformed and transport results
// move on to the next candidate. When all fail, fallback runs; when that
// fails too, or is nil, the outcome is exhausted with no items.
func Run[T any](ctx context.Context, e *Executor, candidates []Candidate, fallback *Fallback[T]) Outcome[T] {
	ctx, span := e.tracer.Start(ctx, "cascade.Run", trace.WithAttributes(
		attribute.Int("cascade.candidates", len(candidates)),
		attribute.Bool("cascade.has_fallback", fallback != nil),
	))
	defer span.End()

	out := Outcome[T]{Items: []T{}}
	for _, c := range candidates {
		res := e.attempt(ctx, c)
		out.Attempts = append(out.Attempts, Attempt{Candidate: c, Kind: res.Kind, Err: res.Err})
		if res.Kind != KindOK {
			slog.DebugContext(ctx, "cascade candidate rejected",
				"candidate", c.Name,
				"path", c.Path,
				"kind", res.Kind.String(),
				"error", res.Err,
			)
			continue
		}

		items, skipped := Decode[T](res.Items)
		if skipped > 0 {
			slog.WarnContext(ctx, "skipped undecodable items", "candidate", c.Name, "skipped", skipped)
		}
		out.Items = items
		out.Source = c.Name
		slog.DebugContext(ctx, "cascade candidate accepted", "candidate", c.Name, "items", len(items))
		span.SetAttributes(attribute.String("cascade.source", c.Name))
		return out
	}

	if fallback == nil {
		span.SetStatus(codes.Error, "candidates exhausted")
		return out
	}

	slog.InfoContext(ctx, "all cascade candidates failed, using fallback",
		"candidates", len(candidates),
		"fallback", fallback.Candidate.Name,
	)
	res := e.attempt(ctx, fallback.Candidate)
	out.Attempts = append(out.Attempts, Attempt{Candidate: fallback.Candidate, Kind: res.Kind, Err: res.Err})
	if res.Kind != KindOK {
		slog.WarnContext(ctx, "cascade fallback failed",
			"fallback", fallback.Candidate.Name,
			"kind", res.Kind.String(),
			"error", res.Err,
		)
		span.SetStatus(codes.Error, "fallback failed")
		return out
	}

	items, _ := Decode[T](res.Items)
	if fallback.Keep != nil {
		items = lo.Filter(items, func(item T, _ int) bool {
			return fallback.Keep(item)
		})
	}
	out.Items = items
	out.Source = SourceFallback
	span.SetAttributes(attribute.String("cascade.source", SourceFallback))
	return out
}
