// Package recommend builds the ranked restaurant list for an event.
package recommend

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/metrics"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/scoring"
)

// DefaultMaxConcurrency bounds how many candidates are scored at once.
const DefaultMaxConcurrency = 8

// Config tunes the builder.
type Config struct {
	MaxConcurrency int `koanf:"max_concurrency" validate:"gte=1"`
}

// DefaultConfig returns the default builder settings.
func DefaultConfig() Config {
	return Config{MaxConcurrency: DefaultMaxConcurrency}
}

// Store is the read side the builder needs.
type Store interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListCandidateRestaurants(ctx context.Context, groupID string) ([]*models.Restaurant, error)
	GetRatings(ctx context.Context, userIDs []string, restaurantID string) ([]*models.Rating, error)
	LastVisit(ctx context.Context, groupID, restaurantID string) (time.Time, bool, error)
}

// Recommendation is one ranked row.
type Recommendation struct {
	RestaurantID string
	Name         string
	Address      string
	PriceTier    models.PriceTier

	scoring.Signals
	FinalScore float64
}

func (r Recommendation) scored() scoring.Scored {
	return scoring.Scored{RestaurantID: r.RestaurantID, Signals: r.Signals, FinalScore: r.FinalScore}
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetrics records build latency and candidate counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock replaces time.Now as the evaluation instant.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// Builder ranks every candidate restaurant for an event. It only reads from
// the store and is safe for concurrent use.
type Builder struct {
	store      Store
	aggregator *scoring.Aggregator
	weights    scoring.Weights
	cfg        Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewBuilder creates a builder scoring with sc.
func NewBuilder(store Store, sc scoring.Config, cfg Config, opts ...Option) *Builder {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	b := &Builder{
		store:      store,
		aggregator: scoring.NewAggregator(sc),
		weights:    sc.Weights,
		cfg:        cfg,
		logger:     slog.Default(),
		tracer:     otel.Tracer("recommend-builder"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetRecommendations returns every candidate restaurant for eventID ranked
// best first. An event without candidates yields an empty list. Store
// failures abort the build.
func (b *Builder) GetRecommendations(ctx context.Context, eventID string) ([]Recommendation, error) {
	ctx, span := b.tracer.Start(ctx, "Builder.GetRecommendations",
		trace.WithAttributes(attribute.String("event.id", eventID)),
	)
	defer span.End()

	start := time.Now()
	recs, err := b.build(ctx, eventID)
	if err != nil {
		kind := errs.KindOf(err)
		b.metrics.RecommendationFailed(kind.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Warn("Recommendation build failed", "event_id", eventID, "kind", kind.String(), "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	b.metrics.ObserveRecommendation(elapsed, len(recs))
	span.SetAttributes(attribute.Int("recommend.candidates", len(recs)))
	span.SetStatus(codes.Ok, "")
	b.logger.Debug("Recommendations built", "event_id", eventID, "candidates", len(recs), "duration", elapsed)
	return recs, nil
}

func (b *Builder) build(ctx context.Context, eventID string) ([]Recommendation, error) {
	event, err := b.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errs.Wrap("get event", err)
	}

	candidates, err := b.store.ListCandidateRestaurants(ctx, event.GroupID)
	if err != nil {
		return nil, errs.Wrap("list candidates", err)
	}

	now := b.now()
	recs := make([]Recommendation, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.MaxConcurrency)

	for i, r := range candidates {
		g.Go(func() error {
			rec, err := b.score(gctx, event, r, now)
			if err != nil {
				return err
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(recs, func(x, y Recommendation) int {
		return scoring.Compare(x.scored(), y.scored())
	})
	return recs, nil
}

func (b *Builder) score(ctx context.Context, event *models.Event, r *models.Restaurant, now time.Time) (Recommendation, error) {
	ratings, err := b.store.GetRatings(ctx, event.Participants, r.ID)
	if err != nil {
		return Recommendation{}, errs.E(errs.Upstream, err)
	}

	last, visited, err := b.store.LastVisit(ctx, event.GroupID, r.ID)
	if err != nil {
		return Recommendation{}, errs.E(errs.Upstream, err)
	}
	if !visited {
		last = time.Time{}
	}

	rows := make([]scoring.RatingRow, len(ratings))
	for i, rt := range ratings {
		rows[i] = scoring.RatingRow{UserID: rt.UserID, Overall: rt.Overall, Nutrition: rt.Nutrition}
	}

	signals := b.aggregator.Aggregate(scoring.Input{
		Participants: event.Participants,
		Ratings:      rows,
		PriceTier:    r.PriceTier,
		LastVisit:    last,
		Now:          now,
	})

	return Recommendation{
		RestaurantID: r.ID,
		Name:         r.Name,
		Address:      r.Address,
		PriceTier:    r.PriceTier,
		Signals:      signals,
		FinalScore:   scoring.Combine(b.weights, signals),
	}, nil
}
