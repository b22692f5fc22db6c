// Package choice commits the restaurant a group decided on for an event.
//
// A commit moves an event from undecided to decided exactly once. Commits for
// the same event are serialized twice over: by an in-process lock keyed on the
// event ID, and by the store's exclusive event transaction, which also covers
// other processes sharing the database.
package choice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/metrics"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/storage"
)

// DefaultTimeout bounds a commit, lock wait included.
const DefaultTimeout = 5 * time.Second

// Config tunes the coordinator.
type Config struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// DefaultConfig returns the default commit settings.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Outcome describes a successful commit.
type Outcome struct {
	// RestaurantID is the event's chosen restaurant.
	RestaurantID string

	// Changed is true if this call performed the transition; false when
	// the same restaurant had already been committed.
	Changed bool

	// DecidedAt is the Unix timestamp of the transition.
	DecidedAt int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics records commit outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock replaces time.Now for decided timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator commits event choices. It is safe for concurrent use.
type Coordinator struct {
	store   storage.Transactor
	cfg     Config
	locks   *keyLock
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewCoordinator creates a coordinator writing through store.
func NewCoordinator(store storage.Transactor, cfg Config, opts ...Option) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Coordinator{
		store:  store,
		cfg:    cfg,
		locks:  newKeyLock(),
		logger: slog.Default(),
		tracer: otel.Tracer("choice-coordinator"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit records restaurantID as the choice for eventID on behalf of actorID.
//
// Only the event creator may commit. Committing the restaurant that is
// already chosen succeeds without a second visit; committing a different one
// fails with a Conflict error and leaves the choice unchanged. If the event
// cannot be locked within the configured timeout the error is a Timeout.
// Commit never retries.
func (c *Coordinator) Commit(ctx context.Context, eventID, restaurantID, actorID string) (Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.Commit",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("restaurant.id", restaurantID),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := c.commit(ctx, eventID, restaurantID, actorID)
	elapsed := time.Since(start)

	if err != nil {
		kind := errs.KindOf(err)
		c.metrics.ObserveCommit(kind.String(), elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("Choice commit failed",
			"event_id", eventID,
			"restaurant_id", restaurantID,
			"actor_id", actorID,
			"kind", kind.String(),
			"duration", elapsed,
			"error", err,
		)
		return Outcome{}, err
	}

	outcome := "unchanged"
	if out.Changed {
		outcome = "committed"
	}
	c.metrics.ObserveCommit(outcome, elapsed)
	span.SetAttributes(attribute.Bool("choice.changed", out.Changed))
	span.SetStatus(codes.Ok, outcome)
	c.logger.Info("Choice committed",
		"event_id", eventID,
		"restaurant_id", out.RestaurantID,
		"changed", out.Changed,
		"duration", elapsed,
	)
	return out, nil
}

func (c *Coordinator) commit(ctx context.Context, eventID, restaurantID, actorID string) (Outcome, error) {
	if eventID == "" || restaurantID == "" {
		return Outcome{}, errs.Errorf(errs.InvalidInput, "event ID and restaurant ID are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	unlock, err := c.locks.Lock(ctx, eventID)
	if err != nil {
		err = fmt.Errorf("failed to lock event %s: %w", eventID, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return Outcome{}, errs.E(errs.Timeout, err)
		}
		return Outcome{}, errs.Wrap("commit choice", err)
	}
	defer unlock()

	var out Outcome
	err = c.store.WithEventTx(ctx, eventID, func(tx storage.EventTx) error {
		event, err := tx.Event(ctx)
		if err != nil {
			return err
		}
		if event.CreatedBy != actorID {
			return errs.Errorf(errs.Unauthorized, "only the event creator can commit a choice")
		}
		if len(event.Participants) == 0 {
			return errs.Errorf(errs.InvalidInput, "event %s has no participants", eventID)
		}

		exists, err := tx.RestaurantExists(ctx, restaurantID)
		if err != nil {
			return err
		}
		if !exists {
			return errs.Errorf(errs.NotFound, "restaurant not found: %s", restaurantID)
		}

		if event.Decided() {
			if event.ChosenRestaurantID != restaurantID {
				return errs.Errorf(errs.Conflict, "event %s already decided on restaurant %s", eventID, event.ChosenRestaurantID)
			}
			out = Outcome{RestaurantID: restaurantID, DecidedAt: event.DecidedAt}
			return nil
		}

		decidedAt := c.now().Unix()
		changed, err := tx.SetChosenRestaurant(ctx, restaurantID, decidedAt)
		if err != nil {
			return err
		}
		if !changed {
			return errs.Errorf(errs.Conflict, "event %s was decided concurrently", eventID)
		}

		err = tx.AppendVisit(ctx, &models.Visit{
			EventID:      eventID,
			GroupID:      event.GroupID,
			RestaurantID: restaurantID,
			VisitedAt:    decidedAt,
		})
		if err != nil {
			return err
		}

		out = Outcome{RestaurantID: restaurantID, Changed: true, DecidedAt: decidedAt}
		return nil
	})
	if err != nil {
		return Outcome{}, errs.Wrap("commit choice", err)
	}

	return out, nil
}
