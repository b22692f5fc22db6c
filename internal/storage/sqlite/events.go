package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/storage"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CreateEvent persists a new event with its fixed participant set.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO events (id, group_id, created_by, created_at) VALUES (?, ?, ?, ?)",
		event.ID, event.GroupID, event.CreatedBy, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", classify(err))
	}

	for _, userID := range event.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO event_participants (event_id, user_id) VALUES (?, ?)",
			event.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}

	return nil
}

// GetEvent retrieves an event by ID, including its participants.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return getEvent(ctx, s.db, eventID)
}

// ListEventsByGroup retrieves a group's events, newest first.
func (s *SQLiteStore) ListEventsByGroup(ctx context.Context, groupID string) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM events WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	rows.Close()

	events := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func getEvent(ctx context.Context, q querier, eventID string) (*models.Event, error) {
	var (
		event     models.Event
		chosen    sql.NullString
		decidedAt sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, group_id, created_by, chosen_restaurant_id, created_at, decided_at FROM events WHERE id = ?",
		eventID,
	).Scan(&event.ID, &event.GroupID, &event.CreatedBy, &chosen, &event.CreatedAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, errs.Errorf(errs.NotFound, "event not found: %s", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", classify(err))
	}
	event.ChosenRestaurantID = chosen.String
	event.DecidedAt = decidedAt.Int64

	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM event_participants WHERE event_id = ? ORDER BY user_id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		event.Participants = append(event.Participants, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return &event, nil
}

// LastVisit returns the most recent visit of a group to a restaurant.
func (s *SQLiteStore) LastVisit(ctx context.Context, groupID, restaurantID string) (time.Time, bool, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(visited_at) FROM visits WHERE group_id = ? AND restaurant_id = ?",
		groupID, restaurantID,
	).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last visit: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(last.Int64, 0), true, nil
}

// ListVisits returns a group's visits, newest first.
func (s *SQLiteStore) ListVisits(ctx context.Context, groupID string) ([]*models.Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, group_id, restaurant_id, visited_at
		 FROM visits WHERE group_id = ? ORDER BY visited_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []*models.Visit
	for rows.Next() {
		v := &models.Visit{}
		if err := rows.Scan(&v.ID, &v.EventID, &v.GroupID, &v.RestaurantID, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return visits, nil
}

// WithEventTx runs fn in a BEGIN IMMEDIATE transaction. SQLite has no row
// locks; the immediate transaction holds the database write lock, which
// covers the event row for the whole scope. The wait for that lock is bounded
// by the busy timeout or by ctx's deadline, whichever is sooner, and running
// out is reported as a Timeout error.
func (s *SQLiteStore) WithEventTx(ctx context.Context, eventID string, fn func(tx storage.EventTx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", classify(err))
	}
	defer conn.Close()

	busy := s.busyTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return errs.E(errs.Timeout, fmt.Errorf("failed to begin transaction: %w", context.DeadlineExceeded))
		}
		busy = min(busy, left)
	}
	if busy != s.busyTimeout {
		if err := setBusyTimeout(ctx, conn, busy); err != nil {
			return err
		}
		// The connection returns to the pool; restore the default wait.
		defer setBusyTimeout(context.Background(), conn, s.busyTimeout)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errs.E(errs.Timeout, fmt.Errorf("failed to begin transaction: %w", err))
		}
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(&eventTx{tx: tx, eventID: eventID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// setBusyTimeout changes how long conn waits for a lock. Sub-millisecond
// waits round up so the pragma never disables waiting.
func setBusyTimeout(ctx context.Context, conn *sql.Conn, d time.Duration) error {
	ms := max(d.Milliseconds(), 1)
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", ms)); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", classify(err))
	}
	return nil
}

// eventTx implements storage.EventTx on an open transaction.
type eventTx struct {
	tx      *sql.Tx
	eventID string
}

func (t *eventTx) Event(ctx context.Context) (*models.Event, error) {
	return getEvent(ctx, t.tx, t.eventID)
}

func (t *eventTx) RestaurantExists(ctx context.Context, restaurantID string) (bool, error) {
	var exists int
	err := t.tx.QueryRowContext(ctx, "SELECT 1 FROM restaurants WHERE id = ?", restaurantID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check restaurant existence: %w", classify(err))
	}
	return true, nil
}

func (t *eventTx) SetChosenRestaurant(ctx context.Context, restaurantID string, decidedAt int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE events SET chosen_restaurant_id = ?, decided_at = ?
		 WHERE id = ? AND chosen_restaurant_id IS NULL`,
		restaurantID, decidedAt, t.eventID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set chosen restaurant: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (t *eventTx) AppendVisit(ctx context.Context, visit *models.Visit) error {
	if visit.ID == "" {
		visit.ID = uuid.New().String()
	}
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO visits (id, event_id, group_id, restaurant_id, visited_at) VALUES (?, ?, ?, ?, ?)",
		visit.ID, visit.EventID, visit.GroupID, visit.RestaurantID, visit.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append visit: %w", classify(err))
	}
	return nil
}
