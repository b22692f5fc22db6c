package choice

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/storage"
	"github.com/mmynk/platepick/internal/storage/sqlite"
)

type fixture struct {
	store       *sqlite.SQLiteStore
	path        string
	creator     *models.User
	member      *models.User
	group       *models.Group
	restaurants []*models.Restaurant
}

func newFixture(t *testing.T, restaurants int) *fixture {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "choice.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, path: path}
	f.creator = models.NewUser("creator@example.com", "Creator", "hash")
	f.member = models.NewUser("member@example.com", "Member", "hash")
	require.NoError(t, store.CreateUser(ctx, f.creator))
	require.NoError(t, store.CreateUser(ctx, f.member))

	f.group = &models.Group{Name: "Lunch", CreatedBy: f.creator.ID, Members: []string{f.member.ID}}
	require.NoError(t, store.CreateGroup(ctx, f.group))

	for i := 0; i < restaurants; i++ {
		r := &models.Restaurant{Name: "Restaurant", PriceTier: models.PriceModerate}
		require.NoError(t, store.UpsertRestaurant(ctx, r))
		f.restaurants = append(f.restaurants, r)
	}
	return f
}

func (f *fixture) event(t *testing.T, participants ...string) *models.Event {
	t.Helper()
	e := &models.Event{GroupID: f.group.ID, CreatedBy: f.creator.ID, Participants: participants}
	require.NoError(t, f.store.CreateEvent(context.Background(), e))
	return e
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestCommit_FirstCommitDecides(t *testing.T) {
	f := newFixture(t, 1)
	event := f.event(t, f.creator.ID, f.member.ID)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCoordinator(f.store, DefaultConfig(), WithClock(fixedClock(now)))

	out, err := c.Commit(context.Background(), event.ID, f.restaurants[0].ID, f.creator.ID)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, f.restaurants[0].ID, out.RestaurantID)
	assert.Equal(t, now.Unix(), out.DecidedAt)

	got, err := f.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, f.restaurants[0].ID, got.ChosenRestaurantID)

	last, ok, err := f.store.LastVisit(context.Background(), f.group.ID, f.restaurants[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, now.Unix(), last.Unix())
}

func TestCommit_SameRestaurantIsIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	event := f.event(t, f.creator.ID)
	c := NewCoordinator(f.store, DefaultConfig())
	ctx := context.Background()

	first, err := c.Commit(ctx, event.ID, f.restaurants[0].ID, f.creator.ID)
	require.NoError(t, err)
	second, err := c.Commit(ctx, event.ID, f.restaurants[0].ID, f.creator.ID)
	require.NoError(t, err)

	assert.True(t, first.Changed)
	assert.False(t, second.Changed)
	assert.Equal(t, first.DecidedAt, second.DecidedAt)

	visits, err := f.store.ListVisits(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestCommit_DifferentRestaurantConflicts(t *testing.T) {
	f := newFixture(t, 2)
	event := f.event(t, f.creator.ID)
	c := NewCoordinator(f.store, DefaultConfig())
	ctx := context.Background()

	_, err := c.Commit(ctx, event.ID, f.restaurants[0].ID, f.creator.ID)
	require.NoError(t, err)

	_, err = c.Commit(ctx, event.ID, f.restaurants[1].ID, f.creator.ID)
	assert.True(t, errs.Is(err, errs.Conflict), "got %v", err)

	got, err := f.store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, f.restaurants[0].ID, got.ChosenRestaurantID)

	visits, err := f.store.ListVisits(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestCommit_Rejections(t *testing.T) {
	f := newFixture(t, 1)
	withParticipants := f.event(t, f.creator.ID, f.member.ID)
	empty := f.event(t)
	c := NewCoordinator(f.store, DefaultConfig())

	tests := []struct {
		name         string
		eventID      string
		restaurantID string
		actorID      string
		want         errs.Kind
	}{
		{"non-creator", withParticipants.ID, f.restaurants[0].ID, f.member.ID, errs.Unauthorized},
		{"unknown event", "missing", f.restaurants[0].ID, f.creator.ID, errs.NotFound},
		{"unknown restaurant", withParticipants.ID, "missing", f.creator.ID, errs.NotFound},
		{"no participants", empty.ID, f.restaurants[0].ID, f.creator.ID, errs.InvalidInput},
		{"empty restaurant", withParticipants.ID, "", f.creator.ID, errs.InvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Commit(context.Background(), tt.eventID, tt.restaurantID, tt.actorID)
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err), "got %v", err)
		})
	}

	got, err := f.store.GetEvent(context.Background(), withParticipants.ID)
	require.NoError(t, err)
	assert.False(t, got.Decided())
}

func TestCommit_ConcurrentCommitsDecideOnce(t *testing.T) {
	const n = 8
	f := newFixture(t, n)
	event := f.event(t, f.creator.ID, f.member.ID)
	c := NewCoordinator(f.store, DefaultConfig())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		changed   []string
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(r *models.Restaurant) {
			defer wg.Done()
			out, err := c.Commit(context.Background(), event.ID, r.ID, f.creator.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && out.Changed:
				changed = append(changed, out.RestaurantID)
			case errs.Is(err, errs.Conflict):
				conflicts++
			default:
				t.Errorf("unexpected result: %+v, %v", out, err)
			}
		}(f.restaurants[i])
	}
	wg.Wait()

	require.Len(t, changed, 1)
	assert.Equal(t, n-1, conflicts)

	got, err := f.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, changed[0], got.ChosenRestaurantID)

	visits, err := f.store.ListVisits(context.Background(), f.group.ID)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestCommit_SeparateCoordinatorsDecideOnce(t *testing.T) {
	// Two coordinators share no in-process lock; only the database
	// transaction keeps them apart.
	f := newFixture(t, 2)
	event := f.event(t, f.creator.ID)
	a := NewCoordinator(f.store, DefaultConfig())
	b := NewCoordinator(f.store, DefaultConfig())

	var wg sync.WaitGroup
	results := make([]error, 2)
	outs := make([]Outcome, 2)
	for i, c := range []*Coordinator{a, b} {
		wg.Add(1)
		go func(i int, c *Coordinator) {
			defer wg.Done()
			outs[i], results[i] = c.Commit(context.Background(), event.ID, f.restaurants[i].ID, f.creator.ID)
		}(i, c)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		if err == nil {
			assert.True(t, outs[i].Changed)
			successes++
			continue
		}
		assert.True(t, errs.Is(err, errs.Conflict), "got %v", err)
	}
	assert.Equal(t, 1, successes)
}

func TestCommit_TimeoutWhileLocked(t *testing.T) {
	f := newFixture(t, 1)
	event := f.event(t, f.creator.ID)
	c := NewCoordinator(f.store, Config{Timeout: 30 * time.Millisecond})

	unlock, err := c.locks.Lock(context.Background(), event.ID)
	require.NoError(t, err)
	defer unlock()

	_, err = c.Commit(context.Background(), event.ID, f.restaurants[0].ID, f.creator.ID)
	assert.True(t, errs.Is(err, errs.Timeout), "got %v", err)

	got, err := f.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, got.Decided())
}

func TestCommit_CanceledWhileLockedIsNotTimeout(t *testing.T) {
	f := newFixture(t, 1)
	event := f.event(t, f.creator.ID)
	c := NewCoordinator(f.store, Config{Timeout: time.Minute})

	unlock, err := c.locks.Lock(context.Background(), event.ID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = c.Commit(ctx, event.ID, f.restaurants[0].ID, f.creator.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errs.Is(err, errs.Timeout), "got %v", err)
	assert.Equal(t, errs.Unknown, errs.KindOf(err))
}

func TestCommit_TimeoutWhileDatabaseLocked(t *testing.T) {
	f := newFixture(t, 1)
	event := f.event(t, f.creator.ID)

	// Another process holding the write lock.
	other, err := sqlite.New(f.path)
	require.NoError(t, err)
	defer other.Close()

	held := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan error, 1)
	go func() {
		holderDone <- other.WithEventTx(context.Background(), event.ID, func(tx storage.EventTx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	c := NewCoordinator(f.store, Config{Timeout: 200 * time.Millisecond})
	start := time.Now()
	_, err = c.Commit(context.Background(), event.ID, f.restaurants[0].ID, f.creator.ID)
	elapsed := time.Since(start)

	assert.True(t, errs.Is(err, errs.Timeout), "got %v", err)
	assert.Less(t, elapsed, 2*time.Second)

	close(release)
	require.NoError(t, <-holderDone)

	got, err := f.store.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, got.Decided())
}
