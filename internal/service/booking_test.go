package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/queue"
	"github.com/iliyamo/studio-booking/internal/repository"
)

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Infof(string, ...interface{}) {}
func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *fakePublisher) PublishBookingEvent(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type countingBeginner struct {
	TxBeginner
	calls int
	err   error
}

func (b *countingBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.TxBeginner.BeginTx(ctx, opts)
}

// faultyLedger runs the real ledger operation and then fails, so any
// mutation it made must be rolled back by the service.
type faultyLedger struct {
	Ledger
	err   error
	delay time.Duration
}

func (f faultyLedger) ReserveTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error) {
	code, err := f.Ledger.ReserveTx(ctx, tx, userID, classID)
	return f.after(ctx, code, err)
}

func (f faultyLedger) ReleaseTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error) {
	code, err := f.Ledger.ReleaseTx(ctx, tx, userID, classID)
	return f.after(ctx, code, err)
}

func (f faultyLedger) after(ctx context.Context, code model.BookingCode, err error) (model.BookingCode, error) {
	if err != nil {
		return code, err
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return code, nil
}

type fixture struct {
	db      *database.DB
	ledger  *repository.ClassLedger
	log     *recordingLogger
	pub     *fakePublisher
	classID uint64
	users   []uint64
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	f := &fixture{db: db, ledger: repository.NewClassLedger(db), log: &recordingLogger{}, pub: &fakePublisher{}}
	f.classID, err = db.Dialect.InsertID(ctx, db,
		`INSERT INTO classes (date, start_time, end_time, location, capacity, seats_available) VALUES (?, ?, ?, ?, ?, ?)`,
		"class_id", "2030-01-02", "18:00", "19:00", "Studio A", capacity, capacity)
	require.NoError(t, err)
	for _, name := range []string{"ana", "bojan", "ciro", "dora"} {
		id, err := db.Dialect.InsertID(ctx, db,
			`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`, "user_id",
			name, name+"@example.com", "x")
		require.NoError(t, err)
		f.users = append(f.users, id)
	}
	return f
}

func (f *fixture) service(t *testing.T, mutate func(*BookingConfig)) *BookingService {
	t.Helper()
	cfg := &BookingConfig{DB: f.db, Ledger: f.ledger, Publisher: f.pub, Logger: f.log, TxTimeout: time.Second}
	if mutate != nil {
		mutate(cfg)
	}
	svc, err := NewBookingService(cfg)
	require.NoError(t, err)
	return svc
}

func (f *fixture) user(i int) Identity { return Identity{UserID: f.users[i], Role: model.RoleUser} }

type state struct {
	Seats    int
	Bookings []uint64
}

func (f *fixture) state(t *testing.T) state {
	t.Helper()
	c, err := f.ledger.Get(context.Background(), f.classID)
	require.NoError(t, err)
	ids, err := f.ledger.ActiveBookings(context.Background(), f.classID)
	require.NoError(t, err)
	return state{Seats: c.SeatsAvailable, Bookings: ids}
}

func TestNewBookingServiceValidates(t *testing.T) {
	_, err := NewBookingService(nil)
	assert.Error(t, err)
	_, err = NewBookingService(&BookingConfig{Ledger: faultyLedger{}})
	assert.Error(t, err)
	_, err = NewBookingService(&BookingConfig{DB: &countingBeginner{}})
	assert.Error(t, err)
}

func TestBookAndCancelScenario(t *testing.T) {
	f := newFixture(t, 2)
	svc := f.service(t, nil)
	ctx := context.Background()
	a, b, d := f.user(0), f.user(1), f.user(3)

	assert.Equal(t, Result{Success: true, Code: model.CodeOK}, svc.BookClass(ctx, a, f.classID))
	assert.Equal(t, Result{Success: true, Code: model.CodeOK}, svc.BookClass(ctx, b, f.classID))
	assert.Equal(t, Result{Code: model.CodeClassFull}, svc.BookClass(ctx, d, f.classID))
	assert.Equal(t, Result{Code: model.CodeAlreadyBooked}, svc.BookClass(ctx, a, f.classID))
	assert.Equal(t, Result{Success: true}, svc.CancelBooking(ctx, a, f.classID))
	assert.Equal(t, Result{Code: model.CodeNotBooked}, svc.CancelBooking(ctx, a, f.classID))
	assert.Equal(t, Result{Success: true, Code: model.CodeOK}, svc.BookClass(ctx, d, f.classID))
	assert.Equal(t, Result{Code: model.CodeClassNotFound}, svc.BookClass(ctx, d, 9999))
	assert.Equal(t, Result{Code: model.CodeClassNotFound}, svc.CancelBooking(ctx, d, 9999))

	assert.Equal(t, state{Seats: 0, Bookings: []uint64{b.UserID, d.UserID}}, f.state(t))
	assert.Empty(t, f.log.errors, "business rejections are not faults")

	require.Len(t, f.pub.events, 4)
	assert.Equal(t, queue.EventBookingConfirmed, f.pub.events[0].Type)
	assert.Equal(t, queue.EventBookingCancelled, f.pub.events[2].Type)
	assert.Equal(t, a.UserID, f.pub.events[2].UserID)
	assert.Equal(t, f.classID, f.pub.events[2].ClassID)
}

func TestUnauthenticatedNeverOpensTx(t *testing.T) {
	f := newFixture(t, 2)
	beginner := &countingBeginner{TxBeginner: f.db}
	svc := f.service(t, func(c *BookingConfig) { c.DB = beginner })
	ctx := context.Background()

	for _, id := range []Identity{
		{},
		{UserID: f.users[0]},
		{UserID: f.users[0], Role: model.RoleInstructor},
		{Role: model.RoleUser},
	} {
		assert.Equal(t, Result{Code: model.CodeUnauthenticated}, svc.BookClass(ctx, id, f.classID))
		assert.Equal(t, Result{Code: model.CodeUnauthenticated}, svc.CancelBooking(ctx, id, f.classID))
	}
	assert.Zero(t, beginner.calls)
	assert.Equal(t, state{Seats: 2, Bookings: []uint64{}}, f.state(t))
}

func TestFaultsRollBackAndReportTransient(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name   string
		mutate func(f *fixture, c *BookingConfig)
	}{
		{"begin fails", func(f *fixture, c *BookingConfig) {
			c.DB = &countingBeginner{TxBeginner: f.db, err: boom}
		}},
		{"ledger fails after mutating", func(f *fixture, c *BookingConfig) {
			c.Ledger = faultyLedger{Ledger: f.ledger, err: boom}
		}},
		{"timeout before commit", func(f *fixture, c *BookingConfig) {
			c.TxTimeout = 50 * time.Millisecond
			c.Ledger = faultyLedger{Ledger: f.ledger, delay: 200 * time.Millisecond}
		}},
		{"deadlock from driver", func(f *fixture, c *BookingConfig) {
			c.Ledger = faultyLedger{Ledger: f.ledger, err: fmt.Errorf("insert booking: %w", context.DeadlineExceeded)}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 2)
			ctx := context.Background()
			// one committed booking to cancel
			require.True(t, f.service(t, nil).BookClass(ctx, f.user(1), f.classID).Success)
			f.pub.events = nil
			before := f.state(t)

			svc := f.service(t, func(c *BookingConfig) { tc.mutate(f, c) })
			assert.Equal(t, Result{Code: model.CodeTransientFailure}, svc.BookClass(ctx, f.user(0), f.classID))
			assert.Equal(t, Result{Code: model.CodeTransientFailure}, svc.CancelBooking(ctx, f.user(1), f.classID))

			assert.Equal(t, before, f.state(t), "a fault must leave no trace")
			assert.Empty(t, f.pub.events, "nothing is published for a failed request")
			assert.Len(t, f.log.errors, 2)
			assert.True(t, model.CodeTransientFailure.Retryable())
		})
	}
}

func TestClosedDatabaseIsTransient(t *testing.T) {
	f := newFixture(t, 2)
	svc := f.service(t, nil)
	require.NoError(t, f.db.Close())

	assert.Equal(t, Result{Code: model.CodeTransientFailure}, svc.BookClass(context.Background(), f.user(0), f.classID))
	require.Len(t, f.log.errors, 1)
	assert.Contains(t, f.log.errors[0], "book begin failed")
}

func TestPublishFailureDoesNotChangeOutcome(t *testing.T) {
	f := newFixture(t, 2)
	f.pub.err = errors.New("broker down")
	svc := f.service(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Equal(t, Result{Success: true, Code: model.CodeOK}, svc.BookClass(ctx, f.user(0), f.classID))
	assert.Equal(t, 1, f.state(t).Seats)
	assert.Len(t, f.log.warns, 1)
	assert.Empty(t, f.log.errors)

	noPub := f.service(t, func(c *BookingConfig) { c.Publisher = nil })
	assert.Equal(t, Result{Success: true}, noPub.CancelBooking(ctx, f.user(0), f.classID))
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := newFixture(t, 2)
		svc := f.service(t, nil)

		var wg sync.WaitGroup
		results := make([]Result, 3)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = svc.BookClass(context.Background(), f.user(i), f.classID)
			}(i)
		}
		wg.Wait()

		counts := map[model.BookingCode]int{}
		for _, r := range results {
			counts[r.Code]++
		}
		require.Equal(t, 2, counts[model.CodeOK], "run %d: %v", run, results)
		require.Equal(t, 1, counts[model.CodeClassFull], "run %d: %v", run, results)
		require.Equal(t, 0, f.state(t).Seats)
	}
}
