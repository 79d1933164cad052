package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

type ClassLedgerTestSuite struct {
	suite.Suite
	db     *database.DB
	ledger *ClassLedger
	ctx    context.Context

	classID             uint64
	ana, bojan, ciro, d uint64
}

func (s *ClassLedgerTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.ledger = NewClassLedger(s.db)
	s.ctx = context.Background()

	s.classID = insertClass(s.T(), s.db, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), "18:00", 2)
	s.ana = insertUser(s.T(), s.db, "ana")
	s.bojan = insertUser(s.T(), s.db, "bojan")
	s.ciro = insertUser(s.T(), s.db, "ciro")
	s.d = insertUser(s.T(), s.db, "dora")
}

func TestClassLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(ClassLedgerTestSuite))
}

// inTx runs fn in a transaction, committing on OK and rolling back on any
// other outcome, the same way the booking service drives the ledger.
func (s *ClassLedgerTestSuite) inTx(fn func(tx *sql.Tx) (model.BookingCode, error)) model.BookingCode {
	tx, err := s.db.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	code, err := fn(tx)
	s.Require().NoError(err)
	if code == model.CodeOK {
		s.Require().NoError(tx.Commit())
	} else {
		s.Require().NoError(tx.Rollback())
	}
	return code
}

func (s *ClassLedgerTestSuite) reserve(userID, classID uint64) model.BookingCode {
	return s.inTx(func(tx *sql.Tx) (model.BookingCode, error) {
		return s.ledger.ReserveTx(s.ctx, tx, userID, classID)
	})
}

func (s *ClassLedgerTestSuite) release(userID, classID uint64) model.BookingCode {
	return s.inTx(func(tx *sql.Tx) (model.BookingCode, error) {
		return s.ledger.ReleaseTx(s.ctx, tx, userID, classID)
	})
}

type ledgerSnapshot struct {
	Capacity, Seats int
	Bookings        []uint64
	BookedAt        map[uint64]string
}

func (s *ClassLedgerTestSuite) snapshot(classID uint64) ledgerSnapshot {
	c, err := s.ledger.Get(s.ctx, classID)
	s.Require().NoError(err)
	ids, err := s.ledger.ActiveBookings(s.ctx, classID)
	s.Require().NoError(err)

	at := map[uint64]string{}
	rows, err := s.db.QueryContext(s.ctx, `SELECT user_id, booked_at FROM class_bookings WHERE class_id = ?`, classID)
	s.Require().NoError(err)
	defer rows.Close()
	for rows.Next() {
		var (
			id uint64
			ts time.Time
		)
		s.Require().NoError(rows.Scan(&id, &ts))
		at[id] = ts.Format(time.RFC3339Nano)
	}
	s.Require().NoError(rows.Err())
	return ledgerSnapshot{Capacity: c.Capacity, Seats: c.SeatsAvailable, Bookings: ids, BookedAt: at}
}

func (s *ClassLedgerTestSuite) assertInvariant(classID uint64) {
	snap := s.snapshot(classID)
	s.Equal(snap.Capacity-len(snap.Bookings), snap.Seats, "seats_available = capacity - bookings")
	s.GreaterOrEqual(snap.Seats, 0)
	s.LessOrEqual(snap.Seats, snap.Capacity)
}

func (s *ClassLedgerTestSuite) TestCapacityTwoScenario() {
	// GIVEN: capacity 2, no bookings
	// WHEN: A and B book, D tries, A cancels, D tries again
	s.Equal(model.CodeOK, s.reserve(s.ana, s.classID))
	s.Equal(model.CodeOK, s.reserve(s.bojan, s.classID))
	s.Equal(model.CodeClassFull, s.reserve(s.d, s.classID))
	s.Equal(model.CodeOK, s.release(s.ana, s.classID))
	s.Equal(model.CodeOK, s.reserve(s.d, s.classID))

	// THEN: class is full again with B and D holding seats
	snap := s.snapshot(s.classID)
	s.Equal(0, snap.Seats)
	s.ElementsMatch([]uint64{s.bojan, s.d}, snap.Bookings)
	s.assertInvariant(s.classID)
}

func (s *ClassLedgerTestSuite) TestIdempotentRejection() {
	s.Require().Equal(model.CodeOK, s.reserve(s.ana, s.classID))
	before := s.snapshot(s.classID)

	for i := 0; i < 3; i++ {
		s.Equal(model.CodeAlreadyBooked, s.reserve(s.ana, s.classID))
	}
	s.Equal(before, s.snapshot(s.classID))

	s.Require().Equal(model.CodeOK, s.release(s.ana, s.classID))
	for i := 0; i < 3; i++ {
		s.Equal(model.CodeNotBooked, s.release(s.ana, s.classID))
	}
	s.assertInvariant(s.classID)
}

func (s *ClassLedgerTestSuite) TestAlreadyBookedWinsOverFull() {
	s.Require().Equal(model.CodeOK, s.reserve(s.ana, s.classID))
	s.Require().Equal(model.CodeOK, s.reserve(s.bojan, s.classID))
	s.Equal(model.CodeAlreadyBooked, s.reserve(s.ana, s.classID), "a booked student hears ALREADY_BOOKED even when the class is full")
	s.Equal(model.CodeClassFull, s.reserve(s.ciro, s.classID))
}

func (s *ClassLedgerTestSuite) TestUnknownClass() {
	s.Equal(model.CodeClassNotFound, s.reserve(s.ana, 9999))
	s.Equal(model.CodeClassNotFound, s.release(s.ana, 9999))

	_, err := s.ledger.Get(s.ctx, 9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ClassLedgerTestSuite) TestReleaseSymmetry() {
	before := s.snapshot(s.classID)
	s.Require().Equal(model.CodeOK, s.reserve(s.ciro, s.classID))
	s.Require().Equal(model.CodeOK, s.release(s.ciro, s.classID))
	after := s.snapshot(s.classID)
	s.Equal(before.Seats, after.Seats)
	s.Equal(before.Bookings, after.Bookings)
}

func (s *ClassLedgerTestSuite) TestRejectionIsNoOp() {
	s.Require().Equal(model.CodeOK, s.reserve(s.ana, s.classID))
	s.Require().Equal(model.CodeOK, s.reserve(s.bojan, s.classID))
	before := s.snapshot(s.classID)

	s.Equal(model.CodeClassFull, s.reserve(s.ciro, s.classID))
	s.Equal(model.CodeAlreadyBooked, s.reserve(s.bojan, s.classID))
	s.Equal(model.CodeNotBooked, s.release(s.ciro, s.classID))

	s.Equal(before, s.snapshot(s.classID), "row and booking set must be byte-identical")
}

func (s *ClassLedgerTestSuite) TestReleaseNeverExceedsCapacity() {
	// A booking row without a matching decrement must not push seats past capacity.
	_, err := s.db.ExecContext(s.ctx,
		`INSERT INTO class_bookings (user_id, class_id, booked_at) VALUES (?, ?, ?)`, s.ana, s.classID, time.Now().UTC())
	s.Require().NoError(err)

	s.Equal(model.CodeOK, s.release(s.ana, s.classID))
	snap := s.snapshot(s.classID)
	s.Equal(2, snap.Seats)
	s.Empty(snap.Bookings)
}

func (s *ClassLedgerTestSuite) TestClassesAreIndependent() {
	other := insertClass(s.T(), s.db, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), "20:00", 1)
	s.Equal(model.CodeOK, s.reserve(s.ana, other))
	s.Equal(model.CodeOK, s.reserve(s.ana, s.classID))
	s.Equal(model.CodeClassFull, s.reserve(s.bojan, other))

	s.Equal(1, s.snapshot(s.classID).Seats)
	s.Equal(0, s.snapshot(other).Seats)
}

func (s *ClassLedgerTestSuite) TestNoLostUpdate() {
	for run := 0; run < 20; run++ {
		classID := insertClass(s.T(), s.db, time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC), "07:00", 2)
		users := []uint64{s.ana, s.bojan, s.ciro}

		var wg sync.WaitGroup
		codes := make([]model.BookingCode, len(users))
		errs := make([]error, len(users))
		for i, u := range users {
			wg.Add(1)
			go func(i int, u uint64) {
				defer wg.Done()
				tx, err := s.db.BeginTx(s.ctx, nil)
				if err != nil {
					errs[i] = err
					return
				}
				code, err := s.ledger.ReserveTx(s.ctx, tx, u, classID)
				if err != nil || code != model.CodeOK {
					_ = tx.Rollback()
					codes[i], errs[i] = code, err
					return
				}
				codes[i], errs[i] = code, tx.Commit()
			}(i, u)
		}
		wg.Wait()

		counts := map[model.BookingCode]int{}
		for i := range users {
			s.Require().NoError(errs[i])
			counts[codes[i]]++
		}
		s.Equal(2, counts[model.CodeOK], "run %d", run)
		s.Equal(1, counts[model.CodeClassFull], "run %d", run)
		s.Equal(0, s.snapshot(classID).Seats)
		s.assertInvariant(classID)
	}
}
