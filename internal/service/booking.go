// Package service holds the request-independent business flows that span
// more than one repository call.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/queue"
)

const (
	defaultTxTimeout      = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// Ledger is the capacity ledger as the booking service uses it.
type Ledger interface {
	ReserveTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error)
	ReleaseTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error)
}

// TxBeginner opens transactions.  *sql.DB and *database.DB satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// EventPublisher receives booking events after commit.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Logger is the subset of github.com/labstack/gommon/log the service uses.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Identity is who a request claims to act for, as established by the
// access token.
type Identity struct {
	UserID uint64
	Role   string
}

// Resolved reports whether the identity names a student account.
func (id Identity) Resolved() bool {
	return id.UserID > 0 && id.Role == model.RoleUser
}

// Result is the outcome of a booking or cancellation request.
type Result struct {
	Success bool              `json:"success"`
	Code    model.BookingCode `json:"code,omitempty"`
}

// BookingConfig wires a BookingService.
type BookingConfig struct {
	DB        TxBeginner
	Ledger    Ledger
	Publisher EventPublisher // optional
	Logger    Logger         // optional
	TxTimeout time.Duration  // upper bound for one booking transaction
	Now       func() time.Time
}

// BookingService runs every booking and cancellation as exactly one
// storage transaction around one ledger call.  It commits only on OK and
// maps every storage fault to TRANSIENT_FAILURE after rolling back.
type BookingService struct {
	db        TxBeginner
	ledger    Ledger
	publisher EventPublisher
	log       Logger
	txTimeout time.Duration
	now       func() time.Time
}

// NewBookingService validates cfg and returns a BookingService.
func NewBookingService(cfg *BookingConfig) (*BookingService, error) {
	if cfg == nil {
		return nil, errors.New("booking config is required")
	}
	if cfg.DB == nil {
		return nil, errors.New("booking config: DB is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("booking config: Ledger is required")
	}
	s := &BookingService{
		db:        cfg.DB,
		ledger:    cfg.Ledger,
		publisher: cfg.Publisher,
		log:       cfg.Logger,
		txTimeout: cfg.TxTimeout,
		now:       cfg.Now,
	}
	if s.log == nil {
		s.log = glog.New("booking")
	}
	if s.txTimeout <= 0 {
		s.txTimeout = defaultTxTimeout
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

// BookClass reserves one seat in classID for the caller.
func (s *BookingService) BookClass(ctx context.Context, id Identity, classID uint64) Result {
	res := s.run(ctx, id, classID, "book", s.ledger.ReserveTx)
	if res.Success {
		s.publish(ctx, queue.EventBookingConfirmed, id.UserID, classID)
	}
	return res
}

// CancelBooking releases the caller's seat in classID.  A successful
// cancellation carries no code.
func (s *BookingService) CancelBooking(ctx context.Context, id Identity, classID uint64) Result {
	res := s.run(ctx, id, classID, "cancel", s.ledger.ReleaseTx)
	if res.Success {
		s.publish(ctx, queue.EventBookingCancelled, id.UserID, classID)
		return Result{Success: true}
	}
	return res
}

type ledgerOp func(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error)

func (s *BookingService) run(ctx context.Context, id Identity, classID uint64, op string, fn ledgerOp) Result {
	if !id.Resolved() {
		return Result{Code: model.CodeUnauthenticated}
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fault(op, "begin", id, classID, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	code, err := fn(ctx, tx, id.UserID, classID)
	if err != nil {
		return s.fault(op, "ledger", id, classID, err)
	}
	if code != model.CodeOK {
		// business rejection; the deferred rollback discards the tx
		return Result{Code: code}
	}
	if err := tx.Commit(); err != nil {
		return s.fault(op, "commit", id, classID, err)
	}
	committed = true
	return Result{Success: true, Code: model.CodeOK}
}

func (s *BookingService) fault(op, stage string, id Identity, classID uint64, err error) Result {
	s.log.Errorf("booking: %s %s failed user=%d class=%d transient=%t: %v",
		op, stage, id.UserID, classID, database.IsTransient(err), err)
	return Result{Code: model.CodeTransientFailure}
}

// publish hands the event to the publisher without letting a broker
// failure or a cancelled request change the already committed outcome.
func (s *BookingService) publish(ctx context.Context, typ string, userID, classID uint64) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()
	ev := queue.BookingEvent{Type: typ, UserID: userID, ClassID: classID, OccurredAt: s.now()}
	if err := s.publisher.PublishBookingEvent(ctx, ev); err != nil {
		s.log.Warnf("booking: publish %s user=%d class=%d: %v", typ, userID, classID, err)
	}
}
