package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/store"
)

// Mode selects how multi-record writes are issued.
type Mode string

const (
	// ModeAtomic runs every operation in one transaction under a
	// per-medicine lock with a versioned medicine update.
	ModeAtomic Mode = "atomic"
	// ModeLegacy issues writes one by one without a transaction and
	// keeps whatever succeeded when a later write fails.
	ModeLegacy Mode = "legacy"
)

const fallbackStaffName = "Authorized Staff"

// Invalidator is told whenever stock or sales change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Recorder receives ledger counters.
type Recorder interface {
	RestockRecorded()
	CheckoutRecorded(outcome string, units float64)
	ReversalRecorded()
}

type noopRecorder struct{}

func (noopRecorder) RestockRecorded()                 {}
func (noopRecorder) CheckoutRecorded(string, float64) {}
func (noopRecorder) ReversalRecorded()                {}

type Ledger struct {
	store       *store.Store
	mode        Mode
	locks       *keyedMutex
	invalidator Invalidator
	recorder    Recorder
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Ledger)

func WithMode(mode Mode) Option {
	return func(l *Ledger) { l.mode = mode }
}

func WithInvalidator(inv Invalidator) Option {
	return func(l *Ledger) { l.invalidator = inv }
}

func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithClock overrides the time source used for expiry checks and stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(s *store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: s,
		mode:  ModeAtomic,
		locks: newKeyedMutex(),
		log:   zap.NewNop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.recorder == nil {
		l.recorder = noopRecorder{}
	}
	return l
}

func (l *Ledger) Mode() Mode {
	return l.mode
}

// run executes fn with the write discipline of the configured mode.
func (l *Ledger) run(ctx context.Context, medicineID string, fn func(s *store.Store) error) error {
	if l.mode == ModeLegacy {
		return fn(l.store)
	}
	unlock := l.locks.Lock(medicineID)
	defer unlock()
	err := l.store.WithinTx(ctx, fn)
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
	}
	return err
}

func (l *Ledger) changed(ctx context.Context) {
	if l.invalidator == nil {
		return
	}
	if err := l.invalidator.Invalidate(ctx); err != nil {
		l.log.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func (l *Ledger) timestamp() time.Time {
	return l.now().UTC()
}

type actorKey struct{}

// WithActor attaches the verified caller to ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// attribution names who performed a change: the verified caller first,
// then the name the client supplied.
func attribution(ctx context.Context, supplied string) (id, name string) {
	if actor, ok := ActorFromContext(ctx); ok {
		switch {
		case actor.Name != "":
			return actor.ID, actor.Name
		case actor.Username != "":
			return actor.ID, actor.Username
		}
	}
	if supplied != "" {
		return "", supplied
	}
	return "", fallbackStaffName
}
