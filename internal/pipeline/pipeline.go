package pipeline

import (
	"context"
	"time"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/taste"
)

// Storage is the persistence port the pipeline drives. Implemented by
// the sqlite store; the ledger itself never sees it.
type Storage interface {
	// LoadOriginal fetches one event by tenant and id.
	// Returns sql.ErrNoRows if not found.
	LoadOriginal(ctx context.Context, householdKey, id string) (event.DecisionEvent, error)

	// LoadCopies returns every feedback copy sharing the original's
	// identity triple, in deterministic order.
	LoadCopies(ctx context.Context, householdKey, subjectID string, decidedAt time.Time) ([]event.DecisionEvent, error)

	// InsertOriginal appends an original decision event, idempotently.
	InsertOriginal(ctx context.Context, e event.DecisionEvent) error

	// InsertCopy appends a feedback copy and reports whether a new row
	// was actually written (false means a racing duplicate absorbed it).
	InsertCopy(ctx context.Context, c event.DecisionEvent) (bool, error)

	// UpsertMealScore applies one increment to the per-meal cache row.
	UpsertMealScore(ctx context.Context, householdKey, mealID string, delta taste.ScoreDelta, at time.Time) error

	// ConsumeForMeal decrements stock for the meal's pantry items and
	// reports how many items were consumed.
	ConsumeForMeal(ctx context.Context, householdKey, mealID string, at time.Time) (int64, error)
}

// Service runs the feedback flow against a storage port.
type Service struct {
	storage Storage
	now     func() time.Time
}

// Option allows configuration of service parameters.
type Option func(*Service)

// WithClock overrides the wall clock. Tests and the conformance
// harness inject a fixed clock here; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service over the given storage port.
func New(storage Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
