package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/ledger"
	"github.com/forkful/tasteledger/internal/taste"
)

// Ack acknowledges one feedback request. Recorded is always true;
// policy outcomes are satisfied requests, not failures. EventID,
// Action, Marker and Weight are set only when a new copy was written.
type Ack struct {
	Recorded          bool          `json:"recorded"`
	Duplicate         bool          `json:"duplicate"`
	Reason            ledger.Reason `json:"reason"`
	EventID           string        `json:"event_id,omitempty"`
	Action            event.Action  `json:"action,omitempty"`
	Marker            event.Marker  `json:"marker,omitempty"`
	Weight            float64       `json:"weight"`
	ScoreCacheUpdated bool          `json:"score_cache_updated"`
	PantryConsumed    int64         `json:"pantry_consumed"`
}

// Submit runs one feedback request through the full flow.
//
// Errors are reserved for rejected requests (unknown verb, unknown
// event) and storage failures. Duplicates and out-of-policy undos come
// back as successful acks with the ledger's reason.
func (s *Service) Submit(ctx context.Context, req event.FeedbackRequest) (Ack, error) {
	if !req.Action.IsClientVerb() {
		return Ack{}, NewUnknownActionError(string(req.Action))
	}

	original, err := s.storage.LoadOriginal(ctx, req.HouseholdKey, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ack{}, NewEventNotFoundError(req.EventID)
		}
		return Ack{}, fmt.Errorf("load original: %w", err)
	}

	copies, err := s.storage.LoadCopies(ctx, original.HouseholdKey, original.SubjectID, original.DecidedAt)
	if err != nil {
		return Ack{}, fmt.Errorf("load copies: %w", err)
	}

	now := s.now()
	res := ledger.ProcessFeedback(original, copies, req, now)
	if res.Reason != ledger.ReasonSuccess {
		slog.Debug("feedback not recorded as new copy",
			"event", req.EventID,
			"action", req.Action,
			"reason", res.Reason,
		)
		return Ack{Recorded: true, Duplicate: res.IsDuplicate, Reason: res.Reason}, nil
	}

	c := *res.FeedbackCopy
	inserted, err := s.storage.InsertCopy(ctx, c)
	if err != nil {
		return Ack{}, fmt.Errorf("insert copy: %w", err)
	}
	if !inserted {
		// A racing identical request won the insert. Same outcome as an
		// in-process duplicate.
		slog.Debug("feedback absorbed by storage backstop",
			"event", req.EventID,
			"action", c.Action,
		)
		return Ack{Recorded: true, Duplicate: true, Reason: ledger.ReasonDuplicate}, nil
	}

	ack := Ack{
		Recorded: true,
		Reason:   ledger.ReasonSuccess,
		EventID:  c.ID,
		Action:   c.Action,
		Marker:   c.Marker,
	}

	if ledger.ShouldUpdateTasteSignal(c.Action) {
		ack.Weight = taste.ComputeWeight(c)
	}

	if ledger.ShouldUpdateMealScoreCache(c) {
		if delta, ok := taste.ScoreCacheDelta(c, ack.Weight); ok {
			if err := s.storage.UpsertMealScore(ctx, c.HouseholdKey, c.SubjectMealID, delta, now); err != nil {
				return Ack{}, fmt.Errorf("upsert meal score: %w", err)
			}
			ack.ScoreCacheUpdated = true
		}
	}

	if ledger.ShouldRunConsumption(c.Action) {
		consumed, err := s.storage.ConsumeForMeal(ctx, c.HouseholdKey, c.SubjectMealID, now)
		if err != nil {
			return Ack{}, fmt.Errorf("consume pantry: %w", err)
		}
		ack.PantryConsumed = consumed
	}

	slog.Info("feedback recorded",
		"event", req.EventID,
		"copy", c.ID,
		"action", c.Action,
		"marker", c.Marker,
		"weight", ack.Weight,
		"cache_updated", ack.ScoreCacheUpdated,
	)

	return ack, nil
}

// SeedRequest describes an original decision event to mint. DecidedAt
// zero means now.
type SeedRequest struct {
	HouseholdKey  string
	SubjectID     string
	SubjectMealID string
	DecisionKind  string
	DecidedAt     time.Time
	Payload       map[string]string
}

// Seed mints and persists an original decision event: no action, no
// marker, a fresh id and a context fingerprint over its identity.
// Re-seeding the same id is a no-op at the storage layer.
func (s *Service) Seed(ctx context.Context, req SeedRequest) (event.DecisionEvent, error) {
	decidedAt := req.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = s.now()
	}

	e := event.DecisionEvent{
		ID:            event.NewID(),
		HouseholdKey:  req.HouseholdKey,
		SubjectID:     req.SubjectID,
		SubjectMealID: req.SubjectMealID,
		DecisionKind:  req.DecisionKind,
		DecidedAt:     decidedAt,
		Payload:       req.Payload,
	}
	e.ContextFingerprint = event.ContextFingerprint(e.HouseholdKey, e.SubjectID, e.DecidedAt, e.Payload)

	if err := s.storage.InsertOriginal(ctx, e); err != nil {
		return event.DecisionEvent{}, fmt.Errorf("seed original: %w", err)
	}

	slog.Info("original seeded",
		"event", e.ID,
		"household", e.HouseholdKey,
		"subject", e.SubjectID,
	)

	return e, nil
}
