package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Domain prefixes for hashed identities. The version suffix enables future
// algorithm migration without colliding with old keys.
const (
	domainContext     = "tasteledger/context/v1"
	domainIdempotency = "tasteledger/idempotency/v1"
)

// NewID returns a random row id. Random rather than content-addressed:
// concurrent feedback copies for the same original must never collide on id,
// and duplicate suppression is the idempotency key's job, not the id's.
func NewID() string {
	return uuid.NewString()
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// mustCanonical marshals a closed, known-good shape to canonical JSON.
// The shapes passed here are built from strings and int64s only, so a
// marshal failure is a programmer error, not a runtime condition.
func mustCanonical(obj map[string]any) []byte {
	data, err := MarshalCanonical(obj)
	if err != nil {
		panic(fmt.Sprintf("event: canonical marshal of fixed shape failed: %v", err))
	}
	return data
}

// ContextFingerprint computes the opaque correlation hash stamped on an
// original when it is minted. Copies carry it verbatim; nothing in this
// core ever parses it back.
func ContextFingerprint(householdKey, subjectID string, decidedAt time.Time, payload map[string]string) string {
	p := make(map[string]any, len(payload))
	for k, v := range payload {
		p[k] = v
	}
	obj := map[string]any{
		"household_key": householdKey,
		"subject_id":    subjectID,
		"decided_at":    decidedAt.UTC().Format(time.RFC3339Nano),
		"payload":       p,
	}
	return hashWithDomain(domainContext, mustCanonical(obj))
}

// CopyIdempotencyKey computes the duplicate-race backstop key for a feedback
// copy. ActionedAt is bucketed into window-sized slots, so two racing
// identical requests land in the same bucket, produce the same key, and
// collide on the store's UNIQUE(household_key, idempotency_key) index. The
// in-process duplicate check remains the fast path; this key only has to
// stop the race the check cannot see.
func CopyIdempotencyKey(c DecisionEvent, window time.Duration) string {
	var bucket int64
	if c.ActionedAt != nil {
		bucket = c.ActionedAt.Unix() / int64(window/time.Second)
	}
	obj := map[string]any{
		"household_key": c.HouseholdKey,
		"subject_id":    c.SubjectID,
		"decided_at":    c.DecidedAt.UTC().Format(time.RFC3339Nano),
		"action":        string(c.Action),
		"marker":        string(c.Marker),
		"bucket":        bucket,
	}
	return hashWithDomain(domainIdempotency, mustCanonical(obj))
}
