// Package secure produces and verifies signed price snapshots so a
// previously computed price can be trusted later without recomputation.
package secure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxAge is the validity window of a signature. Older snapshots are
// treated as invalid and the caller falls back to full recomputation.
const MaxAge = 24 * time.Hour

var (
	// ErrInvalidSignature means the snapshot no longer matches its
	// signature (tampered or signed with a different secret).
	ErrInvalidSignature = errors.New("secure: signature mismatch")

	// ErrStale means the signature is older than MaxAge.
	ErrStale = errors.New("secure: signature expired")
)

// Fingerprint is a compact summary of the inputs that produced a price,
// used to detect tampering.
type Fingerprint struct {
	ServiceType     string  `json:"service_type"`
	Workers         int     `json:"workers"`
	DurationHours   float64 `json:"duration_hours"`
	DistanceKm      float64 `json:"distance_km"`
	ConstraintCount int     `json:"constraint_count"`
	ServiceCount    int     `json:"service_count"`
}

// SecuredPrice is an immutable signed snapshot of computed prices.
type SecuredPrice struct {
	CalculationID uuid.UUID          `json:"calculation_id"`
	Timestamp     time.Time          `json:"timestamp"`
	Prices        map[string]float64 `json:"prices"`
	Fingerprint   Fingerprint        `json:"fingerprint"`
	Signature     string             `json:"signature"`
}

// Signer signs and verifies price snapshots with a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer. The secret must be shared by every
// process that verifies.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign creates a signed snapshot of the given scenario prices.
func (s *Signer) Sign(prices map[string]float64, fp Fingerprint) SecuredPrice {
	sp := SecuredPrice{
		CalculationID: uuid.New(),
		Timestamp:     time.Now().UTC(),
		Prices:        prices,
		Fingerprint:   fp,
	}
	sp.Signature = s.sign(sp)
	return sp
}

// Verify recomputes the signature over the snapshot's canonical form,
// compares in constant time and rejects snapshots older than MaxAge.
func (s *Signer) Verify(sp SecuredPrice) error {
	expected := s.sign(sp)
	if !hmac.Equal([]byte(expected), []byte(sp.Signature)) {
		return ErrInvalidSignature
	}
	if time.Since(sp.Timestamp) > MaxAge {
		return ErrStale
	}
	return nil
}

// sign serializes the snapshot canonically (key-sorted JSON, signature
// excluded) and returns the hex HMAC-SHA256.
func (s *Signer) sign(sp SecuredPrice) string {
	payload := map[string]any{
		"calculation_id": sp.CalculationID.String(),
		"timestamp":      sp.Timestamp.Unix(),
		"prices":         sp.Prices,
		"fingerprint": map[string]any{
			"service_type":     sp.Fingerprint.ServiceType,
			"workers":          sp.Fingerprint.Workers,
			"duration_hours":   sp.Fingerprint.DurationHours,
			"distance_km":      sp.Fingerprint.DistanceKm,
			"constraint_count": sp.Fingerprint.ConstraintCount,
			"service_count":    sp.Fingerprint.ServiceCount,
		},
	}
	// encoding/json marshals map keys in sorted order, which gives the
	// canonical form both sides agree on.
	canonical, _ := json.Marshal(payload)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}
