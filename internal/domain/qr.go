package domain

import "time"

// ─── QR Payload ─────────────────────────────────────────────────────────────
// A QR payload is ephemeral: generated by the issuing routine, consumed once
// by the validator, never persisted. Three wire shapes are accepted, tried
// in a fixed order: sealed (AES-GCM over the structured form), structured
// (plain JSON), and a bare user identifier.

// QRSource tags which wire shape a payload was decoded from.
type QRSource string

const (
	QRSourceSealed     QRSource = "sealed"
	QRSourceStructured QRSource = "structured"
	QRSourceBareID     QRSource = "bare_id"
)

// QRVersion is the current payload format version.
const QRVersion = "1"

// QRPayload is the decoded, normalized payload.
//
// IssuedAt is synthetic (decode time) for bare-identifier payloads and zero
// for structured payloads that omit it; zero skips the freshness check.
// Signature is empty for unsigned payloads, which skip the signature check.
type QRPayload struct {
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at,omitzero"`
	Version   string    `json:"version,omitempty"`
	Signature string    `json:"signature,omitempty"`
	Source    QRSource  `json:"source"`
}

// Signed reports whether the payload carries a signature to verify.
func (p QRPayload) Signed() bool { return p.Signature != "" }

// HasTimestamp reports whether the payload is subject to the freshness check.
func (p QRPayload) HasTimestamp() bool { return !p.IssuedAt.IsZero() }
