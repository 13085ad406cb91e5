package validator

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/e-serbisyo/engage/internal/domain"
)

// ─── QR Codec ───────────────────────────────────────────────────────────────
// Three payload shapes are accepted, tried in a fixed order:
//
//	(a) sealed  — base64 AES-256-GCM ciphertext over the structured JSON
//	(b) structured — plain JSON with user_id / issued_at / version / signature
//	(c) bare identifier — wrapped with a synthetic current timestamp, unsigned
//
// The signature covers the non-signature fields in deterministic canonical
// order: field names sorted lexicographically, joined as key=value pairs
// with "&", HMAC-SHA256 under the shared signing key, hex encoded.

// Codec issues and decodes QR payloads.
type Codec struct {
	signingKey []byte
	sealKey    []byte // 32 bytes for AES-256-GCM; nil disables sealing
	now        func() time.Time
}

// NewCodec creates a codec. sealKey may be nil, in which case IssueSealed is
// unavailable and sealed payloads cannot be decoded.
func NewCodec(signingKey, sealKey []byte) *Codec {
	return &Codec{
		signingKey: signingKey,
		sealKey:    sealKey,
		now:        time.Now,
	}
}

// wirePayload is the structured JSON wire form.
type wirePayload struct {
	UserID    string `json:"user_id"`
	IssuedAt  int64  `json:"issued_at,omitempty"` // Unix seconds
	Version   string `json:"version,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Issue produces the signed structured payload for a user.
func (c *Codec) Issue(userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrMissingUserID
	}
	p := wirePayload{
		UserID:   userID,
		IssuedAt: c.now().Unix(),
		Version:  domain.QRVersion,
	}
	p.Signature = c.sign(p)
	out, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(out), nil
}

// IssueSealed produces the signed payload sealed with AES-256-GCM and
// base64-encoded for embedding in a QR image.
func (c *Codec) IssueSealed(userID string) (string, error) {
	if len(c.sealKey) == 0 {
		return "", fmt.Errorf("sealing key not configured")
	}
	plain, err := c.Issue(userID)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.sealKey)
	if err != nil {
		return "", fmt.Errorf("seal cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("seal gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode normalizes a raw payload into a domain.QRPayload, trying the three
// shapes in order. Shape (c) accepts any non-empty string as a bare
// identifier, wrapped with a synthetic current timestamp and no signature.
func (c *Codec) Decode(raw string) (domain.QRPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.QRPayload{}, domain.ErrInvalidQRFormat
	}

	// (a) sealed blob
	if plain, ok := c.unseal(raw); ok {
		if p, ok := parseStructured(plain); ok {
			p.Source = domain.QRSourceSealed
			return p, nil
		}
		// Decrypted cleanly but the plaintext is not our structure.
		return domain.QRPayload{}, domain.ErrInvalidQRFormat
	}

	// (b) plain structured JSON
	if p, ok := parseStructured(raw); ok {
		p.Source = domain.QRSourceStructured
		return p, nil
	}

	// (c) bare identifier — wrapped with a synthetic timestamp, unsigned
	return domain.QRPayload{
		UserID:   raw,
		IssuedAt: c.now().UTC(),
		Source:   domain.QRSourceBareID,
	}, nil
}

// Verify recomputes the signature over the payload's non-signature fields
// and compares in constant time.
func (c *Codec) Verify(p domain.QRPayload) bool {
	w := wirePayload{
		UserID:  p.UserID,
		Version: p.Version,
	}
	if p.HasTimestamp() {
		w.IssuedAt = p.IssuedAt.Unix()
	}
	expected := c.sign(w)
	return hmac.Equal([]byte(expected), []byte(p.Signature))
}

// ─── Internals ──────────────────────────────────────────────────────────────

// sign computes the HMAC over the canonical field string.
func (c *Codec) sign(p wirePayload) string {
	fields := map[string]string{
		"user_id": p.UserID,
	}
	if p.IssuedAt != 0 {
		fields["issued_at"] = strconv.FormatInt(p.IssuedAt, 10)
	}
	if p.Version != "" {
		fields["version"] = p.Version
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	mac := hmac.New(sha256.New, c.signingKey)
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Codec) unseal(raw string) (string, bool) {
	if len(c.sealKey) == 0 {
		return "", false
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false
	}
	block, err := aes.NewCipher(c.sealKey)
	if err != nil {
		return "", false
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", false
	}
	if len(data) < gcm.NonceSize() {
		return "", false
	}
	plain, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

func parseStructured(raw string) (domain.QRPayload, bool) {
	var w wirePayload
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return domain.QRPayload{}, false
	}
	p := domain.QRPayload{
		UserID:    w.UserID,
		Version:   w.Version,
		Signature: w.Signature,
	}
	if w.IssuedAt != 0 {
		p.IssuedAt = time.Unix(w.IssuedAt, 0).UTC()
	}
	return p, true
}

// SanitizeUserID strips markup-dangerous characters, trims whitespace, and
// caps the length at 255. The empty string is returned unchanged; length
// validation is the caller's check.
func SanitizeUserID(id string) string {
	id = strings.TrimSpace(id)
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch r {
		case '<', '>', '"', '\'', '{', '}':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > 255 {
		out = out[:255]
	}
	return out
}
