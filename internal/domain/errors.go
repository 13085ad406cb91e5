package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Services return
// these (wrapped) across the component boundary; callers match with
// errors.Is and map them to user-facing messages.

var (
	// Ledger errors
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user account is not active")
	ErrInvalidActivityType = errors.New("unknown activity type")
	ErrAlreadyClaimedToday = errors.New("daily login bonus already claimed today")

	// Validator errors
	ErrOperatorUnauthorized = errors.New("operator is not authorized")
	ErrRateLimitExceeded    = errors.New("too many scan attempts")
	ErrInvalidQRFormat      = errors.New("QR payload could not be decoded")
	ErrMissingUserID        = errors.New("QR payload has no user identifier")
	ErrQRExpired            = errors.New("QR code has expired")
	ErrInvalidSignature     = errors.New("QR signature mismatch")
	ErrInvalidUserID        = errors.New("user identifier is invalid")
	ErrTargetIneligible     = errors.New("target user is not eligible")
	ErrDuplicatesUnacked    = errors.New("duplicate awards must be acknowledged")
	ErrNotAuthorized        = errors.New("validation did not authorize the award")

	// Infrastructure errors
	ErrPersistence = errors.New("persistence failure")
)

// ─── Error Kinds ────────────────────────────────────────────────────────────
// Stable machine-readable kinds for validation issues and audit entries.

type ErrorKind string

const (
	KindOperatorUnauthorized ErrorKind = "OperatorUnauthorized"
	KindRateLimitExceeded    ErrorKind = "RateLimitExceeded"
	KindInvalidQRFormat      ErrorKind = "InvalidQRFormat"
	KindMissingUserID        ErrorKind = "MissingUserIdentifier"
	KindQRExpired            ErrorKind = "QRExpired"
	KindInvalidSignature     ErrorKind = "InvalidSignature"
	KindInvalidUserID        ErrorKind = "InvalidUserIdentifier"
	KindTargetIneligible     ErrorKind = "TargetUserIneligible"
	KindEventIneligible      ErrorKind = "EventIneligible"
	KindDuplicateAward       ErrorKind = "DuplicateAwardDetected"
	KindPersistenceFailure   ErrorKind = "PersistenceFailure"
)
