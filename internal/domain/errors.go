package domain

import "errors"

// Error kinds. Every specific error below matches exactly one kind through
// errors.Is, so transport code can map whole families at once.
var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPairingFailed    = errors.New("pairing failed")
	ErrSessionInvalid   = errors.New("session invalid, please sign in again")
	ErrConflictRejected = errors.New("conflict resolution rejected")
)

// AuthError
var (
	ErrInvalidCredentials = newKindError(ErrAuthFailed, "invalid credentials")
	ErrMalformedMessage   = newKindError(ErrAuthFailed, "malformed protocol message")
	ErrHandshakeExpired   = newKindError(ErrAuthFailed, "handshake expired or unknown")
	ErrTooManyAttempts    = newKindError(ErrAuthFailed, "too many failed attempts")
)

// PairingError
var (
	ErrPairingNotFound     = newKindError(ErrPairingFailed, "pairing challenge not found")
	ErrPairingExpired      = newKindError(ErrPairingFailed, "pairing challenge expired")
	ErrPairingConsumed     = newKindError(ErrPairingFailed, "pairing challenge already consumed")
	ErrPairingCodeMismatch = newKindError(ErrPairingFailed, "pairing code mismatch")
	ErrPairingLocked       = newKindError(ErrPairingFailed, "pairing attempt budget exhausted")
)

// TokenError
var (
	ErrTokenInvalid  = newKindError(ErrSessionInvalid, "token invalid")
	ErrTokenExpired  = newKindError(ErrSessionInvalid, "token expired")
	ErrTokenRevoked  = newKindError(ErrSessionInvalid, "token revoked")
	ErrTokenReused   = newKindError(ErrSessionInvalid, "refresh token reused")
	ErrDeviceRevoked = newKindError(ErrSessionInvalid, "device revoked or expired")
)

// ConflictError
var (
	ErrConflictAlreadyResolved = newKindError(ErrConflictRejected, "conflict already resolved")
	ErrResolutionNotTerminal   = newKindError(ErrConflictRejected, "manual is not a terminal resolution")
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrConflictNotFound  = errors.New("conflict not found")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrBatchTooLarge     = errors.New("push batch too large")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}
