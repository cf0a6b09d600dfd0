package domain

import "time"

// OtpState enumerates lifecycle states of an OTP challenge.
//
// Transitions out of Pending are terminal:
//
//	Pending -> Consumed     successful single-use verification
//	Pending -> Expired      TTL elapsed, detected lazily on read
//	Pending -> Locked       attempt cap reached
//	Pending -> Invalidated  superseded by a newer challenge for the same subject/purpose
type OtpState string

const (
	OtpStatePending     OtpState = "pending"
	OtpStateConsumed    OtpState = "consumed"
	OtpStateExpired     OtpState = "expired"
	OtpStateLocked      OtpState = "locked"
	OtpStateInvalidated OtpState = "invalidated"
)

// MaxOtpAttempts caps wrong-code submissions before a challenge locks.
const MaxOtpAttempts = 5

// OtpChallenge is a time-boxed one-time-passcode challenge. Only the SHA-256
// hash of the code is stored; the plaintext exists solely between generation
// and email dispatch. At most one non-terminal challenge exists per
// (subject, purpose) pair.
type OtpChallenge struct {
	Subject   string
	Purpose   string
	CodeHash  string
	Attempts  int
	State     OtpState
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the challenge has elapsed its validity window.
func (c OtpChallenge) IsExpired(at time.Time) bool {
	return !c.ExpiresAt.After(at)
}

// IsLocked reports whether the attempt cap has been reached.
func (c OtpChallenge) IsLocked() bool {
	return c.State == OtpStateLocked || c.Attempts >= MaxOtpAttempts
}

// Terminal reports whether the challenge can no longer be verified.
func (c OtpChallenge) Terminal() bool {
	return c.State != OtpStatePending
}
