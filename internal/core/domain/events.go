package domain

import "time"

// UserProvisionedEvent represents the payload for auth.user.provisioned
// messages, emitted the first time an external identity maps to a local user.
type UserProvisionedEvent struct {
	EventID       string
	UserID        string
	Provider      string
	ExternalID    string
	MaskedEmail   string
	ProvisionedAt time.Time
	Metadata      map[string]any
}

// UserLoggedInEvent represents the payload for auth.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID    string
	UserID     string
	Provider   string
	SessionID  string
	LoggedInAt time.Time
	IPAddress  *string
	Metadata   map[string]any
}

// SessionRevokedEvent represents the payload for auth.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	UserID    string
	RevokedAt time.Time
	Reason    string
	Metadata  map[string]any
}

// OtpRequestedEvent represents the payload for auth.otp.requested messages.
// The subject is carried masked; the code never leaves the MFA service.
type OtpRequestedEvent struct {
	EventID       string
	MaskedSubject string
	Purpose       string
	RequestedAt   time.Time
	ExpiresAt     time.Time
	Metadata      map[string]any
}

// OtpVerifiedEvent represents the payload for auth.otp.verified messages.
type OtpVerifiedEvent struct {
	EventID       string
	MaskedSubject string
	Purpose       string
	VerifiedAt    time.Time
	Metadata      map[string]any
}
