package domain

import (
	"errors"
	"time"
)

// ErrIncompleteIdentity indicates the provider returned a profile missing a
// required field. Login fails closed rather than provisioning a partial user.
var ErrIncompleteIdentity = errors.New("incomplete external identity")

// ExternalIdentity is the normalized profile an identity provider returns
// after a successful code exchange.
type ExternalIdentity struct {
	Provider    string
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Validate checks the fields user provisioning depends on. DisplayName and
// AvatarURL are optional; providers may omit them.
func (i ExternalIdentity) Validate() error {
	if i.Provider == "" || i.ExternalID == "" || i.Email == "" {
		return ErrIncompleteIdentity
	}
	return nil
}

// User is a locally provisioned account keyed by (provider, external_id).
// There are no local passwords; authentication always goes through an
// external identity provider.
type User struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
	Provider    string
	ExternalID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
