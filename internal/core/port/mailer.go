package port

import "context"

// EmailGateway delivers transactional mail. The auth core only ever sends a
// subject and plain-text body; template rendering lives with the caller's
// notification stack.
type EmailGateway interface {
	Send(ctx context.Context, to, subject, body string) error
}
