package mail

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/logger"
)

// SMTPGateway delivers plain-text mail through an SMTP relay using gomail.
type SMTPGateway struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

// NewSMTPGateway constructs a gateway from SMTP settings.
func NewSMTPGateway(cfg config.SMTPSettings, log *zap.Logger) (*SMTPGateway, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &SMTPGateway{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log,
	}, nil
}

// Send delivers a single plain-text message. The context deadline is not
// honoured by gomail's dialer, so delivery relies on the SMTP library's own
// connection timeouts; callers treat an error as a failed dispatch.
func (g *SMTPGateway) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", g.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := g.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	g.log.Debug("email dispatched",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)

	return nil
}

// LoggingGateway records dispatch events without delivering them. Used in
// development environments where no SMTP relay is configured.
type LoggingGateway struct {
	log *zap.Logger
}

// NewLoggingGateway constructs an email gateway backed by structured logging.
func NewLoggingGateway(log *zap.Logger) *LoggingGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingGateway{log: log}
}

func (g *LoggingGateway) Send(_ context.Context, to, subject, body string) error {
	g.log.Info("email dispatch (logging gateway)",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

var (
	_ port.EmailGateway = (*SMTPGateway)(nil)
	_ port.EmailGateway = (*LoggingGateway)(nil)
)
