package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/security"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

type fakeOTPStore struct {
	challenges map[string]*domain.OtpChallenge
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{challenges: make(map[string]*domain.OtpChallenge)}
}

func otpKey(subject, purpose string) string {
	return purpose + ":" + subject
}

func (f *fakeOTPStore) Put(_ context.Context, challenge domain.OtpChallenge, _ time.Duration) error {
	copy := challenge
	f.challenges[otpKey(challenge.Subject, challenge.Purpose)] = &copy
	return nil
}

func (f *fakeOTPStore) Get(_ context.Context, subject, purpose string) (*domain.OtpChallenge, error) {
	challenge, ok := f.challenges[otpKey(subject, purpose)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *challenge
	return &copy, nil
}

func (f *fakeOTPStore) IncrementAttempts(_ context.Context, subject, purpose string) (int, error) {
	challenge, ok := f.challenges[otpKey(subject, purpose)]
	if !ok {
		return 0, repository.ErrNotFound
	}
	challenge.Attempts++
	return challenge.Attempts, nil
}

func (f *fakeOTPStore) MarkLocked(_ context.Context, subject, purpose string) error {
	challenge, ok := f.challenges[otpKey(subject, purpose)]
	if !ok {
		return repository.ErrNotFound
	}
	challenge.State = domain.OtpStateLocked
	return nil
}

func (f *fakeOTPStore) Consume(_ context.Context, subject, purpose string) error {
	key := otpKey(subject, purpose)
	if _, ok := f.challenges[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.challenges, key)
	return nil
}

type recordingMailer struct {
	to      []string
	bodies  []string
	sendErr error
}

func (m *recordingMailer) Send(_ context.Context, to, _ string, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func newMfaFixture(t *testing.T) (*MfaService, *fakeOTPStore, *recordingMailer, *recordingPublisher) {
	t.Helper()
	store := newFakeOTPStore()
	mailer := &recordingMailer{}
	events := &recordingPublisher{}
	cfg := config.OTPSettings{TTL: 5 * time.Minute, CodeLength: 6, MaxAttempts: 5}
	service := NewMfaService(store, mailer, events, cfg, zap.NewNop())
	return service, store, mailer, events
}

func TestRequestOtpStoresHashAndSendsEmail(t *testing.T) {
	service, store, mailer, events := newMfaFixture(t)
	service.WithCodeGenerator(func(int) (string, error) { return "123456", nil })

	if err := service.RequestOtp(context.Background(), "trader@example.com", "login"); err != nil {
		t.Fatalf("RequestOtp returned error: %v", err)
	}

	challenge, ok := store.challenges[otpKey("trader@example.com", "login")]
	if !ok {
		t.Fatal("expected stored challenge")
	}
	if challenge.CodeHash == "123456" || challenge.CodeHash == "" {
		t.Fatal("expected stored hash, not plaintext")
	}
	if challenge.CodeHash != security.HashToken("123456") {
		t.Fatal("stored hash does not match the issued code")
	}
	if challenge.State != domain.OtpStatePending {
		t.Fatalf("unexpected state: %s", challenge.State)
	}

	if len(mailer.to) != 1 || mailer.to[0] != "trader@example.com" {
		t.Fatalf("unexpected recipients: %v", mailer.to)
	}
	if !strings.Contains(mailer.bodies[0], "123456") {
		t.Fatal("expected email body to carry the code")
	}

	if len(events.otpRequests) != 1 {
		t.Fatalf("expected one otp requested event, got %d", len(events.otpRequests))
	}
	if strings.Contains(events.otpRequests[0].MaskedSubject, "trader@example.com") {
		t.Fatal("event must not carry the raw subject")
	}
}

func TestRequestOtpSupersedesPriorChallenge(t *testing.T) {
	service, _, _, _ := newMfaFixture(t)

	codes := []string{"111111", "222222"}
	service.WithCodeGenerator(func(int) (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	})

	ctx := context.Background()
	if err := service.RequestOtp(ctx, "trader@example.com", "login"); err != nil {
		t.Fatalf("first RequestOtp: %v", err)
	}
	if err := service.RequestOtp(ctx, "trader@example.com", "login"); err != nil {
		t.Fatalf("second RequestOtp: %v", err)
	}

	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "111111"); !errors.Is(err, ErrOtpMismatch) {
		t.Fatalf("expected superseded code to mismatch, got %v", err)
	}
	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "222222"); err != nil {
		t.Fatalf("expected newest code to verify, got %v", err)
	}
}

func TestRequestOtpMailFailureSurfaces(t *testing.T) {
	service, _, mailer, _ := newMfaFixture(t)
	mailer.sendErr = errors.New("smtp down")

	if err := service.RequestOtp(context.Background(), "trader@example.com", "login"); err == nil {
		t.Fatal("expected error when mail dispatch fails")
	}
}

func TestVerifyOtpConsumesExactlyOnce(t *testing.T) {
	service, store, _, events := newMfaFixture(t)
	service.WithCodeGenerator(func(int) (string, error) { return "654321", nil })

	ctx := context.Background()
	if err := service.RequestOtp(ctx, "trader@example.com", "login"); err != nil {
		t.Fatalf("RequestOtp: %v", err)
	}

	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "654321"); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, ok := store.challenges[otpKey("trader@example.com", "login")]; ok {
		t.Fatal("expected challenge to be consumed")
	}
	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "654321"); !errors.Is(err, ErrOtpNotFound) {
		t.Fatalf("expected replay to fail with ErrOtpNotFound, got %v", err)
	}
	if len(events.otpVerified) != 1 {
		t.Fatalf("expected one otp verified event, got %d", len(events.otpVerified))
	}
}

func TestVerifyOtpWrongCodeCountsAttempts(t *testing.T) {
	service, store, _, _ := newMfaFixture(t)
	service.WithCodeGenerator(func(int) (string, error) { return "654321", nil })

	ctx := context.Background()
	if err := service.RequestOtp(ctx, "trader@example.com", "login"); err != nil {
		t.Fatalf("RequestOtp: %v", err)
	}

	for i := 1; i <= 4; i++ {
		if err := service.VerifyOtp(ctx, "trader@example.com", "login", "000000"); !errors.Is(err, ErrOtpMismatch) {
			t.Fatalf("attempt %d: expected ErrOtpMismatch, got %v", i, err)
		}
	}

	// Fifth wrong submission reaches the cap and locks the challenge.
	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "000000"); !errors.Is(err, ErrOtpAttemptsExceeded) {
		t.Fatalf("expected ErrOtpAttemptsExceeded, got %v", err)
	}
	if store.challenges[otpKey("trader@example.com", "login")].State != domain.OtpStateLocked {
		t.Fatal("expected challenge to be locked")
	}

	// Even the correct code is rejected once locked.
	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "654321"); !errors.Is(err, ErrOtpAttemptsExceeded) {
		t.Fatalf("expected locked challenge to reject correct code, got %v", err)
	}
}

func TestVerifyOtpExpiredChallenge(t *testing.T) {
	service, _, _, _ := newMfaFixture(t)
	service.WithCodeGenerator(func(int) (string, error) { return "654321", nil })

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return issued })

	ctx := context.Background()
	if err := service.RequestOtp(ctx, "trader@example.com", "login"); err != nil {
		t.Fatalf("RequestOtp: %v", err)
	}

	service.WithClock(func() time.Time { return issued.Add(6 * time.Minute) })
	if err := service.VerifyOtp(ctx, "trader@example.com", "login", "654321"); !errors.Is(err, ErrOtpExpired) {
		t.Fatalf("expected ErrOtpExpired, got %v", err)
	}
}

func TestVerifyOtpUnknownSubject(t *testing.T) {
	service, _, _, _ := newMfaFixture(t)

	if err := service.VerifyOtp(context.Background(), "nobody@example.com", "login", "123456"); !errors.Is(err, ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound, got %v", err)
	}
	if err := service.VerifyOtp(context.Background(), "", "login", "123456"); !errors.Is(err, ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound for blank subject, got %v", err)
	}
}
