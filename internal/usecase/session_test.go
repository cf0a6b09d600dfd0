package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

type fakeSessionStore struct {
	sessions map[string]domain.Session
	ttls     map[string]time.Duration
	getErr   error
}

func newFakeSessionStore(sessions ...domain.Session) *fakeSessionStore {
	store := &fakeSessionStore{
		sessions: make(map[string]domain.Session),
		ttls:     make(map[string]time.Duration),
	}
	for _, session := range sessions {
		store.sessions[session.ID] = session
	}
	return store
}

func (f *fakeSessionStore) Create(_ context.Context, session domain.Session, ttl time.Duration) error {
	if _, ok := f.sessions[session.ID]; ok {
		return repository.ErrAlreadyExists
	}
	f.sessions[session.ID] = session
	f.ttls[session.ID] = ttl
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := session
	return &copy, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

type fakeUserRepository struct {
	users     map[string]domain.User
	upsertErr error
}

func newFakeUserRepository(users ...domain.User) *fakeUserRepository {
	repo := &fakeUserRepository{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepository) UpsertFromIdentity(_ context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	for _, user := range f.users {
		if user.Provider == identity.Provider && user.ExternalID == identity.ExternalID {
			user.Email = identity.Email
			user.DisplayName = identity.DisplayName
			user.AvatarURL = identity.AvatarURL
			user.UpdatedAt = user.UpdatedAt.Add(time.Second)
			f.users[user.ID] = user
			copy := user
			return &copy, nil
		}
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:          "user-" + identity.ExternalID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		Provider:    identity.Provider,
		ExternalID:  identity.ExternalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.users[user.ID] = user
	copy := user
	return &copy, nil
}

func (f *fakeUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := user
	return &copy, nil
}

type recordingPublisher struct {
	provisioned []domain.UserProvisionedEvent
	loggedIn    []domain.UserLoggedInEvent
	revoked     []domain.SessionRevokedEvent
	otpRequests []domain.OtpRequestedEvent
	otpVerified []domain.OtpVerifiedEvent
}

func (p *recordingPublisher) PublishUserProvisioned(_ context.Context, event domain.UserProvisionedEvent) error {
	p.provisioned = append(p.provisioned, event)
	return nil
}

func (p *recordingPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	p.loggedIn = append(p.loggedIn, event)
	return nil
}

func (p *recordingPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.revoked = append(p.revoked, event)
	return nil
}

func (p *recordingPublisher) PublishOtpRequested(_ context.Context, event domain.OtpRequestedEvent) error {
	p.otpRequests = append(p.otpRequests, event)
	return nil
}

func (p *recordingPublisher) PublishOtpVerified(_ context.Context, event domain.OtpVerifiedEvent) error {
	p.otpVerified = append(p.otpVerified, event)
	return nil
}

func TestCreateSessionStoresRecordWithTTL(t *testing.T) {
	store := newFakeSessionStore()
	users := newFakeUserRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	service := NewSessionService(store, users, nil, 24*time.Hour, zap.NewNop())
	service.WithClock(func() time.Time { return now })

	session, err := service.CreateSession(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if session.UserID != "user-1" {
		t.Fatalf("unexpected user id: %s", session.UserID)
	}
	if !session.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry: %s", session.ExpiresAt)
	}
	if got := store.ttls[session.ID]; got != 24*time.Hour {
		t.Fatalf("unexpected stored ttl: %s", got)
	}
}

func TestCreateSessionRetriesOnIDCollision(t *testing.T) {
	store := newFakeSessionStore(domain.Session{ID: "taken", UserID: "other"})
	users := newFakeUserRepository()

	service := NewSessionService(store, users, nil, time.Hour, zap.NewNop())
	ids := []string{"taken", "fresh"}
	service.WithIDGenerator(func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	})

	session, err := service.CreateSession(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.ID != "fresh" {
		t.Fatalf("expected retry to mint fresh id, got %s", session.ID)
	}
	if store.sessions["taken"].UserID != "other" {
		t.Fatal("collision overwrote an existing session")
	}
}

func TestCreateSessionFailsAfterRepeatedCollisions(t *testing.T) {
	store := newFakeSessionStore(domain.Session{ID: "taken", UserID: "other"})
	service := NewSessionService(store, newFakeUserRepository(), nil, time.Hour, zap.NewNop())
	service.WithIDGenerator(func() (string, error) { return "taken", nil })

	if _, err := service.CreateSession(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error after repeated collisions")
	}
}

func TestResolveSessionReturnsUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := domain.User{ID: "user-1", Email: "trader@example.com"}
	session := domain.Session{ID: "sid", UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	service := NewSessionService(newFakeSessionStore(session), newFakeUserRepository(user), nil, time.Hour, zap.NewNop())
	service.WithClock(func() time.Time { return now })

	resolved, got, err := service.ResolveSession(context.Background(), "sid")
	if err != nil {
		t.Fatalf("ResolveSession returned error: %v", err)
	}
	if resolved.ID != "user-1" || resolved.Email != "trader@example.com" {
		t.Fatalf("unexpected user: %+v", resolved)
	}
	if got.ID != "sid" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestResolveSessionUnknownID(t *testing.T) {
	service := NewSessionService(newFakeSessionStore(), newFakeUserRepository(), nil, time.Hour, zap.NewNop())

	if _, _, err := service.ResolveSession(context.Background(), "missing"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, _, err := service.ResolveSession(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty id, got %v", err)
	}
}

func TestResolveSessionExpiredIsRemoved(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "sid", UserID: "user-1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	store := newFakeSessionStore(session)

	service := NewSessionService(store, newFakeUserRepository(domain.User{ID: "user-1"}), nil, time.Hour, zap.NewNop())
	service.WithClock(func() time.Time { return now })

	if _, _, err := service.ResolveSession(context.Background(), "sid"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := store.sessions["sid"]; ok {
		t.Fatal("expected expired session to be removed")
	}
}

func TestResolveSessionOrphanedUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "sid", UserID: "gone", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	store := newFakeSessionStore(session)

	service := NewSessionService(store, newFakeUserRepository(), nil, time.Hour, zap.NewNop())
	service.WithClock(func() time.Time { return now })

	if _, _, err := service.ResolveSession(context.Background(), "sid"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := store.sessions["sid"]; ok {
		t.Fatal("expected orphaned session to be removed")
	}
}

func TestDestroySessionPublishesRevokedEvent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "sid", UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	store := newFakeSessionStore(session)
	events := &recordingPublisher{}

	service := NewSessionService(store, newFakeUserRepository(), events, time.Hour, zap.NewNop())
	service.WithClock(func() time.Time { return now })

	if err := service.DestroySession(context.Background(), "sid"); err != nil {
		t.Fatalf("DestroySession returned error: %v", err)
	}
	if _, ok := store.sessions["sid"]; ok {
		t.Fatal("expected session to be deleted")
	}
	if len(events.revoked) != 1 {
		t.Fatalf("expected one revoked event, got %d", len(events.revoked))
	}
	if events.revoked[0].UserID != "user-1" || events.revoked[0].Reason != "logout" {
		t.Fatalf("unexpected event: %+v", events.revoked[0])
	}
}

func TestDestroySessionIdempotent(t *testing.T) {
	events := &recordingPublisher{}
	service := NewSessionService(newFakeSessionStore(), newFakeUserRepository(), events, time.Hour, zap.NewNop())

	if err := service.DestroySession(context.Background(), "missing"); err != nil {
		t.Fatalf("expected nil for unknown session, got %v", err)
	}
	if err := service.DestroySession(context.Background(), ""); err != nil {
		t.Fatalf("expected nil for empty id, got %v", err)
	}
	if len(events.revoked) != 0 {
		t.Fatalf("expected no events, got %d", len(events.revoked))
	}
}
