package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func testSession(id string) domain.Session {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.Session{
		ID:        id,
		UserID:    "user-1",
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(24 * time.Hour),
	}
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "auth:session")

	ctx := context.Background()
	session := testSession("sid-1")

	if err := store.Create(ctx, session, 24*time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.UserID != session.UserID {
		t.Fatalf("unexpected user id: %s", got.UserID)
	}
	if !got.CreatedAt.Equal(session.CreatedAt) || !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("timestamps did not round-trip: %+v", got)
	}

	remaining := server.TTL("auth:session:sid-1")
	if remaining <= 0 || remaining > 24*time.Hour {
		t.Fatalf("expected ttl within (0, 24h], got %v", remaining)
	}
}

func TestSessionStore_CreateRejectsDuplicateID(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "auth:session")

	ctx := context.Background()
	original := testSession("sid-1")
	if err := store.Create(ctx, original, time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	intruder := testSession("sid-1")
	intruder.UserID = "user-2"
	if err := store.Create(ctx, intruder, time.Hour); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("duplicate create overwrote the original record: %s", got.UserID)
	}
}

func TestSessionStore_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "auth:session")

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_GetAfterExpiry(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "auth:session")

	ctx := context.Background()
	if err := store.Create(ctx, testSession("sid-1"), time.Minute); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "sid-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl elapsed, got %v", err)
	}
}

func TestSessionStore_DeleteIdempotent(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "auth:session")

	ctx := context.Background()
	if err := store.Create(ctx, testSession("sid-1"), time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("repeated Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, "sid-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
