package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = "id, email, display_name, avatar_url, provider, external_id, created_at, updated_at"

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
	newID   func() string
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithClock overrides the internal clock, used in tests.
func (r *UserRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

// WithIDGenerator overrides id generation for deterministic tests.
func (r *UserRepository) WithIDGenerator(gen func() string) {
	if gen != nil {
		r.newID = gen
	}
}

// UpsertFromIdentity inserts or refreshes the user row keyed by
// (provider, external_id) in one statement. The ON CONFLICT arm only touches
// mutable profile fields, so concurrent logins for the same identity converge
// on a single row with a stable id.
func (r *UserRepository) UpsertFromIdentity(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()

	query := r.builder.Insert("auth.users").
		Columns(
			"id",
			"email",
			"display_name",
			"avatar_url",
			"provider",
			"external_id",
			"created_at",
			"updated_at",
		).
		Values(
			r.newID(),
			identity.Email,
			identity.DisplayName,
			identity.AvatarURL,
			identity.Provider,
			identity.ExternalID,
			now,
			now,
		).
		Suffix(`ON CONFLICT (provider, external_id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns)

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_key" {
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"email",
			"display_name",
			"avatar_url",
			"provider",
			"external_id",
			"created_at",
			"updated_at",
		).
		From("auth.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Provider,
		&user.ExternalID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
