package notification

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Repository persists notification preferences per user.
type Repository interface {
	Get(ctx context.Context, userID string) (Settings, error)
	Save(ctx context.Context, userID string, settings Settings) error
}

// DB is the subset of a pgx pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schema = `CREATE TABLE IF NOT EXISTS notification_preferences (
	user_id    TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	option     TEXT        NOT NULL,
	email      BOOLEAN     NOT NULL DEFAULT FALSE,
	telegram   BOOLEAN     NOT NULL DEFAULT FALSE,
	sms        BOOLEAN     NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, category, option)
)`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db  DB
	now func() time.Time
}

// NewPostgresRepository builds a Postgres-backed preferences repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// EnsureSchema creates the preferences table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return oops.With("operation", "ensure notification schema").Wrap(err)
	}
	return nil
}

// Get returns the stored rows for userID; options never saved are absent.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (Settings, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, option, email, telegram, sms FROM notification_preferences WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, oops.With("operation", "get notification preferences").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	out := Settings{}
	for rows.Next() {
		var (
			category, option string
			ch               Channels
		)
		if err := rows.Scan(&category, &option, &ch.Email, &ch.Telegram, &ch.SMS); err != nil {
			return nil, oops.With("operation", "scan notification preference").With("user_id", userID).Wrap(err)
		}
		if out[category] == nil {
			out[category] = map[string]Channels{}
		}
		out[category][option] = ch
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate notification preferences").With("user_id", userID).Wrap(err)
	}
	return out, nil
}

// Save upserts every option in settings in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, userID string, settings Settings) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.With("operation", "begin save notification preferences").Wrap(err)
	}

	now := r.now().UTC()
	for category, opts := range settings {
		for option, ch := range opts {
			_, err := tx.Exec(ctx,
				`INSERT INTO notification_preferences (user_id, category, option, email, telegram, sms, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (user_id, category, option)
				 DO UPDATE SET email = $4, telegram = $5, sms = $6, updated_at = $7`,
				userID, category, option, ch.Email, ch.Telegram, ch.SMS, now)
			if err != nil {
				_ = tx.Rollback(ctx)
				return oops.With("operation", "save notification preference").With("user_id", userID).With("option", option).Wrap(err)
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.With("operation", "commit notification preferences").Wrap(err)
	}
	return nil
}

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]Settings
}

// NewMemoryRepository builds an in-memory preferences store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]Settings)}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userID].Merge(Settings{}), nil
}

func (r *memoryRepository) Save(_ context.Context, userID string, settings Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.users[userID]
	if existing == nil {
		existing = Settings{}
	}
	r.users[userID] = settings.Merge(existing)
	return nil
}
