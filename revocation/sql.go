package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// RevokedToken is the row model of the revoked_tokens table.
type RevokedToken struct {
	bun.BaseModel `bun:"table:revoked_tokens,alias:rt"`

	Token     string    `bun:"token,pk"`
	RevokedAt time.Time `bun:"revoked_at,notnull"`
}

// SQLConfig configures a SQLStore.
type SQLConfig struct {
	Now func() time.Time
}

// SQLStore keeps revocation records in a relational table through bun.
//
// The insert relies on ON CONFLICT, which the sqlite and postgres dialects support.
type SQLStore struct {
	db  bun.IDB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a SQLStore over db.
func NewSQLStore(db bun.IDB, cfg SQLConfig) *SQLStore {
	return &SQLStore{
		db:  db,
		now: nowFunc(cfg.Now),
	}
}

// CreateSchema creates the revoked_tokens table and its revoked_at index if missing.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*RevokedToken)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create revoked_tokens: %w", err)
	}

	if _, err := s.db.NewCreateIndex().
		Model((*RevokedToken)(nil)).
		Index("revoked_tokens_revoked_at_idx").
		Column("revoked_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create revoked_tokens index: %w", err)
	}
	return nil
}

// Revoke inserts token unless it is already present.
func (s *SQLStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	row := &RevokedToken{
		Token:     token,
		RevokedAt: s.now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token has a row.
func (s *SQLStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, ErrEmptyToken
	}

	exists, err := s.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("token = ?", token).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return exists, nil
}

// Lookup returns the stored record for token.
func (s *SQLStore) Lookup(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	var row RevokedToken
	err := s.db.NewSelect().
		Model(&row).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &Record{
		Token:     row.Token,
		RevokedAt: row.RevokedAt.UTC(),
	}, nil
}

// Purge deletes records revoked strictly before cutoff and returns how many were removed.
//
// Callers should only purge records older than the token validity window;
// a purged token that has not yet expired would verify again.
func (s *SQLStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*RevokedToken)(nil)).
		Where("revoked_at < ?", cutoff.UTC().Truncate(time.Second)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}
