// Package postgres provides Postgres-backed persistence for scraped
// council records.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/metrics"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the slice of pgxpool.Pool the stores use. pgxmock
// implements it for tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// newPool builds a pgx pool from the config.
func newPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// MemberStore persists council members.
type MemberStore struct {
	pool pgxPool
}

// NewMemberStore creates a Postgres-backed MemberStore.
func NewMemberStore(ctx context.Context, cfg Config) (*MemberStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &MemberStore{pool: pool}, nil
}

// NewMemberStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewMemberStoreWithPool(pool pgxPool) (*MemberStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &MemberStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *MemberStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const upsertMemberSQL = `
INSERT INTO members (
	id, name, seat, bio, photo_url, email, phone, linkedin, twitter, committees
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (name) DO UPDATE SET
	seat = EXCLUDED.seat,
	bio = EXCLUDED.bio,
	photo_url = EXCLUDED.photo_url,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	linkedin = EXCLUDED.linkedin,
	twitter = EXCLUDED.twitter,
	committees = EXCLUDED.committees
RETURNING id`

// UpsertMember inserts or updates the member keyed by name and returns
// its row id.
func (s *MemberStore) UpsertMember(ctx context.Context, member civic.Member) (string, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("member store is not configured")
	}
	if member.Name == "" {
		return "", fmt.Errorf("member name is required")
	}
	id := member.ID
	if id == "" {
		id = uuid.NewString()
	}

	var rowID string
	err := s.pool.QueryRow(ctx, upsertMemberSQL,
		id,
		member.Name,
		member.Seat,
		member.Bio,
		member.PhotoURL,
		member.Email,
		member.Phone,
		member.LinkedIn,
		member.Twitter,
		member.Committees,
	).Scan(&rowID)
	if err != nil {
		return "", fmt.Errorf("upsert member %s: %w", member.Name, err)
	}
	metrics.RowsUpserted.WithLabelValues("members").Inc()
	return rowID, nil
}

// ListMembers returns the id and name of every stored member, feeding
// the name matcher.
func (s *MemberStore) ListMembers(ctx context.Context) ([]civic.MemberRef, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("member store is not configured")
	}
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var refs []civic.MemberRef
	for rows.Next() {
		var ref civic.MemberRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return refs, nil
}
