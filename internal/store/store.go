// Package store persists the reconciliation audit trail in PostgreSQL.
//
// Only counts and request metadata are stored. Names never leave the
// process.
package store

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/namematch/internal/config"
	"github.com/JonMunkholm/namematch/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS reconcile_runs (
	id           UUID PRIMARY KEY,
	action       TEXT NOT NULL,
	format       TEXT,
	workspace_id UUID,
	file_name    TEXT,
	rows_read    INTEGER NOT NULL DEFAULT 0,
	extracted    INTEGER NOT NULL DEFAULT 0,
	matched      INTEGER NOT NULL DEFAULT 0,
	unmatched    INTEGER NOT NULL DEFAULT 0,
	ip_address   INET,
	user_agent   TEXT,
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reconcile_runs_created_at_idx ON reconcile_runs (created_at DESC);
`

// MaxRecentRuns caps RecentRuns.
const MaxRecentRuns = 500

// Store is a core.Auditor backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Auditor = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool configured from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordRun inserts one audit row.
func (s *Store) RecordRun(ctx context.Context, rec core.RunRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		id = uuid.New()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reconcile_runs (
			id, action, format, workspace_id, file_name, rows_read, extracted,
			matched, unmatched, ip_address, user_agent, duration_ms, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		pgtype.UUID{Bytes: id, Valid: true},
		string(rec.Action),
		text(string(rec.Format)),
		optionalUUID(rec.WorkspaceID),
		text(rec.FileName),
		rec.RowsRead,
		rec.Extracted,
		rec.Matched,
		rec.Unmatched,
		parseIP(rec.IPAddress),
		text(rec.UserAgent),
		rec.Duration.Milliseconds(),
		text(rec.Error),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if limit <= 0 || limit > MaxRecentRuns {
		limit = MaxRecentRuns
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, action, format, workspace_id, file_name, rows_read, extracted,
			matched, unmatched, ip_address, user_agent, duration_ms, error, created_at
		FROM reconcile_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func scanRun(rows pgx.Rows) (core.RunRecord, error) {
	var (
		id          pgtype.UUID
		action      string
		format      pgtype.Text
		workspaceID pgtype.UUID
		fileName    pgtype.Text
		rowsRead    int32
		extracted   int32
		matched     int32
		unmatched   int32
		ipAddress   *netip.Addr
		userAgent   pgtype.Text
		durationMS  int64
		errText     pgtype.Text
		createdAt   pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &action, &format, &workspaceID, &fileName,
		&rowsRead, &extracted, &matched, &unmatched,
		&ipAddress, &userAgent, &durationMS, &errText, &createdAt,
	)
	if err != nil {
		return core.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	rec := core.RunRecord{
		ID:          uuidString(id),
		Action:      core.RunAction(action),
		Format:      core.Format(format.String),
		WorkspaceID: uuidString(workspaceID),
		FileName:    fileName.String,
		RowsRead:    int(rowsRead),
		Extracted:   int(extracted),
		Matched:     int(matched),
		Unmatched:   int(unmatched),
		UserAgent:   userAgent.String,
		Duration:    time.Duration(durationMS) * time.Millisecond,
		Error:       errText.String,
		CreatedAt:   createdAt.Time,
	}
	if ipAddress != nil {
		rec.IPAddress = ipAddress.String()
	}
	return rec, nil
}

// text maps "" to NULL.
func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func optionalUUID(s string) pgtype.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// parseIP accepts a bare address or host:port. Anything else is stored as NULL.
func parseIP(s string) *netip.Addr {
	if addr, err := netip.ParseAddr(s); err == nil {
		return &addr
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		addr := ap.Addr()
		return &addr
	}
	return nil
}

// PurgeRuns deletes runs created before cutoff and returns how many went.
func (s *Store) PurgeRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reconcile_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
