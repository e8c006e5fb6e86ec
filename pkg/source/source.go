// Package source reads new rows from the relational database the web
// application writes to. All queries are watermark-bounded so a sync
// cycle only ever transfers rows it has not seen before.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

// Pool limits follow the single-process deployment: the syncer is the
// only consumer and runs one cycle at a time.
const (
	maxConns        = 4
	minConns        = 1
	maxConnLifetime = 10 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// Source is what the syncer needs from the database. The production
// implementation is Postgres; tests substitute a fake.
type Source interface {
	Estimations(ctx context.Context, sinceID int64) ([]model.Estimation, error)
	Events(ctx context.Context, sinceID int64) ([]model.Event, error)
	PageViews(ctx context.Context, sinceID int64) ([]model.PageView, error)
	Rooms(ctx context.Context, sinceID int64) ([]model.Room, error)
	Votes(ctx context.Context, sinceID int64) ([]model.Vote, error)
	Users(ctx context.Context, since *time.Time) ([]model.User, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres implements Source over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewPostgres connects to the source database and verifies the
// connection with a ping.
func NewPostgres(ctx context.Context, databaseURL string, log *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool, log: log}, nil
}

// Ping reports source database reachability for the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// query runs a query with a single reconnect-and-retry: a transient
// connection failure gets one more attempt after a successful ping,
// anything persistent aborts the current sync cycle only.
func (p *Postgres) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err == nil {
		return rows, nil
	}
	if pingErr := p.pool.Ping(ctx); pingErr != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}
	p.log.Warn("retrying source query after reconnect", zap.Error(err))
	rows, err = p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query source (retried): %w", err)
	}
	return rows, nil
}

// Estimations fetches estimation rows with id > sinceID, ascending.
func (p *Postgres) Estimations(ctx context.Context, sinceID int64) ([]model.Estimation, error) {
	rows, err := p.query(ctx, `
		SELECT id, user_id, room_id, estimation, spectator, estimated_at
		FROM fpp_estimations WHERE id > $1 ORDER BY id`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Estimation
	for rows.Next() {
		var e model.Estimation
		var spectator int32
		if err := rows.Scan(&e.ID, &e.UserID, &e.RoomID, &e.Estimation, &spectator, &e.EstimatedAt); err != nil {
			return nil, fmt.Errorf("scan estimation: %w", err)
		}
		// The source stores the flag as a 0/1 smallint.
		e.Spectator = spectator != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Events fetches event rows with id > sinceID, ascending.
func (p *Postgres) Events(ctx context.Context, sinceID int64) ([]model.Event, error) {
	rows, err := p.query(ctx, `
		SELECT id, user_id, event, occurred_at
		FROM fpp_events WHERE id > $1 ORDER BY id`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Event, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PageViews fetches page-view rows with id > sinceID, ascending.
func (p *Postgres) PageViews(ctx context.Context, sinceID int64) ([]model.PageView, error) {
	rows, err := p.query(ctx, `
		SELECT id, user_id, route, source, room_id, viewed_at
		FROM fpp_page_views WHERE id > $1 ORDER BY id`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PageView
	for rows.Next() {
		var v model.PageView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Route, &v.Source, &v.RoomID, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("scan page view: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Rooms fetches room rows with id > sinceID, ascending.
func (p *Postgres) Rooms(ctx context.Context, sinceID int64) ([]model.Room, error) {
	rows, err := p.query(ctx, `
		SELECT id, number, name, first_used_at
		FROM fpp_rooms WHERE id > $1 ORDER BY id`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Number, &r.Name, &r.FirstUsedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Votes fetches vote rows with id > sinceID, ascending.
func (p *Postgres) Votes(ctx context.Context, sinceID int64) ([]model.Vote, error) {
	rows, err := p.query(ctx, `
		SELECT id, room_id, avg_estimation, min_estimation, max_estimation,
		       amount_of_estimations, amount_of_spectators, duration, was_auto_flip, voted_at
		FROM fpp_votes WHERE id > $1 ORDER BY id`, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Vote
	for rows.Next() {
		var v model.Vote
		var autoFlip int32
		if err := rows.Scan(&v.ID, &v.RoomID, &v.AvgEstimation, &v.MinEstimation, &v.MaxEstimation,
			&v.AmountOfEstimations, &v.AmountOfSpectators, &v.Duration, &autoFlip, &v.VotedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.WasAutoFlip = autoFlip != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

// Users fetches user rows newer than the given created_at watermark,
// descending. The table has no monotonic id; a nil watermark fetches
// everything.
func (p *Postgres) Users(ctx context.Context, since *time.Time) ([]model.User, error) {
	sql := `
		SELECT device, os, browser, country, region, city, created_at
		FROM fpp_users ORDER BY created_at DESC`
	args := []any{}
	if since != nil {
		sql = `
		SELECT device, os, browser, country, region, city, created_at
		FROM fpp_users WHERE created_at > $1 ORDER BY created_at DESC`
		args = append(args, *since)
	}

	rows, err := p.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Device, &u.OS, &u.Browser, &u.Country, &u.Region, &u.City, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
