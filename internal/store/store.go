// Package store is the append-only SQLite timeline: the durable record of
// every inference tick the daemon has ever produced. It is the "git history
// for your attention" — nothing is ever updated or deleted.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	_ "modernc.org/sqlite"

	"cogload/internal/domain"
)

// migrations is the schema, applied in order on Open. Mirrors the teacher's
// sqlite package convention of one statement per migration string.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS timeline (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     REAL    NOT NULL,
			source        TEXT    NOT NULL,
			event_type    TEXT    NOT NULL,
			load_score    REAL    NOT NULL DEFAULT 0.0,
			context       TEXT    NOT NULL DEFAULT 'unknown',
			metadata_json TEXT    NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_ts ON timeline(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_source ON timeline(source, timestamp)`,
	}
}

const maxQueryLimit = 1000

// DB is the append-only timeline store. Writes go through a circuit breaker
// so a transient disk fault degrades the daemon (dropped ticks, logged) in
// preference to blocking the aggregator's tick loop indefinitely.
type DB struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

// Open opens (creating if absent) the SQLite database at path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cogload: open timeline db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite: single writer, avoid lock contention

	for _, stmt := range migrations() {
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("cogload: apply migration: %w", err)
		}
	}

	cbSettings := gobreaker.Settings{
		Name:        "timeline_store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &DB{db: sqlDB, cb: gobreaker.NewCircuitBreaker(cbSettings)}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Append inserts one timeline entry and returns its assigned ID. Guarded by
// the circuit breaker: when open, Append returns domain.ErrStoreUnavailable
// without touching the database.
func (d *DB) Append(e domain.TimelineEntry) (int64, error) {
	result, err := d.cb.Execute(func() (interface{}, error) {
		res, err := d.db.Exec(
			`INSERT INTO timeline (timestamp, source, event_type, load_score, context, metadata_json)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.Timestamp, string(e.Source), e.EventType, e.LoadScore, string(e.Context), e.MetadataJSON,
		)
		if err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return 0, domain.ErrStoreUnavailable
		}
		return 0, fmt.Errorf("cogload: append timeline entry: %w", err)
	}
	return result.(int64), nil
}

// Query is the raw-entry read filter (§5.2). A Limit of zero or less means
// 500; a limit above maxQueryLimit is an error so HTTP callers can surface a
// 400 rather than silently truncating.
type Query struct {
	Since  *float64
	Until  *float64
	Source *domain.Source
	Limit  int
}

// Query returns entries newest-first matching the filter. A Limit of zero
// or less means 500; a limit above maxQueryLimit returns
// domain.ErrLimitExceeded so HTTP callers can surface a 400 rather than
// silently truncating.
func (d *DB) Query(q Query) ([]domain.TimelineEntry, error) {
	if q.Limit <= 0 {
		q.Limit = 500
	}
	if q.Limit > maxQueryLimit {
		return nil, domain.ErrLimitExceeded
	}
	return d.queryUnbounded(q)
}

// queryUnbounded runs the same filter without the external limit cap, for
// internal analytics scans that legitimately need tens of thousands of rows.
func (d *DB) queryUnbounded(q Query) ([]domain.TimelineEntry, error) {
	where := ""
	var args []any
	clauses := []string{}
	if q.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, *q.Since)
	}
	if q.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, *q.Until)
	}
	if q.Source != nil {
		clauses = append(clauses, "source = ?")
		args = append(args, string(*q.Source))
	}
	for i, c := range clauses {
		if i == 0 {
			where = "WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	args = append(args, q.Limit)

	rows, err := d.db.Query(
		`SELECT id, timestamp, source, event_type, load_score, context, metadata_json
		 FROM timeline `+where+` ORDER BY timestamp DESC LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("cogload: query timeline: %w", err)
	}
	defer rows.Close()

	var out []domain.TimelineEntry
	for rows.Next() {
		var e domain.TimelineEntry
		var src, ctx string
		if err := rows.Scan(&e.ID, &e.Timestamp, &src, &e.EventType, &e.LoadScore, &ctx, &e.MetadataJSON); err != nil {
			return nil, fmt.Errorf("cogload: scan timeline row: %w", err)
		}
		e.Source = domain.Source(src)
		e.Context = domain.CognitiveContext(ctx)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentEntries is the analytics-facing read path: unlike Query it is not
// subject to maxQueryLimit, since session/daily aggregation legitimately
// needs to scan thousands of ticks at once.
func (d *DB) RecentEntries(since, until *float64, source *domain.Source, limit int) ([]domain.TimelineEntry, error) {
	if limit <= 0 {
		limit = 500
	}
	return d.queryUnbounded(Query{Since: since, Until: until, Source: source, Limit: limit})
}

// RecentLoadScores returns the load_score of the entries within
// windowSeconds of now, oldest-first; at most the newest maxQueryLimit
// entries are read.
func (d *DB) RecentLoadScores(now time.Time, windowSeconds int) ([]float64, error) {
	since := float64(now.Unix()) - float64(windowSeconds)
	entries, err := d.Query(Query{Since: &since, Limit: maxQueryLimit})
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[len(entries)-1-i] = e.LoadScore
	}
	return scores, nil
}
