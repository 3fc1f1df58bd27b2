// Package database provides the Postgres persistence layer for the
// timings archive: one row per fetched calendar day, keyed by the
// API-style date key. The daemon only ever appends or overwrites whole
// days, so the query surface is deliberately small.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type TimingsDay struct {
	ID        uuid.UUID
	DateKey   string
	City      string
	Latitude  float64
	Longitude float64
	Source    string
	Timings   []byte
	FetchedAt time.Time
}

type UpsertTimingsDayParams struct {
	ID        uuid.UUID
	DateKey   string
	City      string
	Latitude  float64
	Longitude float64
	Source    string
	Timings   []byte
	FetchedAt time.Time
}

const upsertTimingsDay = `
INSERT INTO timings_days (id, date_key, city, latitude, longitude, source, timings, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (date_key) DO UPDATE SET
    city = EXCLUDED.city,
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    source = EXCLUDED.source,
    timings = EXCLUDED.timings,
    fetched_at = EXCLUDED.fetched_at
RETURNING id, date_key, city, latitude, longitude, source, timings, fetched_at
`

func (q *Queries) UpsertTimingsDay(ctx context.Context, arg UpsertTimingsDayParams) (TimingsDay, error) {
	row := q.db.QueryRowContext(ctx, upsertTimingsDay,
		arg.ID,
		arg.DateKey,
		arg.City,
		arg.Latitude,
		arg.Longitude,
		arg.Source,
		arg.Timings,
		arg.FetchedAt,
	)
	var day TimingsDay
	err := row.Scan(
		&day.ID,
		&day.DateKey,
		&day.City,
		&day.Latitude,
		&day.Longitude,
		&day.Source,
		&day.Timings,
		&day.FetchedAt,
	)
	return day, err
}

const getTimingsDay = `
SELECT id, date_key, city, latitude, longitude, source, timings, fetched_at
FROM timings_days
WHERE date_key = $1
`

func (q *Queries) GetTimingsDay(ctx context.Context, dateKey string) (TimingsDay, error) {
	row := q.db.QueryRowContext(ctx, getTimingsDay, dateKey)
	var day TimingsDay
	err := row.Scan(
		&day.ID,
		&day.DateKey,
		&day.City,
		&day.Latitude,
		&day.Longitude,
		&day.Source,
		&day.Timings,
		&day.FetchedAt,
	)
	return day, err
}

const listRecentTimingsDays = `
SELECT id, date_key, city, latitude, longitude, source, timings, fetched_at
FROM timings_days
ORDER BY fetched_at DESC
LIMIT $1
`

func (q *Queries) ListRecentTimingsDays(ctx context.Context, limit int32) ([]TimingsDay, error) {
	rows, err := q.db.QueryContext(ctx, listRecentTimingsDays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []TimingsDay
	for rows.Next() {
		var day TimingsDay
		if err := rows.Scan(
			&day.ID,
			&day.DateKey,
			&day.City,
			&day.Latitude,
			&day.Longitude,
			&day.Source,
			&day.Timings,
			&day.FetchedAt,
		); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

const deleteAllTimingsDays = `
DELETE FROM timings_days
`

func (q *Queries) DeleteAllTimingsDays(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTimingsDays)
	return err
}
