package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heating_controller/internal/models"
)

type ReadingSQLite struct {
	conn *Conn
}

func NewReadingSQLite(conn *Conn) *ReadingSQLite {
	return &ReadingSQLite{conn: conn}
}

var _ ReadingRepo = (*ReadingSQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO temperatures (key, temperature, expected_temperature, timestamp)
		VALUES (?, ?, ?, ?)
	`

	selectLatestReadingSQL = `
		SELECT t.key, COALESCE(l.label, t.key), t.temperature, t.expected_temperature, t.timestamp
		FROM temperatures t
		LEFT JOIN labels l ON l.key = t.key
		WHERE t.key = ?
		ORDER BY t.timestamp DESC, t.rowid DESC
		LIMIT 1
	`

	// SQLite takes bare columns from the row that holds MAX(timestamp).
	selectAllLatestReadingsSQL = `
		SELECT t.key, COALESCE(l.label, t.key), t.temperature, t.expected_temperature, MAX(t.timestamp)
		FROM temperatures t
		LEFT JOIN labels l ON l.key = t.key
		GROUP BY t.key
	`

	selectReadingsSinceSQL = `
		SELECT temperature
		FROM temperatures
		WHERE key = ? AND timestamp >= ?
		ORDER BY timestamp DESC, rowid DESC
	`
)

// Append stores a reading stamped with the store clock.
func (r *ReadingSQLite) Append(ctx context.Context, key string, value float64, expected *float64) error {
	return r.conn.do(ctx, "append reading", key, func(db *sql.DB, now time.Time) error {
		_, err := db.ExecContext(ctx, insertReadingSQL, key, value, expected, formatTS(now))
		return err
	})
}

func (r *ReadingSQLite) Latest(ctx context.Context, key string) (*models.TemperatureReading, error) {
	var out *models.TemperatureReading
	err := r.conn.do(ctx, "latest reading", key, func(db *sql.DB, _ time.Time) error {
		rd, err := scanReading(db.QueryRowContext(ctx, selectLatestReadingSQL, key))
		if errors.Is(err, sql.ErrNoRows) {
			return nil // no reading yet
		}
		if err != nil {
			return err
		}
		out = &rd
		return nil
	})
	return out, err
}

func (r *ReadingSQLite) AllLatest(ctx context.Context) (map[string]models.TemperatureReading, error) {
	out := make(map[string]models.TemperatureReading)
	err := r.conn.do(ctx, "all latest readings", "", func(db *sql.DB, _ time.Time) error {
		rows, err := db.QueryContext(ctx, selectAllLatestReadingsSQL)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rd, err := scanReading(rows)
			if err != nil {
				return err
			}
			out[rd.Key] = rd
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReadingSQLite) Since(ctx context.Context, key string, since time.Time) ([]float64, error) {
	var out []float64
	err := r.conn.do(ctx, "readings since", key, func(db *sql.DB, _ time.Time) error {
		rows, err := db.QueryContext(ctx, selectReadingsSinceSQL, key, formatTS(since))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v float64
			if err := rows.Scan(&v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (models.TemperatureReading, error) {
	var (
		rd       models.TemperatureReading
		expected sql.NullFloat64
		ts       string
	)
	if err := row.Scan(&rd.Key, &rd.Label, &rd.Value, &expected, &ts); err != nil {
		return models.TemperatureReading{}, err
	}
	if expected.Valid {
		v := expected.Float64
		rd.Expected = &v
	}
	t, err := parseTS(ts)
	if err != nil {
		return models.TemperatureReading{}, err
	}
	rd.Timestamp = t
	return rd, nil
}
