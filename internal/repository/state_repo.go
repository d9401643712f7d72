package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heating_controller/internal/models"
)

type StateSQLite struct {
	conn *Conn
}

func NewStateSQLite(conn *Conn) *StateSQLite {
	return &StateSQLite{conn: conn}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	insertStateSQL = `INSERT INTO states (key, state, timestamp) VALUES (?, ?, ?)`

	selectLatestStateSQL = `
		SELECT s.key, COALESCE(l.label, s.key), s.state, s.timestamp
		FROM states s
		LEFT JOIN labels l ON l.key = s.key
		WHERE s.key = ?
		ORDER BY s.timestamp DESC, s.rowid DESC
		LIMIT 1
	`

	// SQLite takes bare columns from the row that holds MAX(timestamp).
	selectAllLatestStatesSQL = `
		SELECT s.key, COALESCE(l.label, s.key), s.state, MAX(s.timestamp)
		FROM states s
		LEFT JOIN labels l ON l.key = s.key
		GROUP BY s.key
	`
)

// boolToInt maps the on/off state onto the 0/1 column.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Append records a transition stamped with the store clock.
func (r *StateSQLite) Append(ctx context.Context, key string, state bool) error {
	return r.conn.do(ctx, "append state", key, func(db *sql.DB, now time.Time) error {
		_, err := db.ExecContext(ctx, insertStateSQL, key, boolToInt(state), formatTS(now))
		return err
	})
}

func (r *StateSQLite) Latest(ctx context.Context, key string) (*models.StateRecord, error) {
	var out *models.StateRecord
	err := r.conn.do(ctx, "latest state", key, func(db *sql.DB, _ time.Time) error {
		rec, err := scanState(db.QueryRowContext(ctx, selectLatestStateSQL, key))
		if errors.Is(err, sql.ErrNoRows) {
			return nil // no state yet
		}
		if err != nil {
			return err
		}
		out = &rec
		return nil
	})
	return out, err
}

func (r *StateSQLite) AllLatest(ctx context.Context) (map[string]models.StateRecord, error) {
	out := make(map[string]models.StateRecord)
	err := r.conn.do(ctx, "all latest states", "", func(db *sql.DB, _ time.Time) error {
		rows, err := db.QueryContext(ctx, selectAllLatestStatesSQL)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanState(rows)
			if err != nil {
				return err
			}
			out[rec.Key] = rec
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanState(row rowScanner) (models.StateRecord, error) {
	var (
		rec   models.StateRecord
		state int
		ts    string
	)
	if err := row.Scan(&rec.Key, &rec.Label, &state, &ts); err != nil {
		return models.StateRecord{}, err
	}
	rec.State = state != 0
	t, err := parseTS(ts)
	if err != nil {
		return models.StateRecord{}, err
	}
	rec.Timestamp = t
	return rec, nil
}
