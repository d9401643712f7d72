package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"heating_controller/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	conn *Conn
}

func NewEventSQLite(conn *Conn) *EventSQLite { return &EventSQLite{conn: conn} }

var _ EventRepo = (*EventSQLite)(nil)

const insertEventSQL = `
		INSERT INTO events (id, occurred_at, type, key, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e models.ControllerEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	var keyPtr *string
	if e.Key != "" {
		keyPtr = &e.Key
	}

	return r.conn.do(ctx, "append event", e.Key, func(db *sql.DB, now time.Time) error {
		occurred := now
		if !e.OccurredAt.IsZero() {
			occurred = e.OccurredAt
		}
		_, err := db.ExecContext(ctx, insertEventSQL,
			e.EventID,
			formatTS(occurred),
			strings.ToUpper(strings.TrimSpace(e.Type)),
			keyPtr,
			e.Description,
			metaPtr,
		)
		return err
	})
}

// List returns events filtered by [From, To] (inclusive), type and key, ordered ASC.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.ControllerEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatTS(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatTS(f.To))
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if key := strings.TrimSpace(f.Key); key != "" {
		conds = append(conds, "key = ?")
		args = append(args, key)
	}

	q := `SELECT id, occurred_at, type, key, message, meta FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	out := make([]models.ControllerEvent, 0, 64)
	err := r.conn.do(ctx, "list events", f.Key, func(db *sql.DB, _ time.Time) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ev      models.ControllerEvent
				ts      string
				key     sql.NullString
				metaStr sql.NullString
			)
			if err := rows.Scan(&ev.EventID, &ts, &ev.Type, &key, &ev.Description, &metaStr); err != nil {
				return err
			}
			if ev.OccurredAt, err = parseTS(ts); err != nil {
				return err
			}
			ev.Key = key.String

			if metaStr.Valid && metaStr.String != "" {
				var v any
				if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
					ev.Metadata = v
				} else {
					ev.Metadata = metaStr.String // keep raw if malformed
				}
			}
			out = append(out, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
