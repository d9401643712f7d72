package repository

import (
	"context"
	"database/sql"
	"time"
)

type LabelSQLite struct {
	conn *Conn
}

func NewLabelSQLite(conn *Conn) *LabelSQLite { return &LabelSQLite{conn: conn} }

// All returns the seeded key -> label mapping.
func (r *LabelSQLite) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	err := r.conn.do(ctx, "list labels", "", func(db *sql.DB, _ time.Time) error {
		rows, err := db.QueryContext(ctx, `SELECT key, label FROM labels`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var k, l string
			if err := rows.Scan(&k, &l); err != nil {
				return err
			}
			out[k] = l
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
