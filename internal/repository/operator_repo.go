package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heating_controller/internal/models"
)

type OperatorSQLite struct {
	conn *Conn
}

func NewOperatorSQLite(conn *Conn) *OperatorSQLite {
	return &OperatorSQLite{conn: conn}
}

// Ensure implementation of OperatorRepo interface at compile time.
var _ OperatorRepo = (*OperatorSQLite)(nil)

const (
	insertOperatorSQL           = `INSERT INTO operators (username, password_hash) VALUES (?, ?)`
	selectOperatorByUsernameSQL = `SELECT id, username, password_hash FROM operators WHERE username = ?`
)

// Create inserts a new operator and returns its ID.
func (r *OperatorSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	var id int
	err := r.conn.do(ctx, "create operator", username, func(db *sql.DB, _ time.Time) error {
		res, err := db.ExecContext(ctx, insertOperatorSQL, username, passwordHash)
		if err != nil {
			return err
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = int(lastID)
		return nil
	})
	return id, err
}

// GetByUsername fetches an operator by username. Returns (nil, nil) if not found.
func (r *OperatorSQLite) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var out *models.Operator
	err := r.conn.do(ctx, "get operator", username, func(db *sql.DB, _ time.Time) error {
		var op models.Operator
		err := db.QueryRowContext(ctx, selectOperatorByUsernameSQL, username).Scan(&op.ID, &op.Username, &op.PasswordHash)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &op
		return nil
	})
	return out, err
}
