package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"heating_controller/internal/logger"
)

// StoreError reports a failed storage operation. It is never retried by the store.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Conn serializes every logical store operation through one mutex around
// a single *sql.DB handle. Callers never see the raw handle.
type Conn struct {
	mu  sync.Mutex
	db  *sql.DB
	log *logger.Logger
	now func() time.Time
}

func NewConn(db *sql.DB, log *logger.Logger) *Conn {
	if log == nil {
		log = logger.Nop()
	}
	return &Conn{db: db, log: log.Named("store"), now: time.Now}
}

// SetClock replaces the clock that assigns append timestamps.
func (c *Conn) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// do runs fn under the lock; a failure is wrapped, logged and returned.
func (c *Conn) do(ctx context.Context, op, key string, fn func(db *sql.DB, now time.Time) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := ctx.Err()
	if err == nil {
		err = fn(c.db, c.now().UTC())
	}
	if err != nil {
		serr := &StoreError{Op: op, Key: key, Err: err}
		c.log.Errorw("store_op_failed", "op", op, "key", key, "err", err)
		return serr
	}
	return nil
}

const (
	// tsLayout is fixed width so string comparison in SQL matches time order.
	tsLayout    = "2006-01-02 15:04:05.000000000"
	parseLayout = "2006-01-02 15:04:05" // fractional seconds are accepted when parsing
)

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(parseLayout, s)
	if err == nil {
		return t.UTC(), nil
	}
	if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
		return t2.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}
