package repository

import (
	"context"
	"database/sql"
	"time"

	"heating_controller/internal/logger"
	"heating_controller/internal/models"
)

// ReadingRepo is the append-only temperature log.
type ReadingRepo interface {
	Append(ctx context.Context, key string, value float64, expected *float64) error
	// Latest returns nil when the key has no reading.
	Latest(ctx context.Context, key string) (*models.TemperatureReading, error)
	AllLatest(ctx context.Context) (map[string]models.TemperatureReading, error)
	// Since returns values with timestamp >= since, most recent first.
	Since(ctx context.Context, key string, since time.Time) ([]float64, error)
}

// StateRepo is the append-only on/off transition log.
type StateRepo interface {
	Append(ctx context.Context, key string, state bool) error
	// Latest returns nil when the key has no state.
	Latest(ctx context.Context, key string) (*models.StateRecord, error)
	AllLatest(ctx context.Context) (map[string]models.StateRecord, error)
}

type LabelRepo interface {
	All(ctx context.Context) (map[string]string, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControllerEvent) error
	List(ctx context.Context, f EventFilter) ([]models.ControllerEvent, error)
}

type OperatorRepo interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// EventFilter narrows an event listing; zero fields are ignored.
type EventFilter struct {
	From time.Time
	To   time.Time
	Type string
	Key  string
}

// Repository groups every table behind one shared lock.
type Repository struct {
	Readings  ReadingRepo
	States    StateRepo
	Labels    LabelRepo
	Events    EventRepo
	Operators OperatorRepo
}

func NewRepository(db *sql.DB, log *logger.Logger) *Repository {
	conn := NewConn(db, log)
	return &Repository{
		Readings:  NewReadingSQLite(conn),
		States:    NewStateSQLite(conn),
		Labels:    NewLabelSQLite(conn),
		Events:    NewEventSQLite(conn),
		Operators: NewOperatorSQLite(conn),
	}
}
