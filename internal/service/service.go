package service

import (
	"context"

	"heating_controller/internal/config"
	"heating_controller/internal/hardware"
	"heating_controller/internal/logger"
	"heating_controller/internal/models"
	"heating_controller/internal/publisher"
	"heating_controller/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Valves runs the per-room valve decision.
type Valves interface {
	UpdateValves(ctx context.Context) error
}

// Stove runs the stove decision.
type Stove interface {
	UpdateStove(ctx context.Context) error
}

// Sampling copies live hardware values into the store.
type Sampling interface {
	ReadTemperatures(ctx context.Context) error
	ReadRelayStates(ctx context.Context) error
}

// Monitoring exposes read-only views of the store.
type Monitoring interface {
	Temperatures(ctx context.Context) (map[string]models.TemperatureReading, error)
	Temperature(ctx context.Context, key string) (*models.TemperatureReading, error)
	Snapshot(ctx context.Context) (map[string]models.EntityState, error)
}

// EventLog exposes the append-only decision log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Valves
	Stove
	Sampling
	Monitoring
	EventLog
	Authorization
}

// NewService wires the repository layer and devices into concrete services.
func NewService(cfg *config.Config, repos *repository.Repository, dev *hardware.Devices, pub publisher.Publisher, log *logger.Logger) *Service {
	if pub == nil {
		pub = publisher.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Valves:        NewValveService(cfg, dev.Valves, repos, pub, log),
		Stove:         NewStoveService(cfg, dev.Stove, repos, pub, log),
		Sampling:      NewSamplingService(cfg, dev, repos, pub, log),
		Monitoring:    NewMonitoringService(repos.Readings, repos.States),
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Operators, cfg.Auth),
	}
}
