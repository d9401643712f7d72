package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "heating_controller/docs"
	"heating_controller/internal/config"
	"heating_controller/internal/handlers"
	"heating_controller/internal/hardware"
	"heating_controller/internal/logger"
	"heating_controller/internal/metrics"
	"heating_controller/internal/publisher"
	"heating_controller/internal/repository"
	"heating_controller/internal/repository/db"
	"heating_controller/internal/scheduler"
	"heating_controller/internal/server"
	"heating_controller/internal/service"
)

const (
	setupTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title                       Heating Controller API
// @version                     1.0
// @description                 Read-only view of room temperatures, valve and stove states, and the controller event log.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Get(logger.ErrorLevel, logger.ConsoleEncoding).Fatalw("config_load_failed", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()
	log.Infow("starting", "rooms", len(cfg.Rooms), "driver", cfg.Hardware.Driver, "db", cfg.DB.Path)

	metrics.Init()

	sqlDB, err := db.InitDB(cfg.DB.Path, cfg.Labels())
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB, log)

	dev := mustSetupDevices(cfg, log)
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			log.Errorw("failed to release hardware", "err", cerr)
		}
	}()

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		// Publishing is best-effort; run without it.
		log.Warnw("mqtt_unavailable", "broker", cfg.MQTT.Broker, "err", err)
		pub = publisher.Nop{}
	}
	defer func() { _ = pub.Close() }()

	services := service.NewService(cfg, repos, dev, pub, log)

	// context handed to scheduled jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, err := scheduler.New(ctx, scheduler.Jobs(cfg.Schedule, services), repos.Events, log)
	if err != nil {
		log.Fatalw("invalid schedule", "err", err)
	}
	sched.Start()

	apiHandler := handlers.NewHandler(services, log.Named("http"), cfg.Auth.Enabled)
	srv := server.New(cfg.HTTP.Port, apiHandler.InitRoutes())
	runHTTPServer(srv, log)

	waitForShutdown(cancel, sched, srv, log)
}

// mustSetupDevices opens every configured sensor and relay and configures
// relays as outputs. Any failure is fatal.
func mustSetupDevices(cfg *config.Config, log *logger.Logger) *hardware.Devices {
	dev, err := hardware.Build(cfg, log.Named("hardware"))
	if err != nil {
		log.Fatalw("failed to open hardware", "err", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if err := dev.SetupAll(ctx, cfg.Rooms); err != nil {
		_ = dev.Close()
		log.Fatalw("relay setup failed", "err", err)
	}
	return dev
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the scheduler
// before the HTTP server so no job starts against a closing store.
func waitForShutdown(cancel context.CancelFunc, sched *scheduler.Scheduler, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("shutting_down", "signal", sig.String())

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := sched.Stop(ctx); err != nil {
		log.Warnw("jobs still running at shutdown", "err", err)
	}
	cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
