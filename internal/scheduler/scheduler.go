package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/logger"
	"heating_controller/internal/metrics"
	"heating_controller/internal/models"
	"heating_controller/internal/repository"
	"heating_controller/internal/service"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job names, also used as metric labels.
const (
	JobTemperatures = "read_temperatures"
	JobRelays       = "read_relay_states"
	JobValves       = "update_valves"
	JobStove        = "update_stove"
)

// Job is a named unit of periodic work triggered by a cron expression with a
// leading seconds field.
type Job struct {
	Name string
	Expr string
	Run  func(ctx context.Context) error
}

// Jobs returns the controller's periodic jobs in registration order.
func Jobs(cfg config.Jobs, svc *service.Service) []Job {
	return []Job{
		{Name: JobTemperatures, Expr: cfg.Temperatures, Run: svc.ReadTemperatures},
		{Name: JobRelays, Expr: cfg.Relays, Run: svc.ReadRelayStates},
		{Name: JobValves, Expr: cfg.Valves, Run: svc.UpdateValves},
		{Name: JobStove, Expr: cfg.Stove, Run: svc.UpdateStove},
	}
}

// Scheduler triggers jobs on their cron schedule. Every tick runs on its own
// goroutine; a tick that finds the previous run of the same job still active
// is dropped.
type Scheduler struct {
	cron    *cron.Cron
	runners []*runner
	log     *logger.Logger
}

// New validates every cron expression and registers the jobs. ctx is handed
// to each job invocation; cancelling it does not stop the cron clock.
func New(ctx context.Context, jobs []Job, events repository.EventRepo, log *logger.Logger) (*Scheduler, error) {
	log = log.Named("scheduler")
	s := &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(logger.Cron(log))),
		log:  log,
	}
	for _, j := range jobs {
		r := &runner{
			job:    j,
			ctx:    ctx,
			events: events,
			log:    log.With("job", j.Name),
			now:    time.Now,
		}
		if _, err := s.cron.AddJob(j.Expr, r); err != nil {
			return nil, &config.ConfigurationError{
				Msg: fmt.Sprintf("schedule %s: invalid cron expression %q", j.Name, j.Expr),
				Err: err,
			}
		}
		s.runners = append(s.runners, r)
	}
	return s, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, r := range s.runners {
		s.log.Infow("job_scheduled", "job", r.job.Name, "cron", r.job.Expr)
	}
}

// Stop prevents new ticks and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Infow("scheduler_stopped")
		return nil
	case <-ctx.Done():
		s.log.Warnw("scheduler_stop_timeout", "err", ctx.Err())
		return ctx.Err()
	}
}

// runner adapts a Job to cron.Job with a single-flight guard, panic recovery
// and failure reporting.
type runner struct {
	job     Job
	ctx     context.Context
	events  repository.EventRepo
	log     *logger.Logger
	now     func() time.Time
	running atomic.Bool
}

func (r *runner) Run() {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warnw("job_tick_dropped", "reason", "previous run still in progress")
		metrics.IncJobDropped(r.job.Name)
		return
	}
	defer r.running.Store(false)

	runID := uuid.NewString()
	log := r.log.With("run_id", runID)
	start := r.now()
	log.Debugw("job_started")

	err := r.invoke()
	elapsed := r.now().Sub(start)
	if err != nil {
		metrics.ObserveJob(r.job.Name, metrics.ResultError, elapsed)
		log.Errorw("job_failed", "err", err, "duration", elapsed)
		r.recordFailure(runID, err)
		return
	}
	metrics.ObserveJob(r.job.Name, metrics.ResultSuccess, elapsed)
	log.Debugw("job_finished", "duration", elapsed)
}

func (r *runner) invoke() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.job.Run(r.ctx)
}

func (r *runner) recordFailure(runID string, jobErr error) {
	if r.events == nil {
		return
	}
	e := models.ControllerEvent{
		Type:        models.EventJobFailed,
		Description: fmt.Sprintf("job %s failed: %v", r.job.Name, jobErr),
		Metadata: map[string]any{
			"job":    r.job.Name,
			"run_id": runID,
			"error":  jobErr.Error(),
		},
	}
	if err := r.events.Append(r.ctx, e); err != nil {
		r.log.Warnw("event_append_failed", "type", e.Type, "run_id", runID, "err", err)
	}
}
