package automation

import (
	"clanManager/pkg/logger"
	"clanManager/pkg/metrics"
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const jobTimeout = 20 * time.Minute

// Crontabs of the automated routines, evaluated in UTC.
const (
	ResetTickCron     = "20-58 9 * * *"
	ResetDeadlineCron = "59 9 * * *"
	PostResetCron     = "0 10 * * *"
	EveningStatsCron  = "0 10-23 * * 4,5,6,0"
	MorningStatsCron  = "0 0-9 * * 5,6,0,1"
	DrainWarningsCron = "*/5 * * * *"
)

type Scheduler struct {
	sched   gocron.Scheduler
	service *automationService
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler registers every routine of service. Jobs never overlap: a job
// due while another runs waits for it to finish.
func NewScheduler(service *automationService) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLimitConcurrentJobs(1, gocron.LimitModeWait),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{sched: sched, service: service, ctx: ctx, cancel: cancel}

	jobs := []struct {
		name string
		cron string
		fn   func(ctx context.Context) error
	}{
		{"reset_tick", ResetTickCron, service.ResetTick},
		{"reset_deadline", ResetDeadlineCron, service.ResetDeadlineReached},
		{"post_reset", PostResetCron, service.PostReset},
		{"evening_battle_stats", EveningStatsCron, service.BattleStats},
		{"morning_battle_stats", MorningStatsCron, service.BattleStats},
		{"outside_battles_warnings", DrainWarningsCron, func(ctx context.Context) error {
			_, err := service.DrainWarnings(ctx)
			return err
		}},
	}

	for _, j := range jobs {
		if _, err := sched.NewJob(
			gocron.CronJob(j.cron, false),
			gocron.NewTask(s.run(j.name, j.fn)),
			gocron.WithName(j.name),
		); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}

	return s, nil
}

// run wraps fn with a trace id, a timeout and job metrics.
func (s *Scheduler) run(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(WithTraceID(s.ctx), jobTimeout)
		defer cancel()

		start := time.Now()
		logger.Info("Automation started", "job", name, "trace_id", TraceID(ctx))

		err := fn(ctx)
		metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			logger.Error("Automation failed", "job", name, "error", err, "trace_id", TraceID(ctx))
			return
		}

		metrics.JobRuns.WithLabelValues(name, "success").Inc()
		logger.Info("Automation finished", "job", name, "duration", time.Since(start).String(), "trace_id", TraceID(ctx))
	}
}

func (s *Scheduler) Jobs() []gocron.Job {
	return s.sched.Jobs()
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}
