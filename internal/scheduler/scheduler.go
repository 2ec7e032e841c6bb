// Package scheduler runs the periodic profiling and cleaning jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/pipeline"
)

// Runner is the part of pipeline.Runner the jobs need.
type Runner interface {
	Run(ctx context.Context, mode pipeline.Mode, table string, limit int) (*pipeline.RunOutcome, error)
}

type Scheduler struct {
	cfg    config.ScheduleConfig
	runner Runner
	cron   *cron.Cron
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New registers the daily profile job and the weekly clean job. Specs use
// six fields with seconds first; an empty spec disables its job.
func New(cfg config.ScheduleConfig, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cfg:     cfg,
		runner:  runner,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.Named("scheduler"),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}

	jobs := []struct {
		name string
		spec string
		mode pipeline.Mode
	}{
		{"daily_profile", cfg.ProfileCron, pipeline.ModeProfile},
		{"weekly_clean", cfg.CleanCron, pipeline.ModeClean},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		name, mode := j.name, j.mode
		id, err := s.cron.AddFunc(j.spec, func() { s.RunJob(name, mode) })
		if err != nil {
			cancel()
			return nil, fmt.Errorf("invalid cron spec for %s %q: %w", name, j.spec, err)
		}
		s.entries[name] = id
	}

	return s, nil
}

// RunJob runs one job synchronously. Failures are logged and never
// propagate.
func (s *Scheduler) RunJob(name string, mode pipeline.Mode) {
	start := time.Now()
	s.logger.Info("Job started", zap.String("job", name), zap.Time("start", start))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()

	if _, err := s.runner.Run(s.ctx, mode, s.cfg.Table, s.cfg.Limit); err != nil {
		s.logger.Error("Job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("Job completed", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
}

// Next returns the next activation of a registered job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Jobs lists the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	return names
}

func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Strings("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
