// Package scheduler repeats pipeline runs on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "@every 24h"

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *zap.Logger
}

func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduled job is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec = strings.TrimSpace(spec); spec == "" {
		spec = DefaultSpec
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

func (s *Scheduler) Spec() string {
	return s.spec
}

// Run registers the job, optionally runs it once right away, and blocks until
// ctx is cancelled. It returns after the in-flight run, if any, has finished.
func (s *Scheduler) Run(ctx context.Context, immediately bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	if immediately {
		s.tick(ctx)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec), zap.Time("next", s.Next()))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")

	return nil
}

// Next returns the next activation time, or the zero time before Run.
func (s *Scheduler) Next() (next time.Time) {
	for _, entry := range s.cron.Entries() {
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.logger.Info("scheduled run started")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled run finished")
}

// cronLogger routes cron's internal logging to zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
