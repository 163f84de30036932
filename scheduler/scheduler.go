// Package scheduler drives the engine from cron. The engine has no
// reentrancy guard of its own, so every job runs under one mutex — two
// overlapping monitor passes against the same active-trade set would be a
// data race.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quantrail/advisor"
	"github.com/quantrail/advisor/logger"
)

// Scheduler owns the cron instance and the serialization mutex.
type Scheduler struct {
	cron   *cron.Cron
	engine *advisor.Engine
	log    logger.Logger
	ctx    context.Context

	mu             sync.Mutex
	gatewayTimeout time.Duration
}

// New builds a scheduler around an engine. gatewayTimeout bounds each job's
// gateway I/O; the engine itself never times out.
func New(ctx context.Context, engine *advisor.Engine, log logger.Logger, gatewayTimeout time.Duration) *Scheduler {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:           cron.New(cron.WithSeconds()),
		engine:         engine,
		log:            log,
		ctx:            ctx,
		gatewayTimeout: gatewayTimeout,
	}
}

// Register installs the analyze/execute and monitor jobs.
func (s *Scheduler) Register(analyzeCron, monitorCron string) error {
	if _, err := s.cron.AddFunc(analyzeCron, s.analyzeJob); err != nil {
		return fmt.Errorf("register analyze job: %w", err)
	}
	if _, err := s.cron.AddFunc(monitorCron, s.monitorJob); err != nil {
		return fmt.Errorf("register monitor job: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler_started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler_stopped")
}

// RunAnalyzeNow triggers the analyze job immediately (manual trigger).
func (s *Scheduler) RunAnalyzeNow() { s.analyzeJob() }

func (s *Scheduler) analyzeJob() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.gatewayTimeout)
	defer cancel()

	trade, err := s.engine.ExecuteSignals(ctx)
	if err != nil {
		s.log.Error("analyze_job_failed", logger.Err(err))
		return
	}
	if trade != nil {
		s.log.Info("analyze_job_opened_trade",
			logger.String("trade_id", trade.ID),
			logger.String("symbol", trade.Symbol),
		)
	}
}

func (s *Scheduler) monitorJob() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.gatewayTimeout)
	defer cancel()

	closed, err := s.engine.Monitor(ctx)
	if err != nil {
		s.log.Error("monitor_job_failed", logger.Err(err))
		return
	}
	for _, t := range closed {
		s.log.Info("monitor_job_closed_trade",
			logger.String("trade_id", t.ID),
			logger.Float64("pnl", t.PnL),
		)
	}
}
