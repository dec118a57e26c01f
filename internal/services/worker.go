package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops state that has been idle for longer than maxIdle and reports
// how many entries went away.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
}

type worker struct {
	sweepers map[string]Sweeper
	interval time.Duration
	maxIdle  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSessionSweeper periodically evicts idle per-session state.
func NewSessionSweeper(
	sweepers map[string]Sweeper,
	interval time.Duration,
	maxIdle time.Duration,
	logger *zap.Logger,
) Worker {
	return &worker{
		sweepers: sweepers,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("🔄 Starting session sweeper",
		zap.Duration("interval", w.interval),
		zap.Duration("max_idle", w.maxIdle),
	)

	w.wg.Add(1)
	go w.poll(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 Stopping session sweeper...")
		close(w.stopChan)
	})
	w.wg.Wait()
}

func (w *worker) poll(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("🔄 Session sweeper stopped")
			return
		case <-ctx.Done():
			w.logger.Info("🔄 Session sweeper stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *worker) sweep() {
	for name, sweeper := range w.sweepers {
		if removed := sweeper.Sweep(w.maxIdle); removed > 0 {
			w.logger.Debug("evicted idle session state",
				zap.String("sweeper", name),
				zap.Int("removed", removed),
			)
		}
	}
}
