package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultRestartDelay = 2 * time.Second

// DaemonFunc is the work a daemon does. It should return nil once ctx is done.
type DaemonFunc func(ctx context.Context, name string) error

// DaemonManager supervises background daemons and restarts the ones that fail.
type DaemonManager struct {
	logger       *slog.Logger
	restartDelay time.Duration
	daemons      map[string]DaemonFunc
	wg           sync.WaitGroup
}

func NewDaemonManager(logger *slog.Logger) *DaemonManager {
	return &DaemonManager{
		logger:       logger,
		restartDelay: defaultRestartDelay,
		daemons:      make(map[string]DaemonFunc),
	}
}

// Add registers a daemon by name. Call before Start.
func (m *DaemonManager) Add(name string, fn DaemonFunc) {
	m.daemons[name] = fn
}

func (m *DaemonManager) Start(ctx context.Context) {
	for name, fn := range m.daemons {
		m.wg.Add(1)
		go m.runDaemon(ctx, name, fn)
	}
}

// Wait blocks until all daemons have stopped.
func (m *DaemonManager) Wait() {
	m.wg.Wait()
}

func (m *DaemonManager) runDaemon(ctx context.Context, name string, fn DaemonFunc) {
	defer m.wg.Done()

	for {
		if ctx.Err() != nil {
			m.logger.Info("daemon received shutdown signal", "daemon", name)
			return
		}

		err := fn(ctx, name)
		if err == nil {
			m.logger.Info("daemon exited cleanly", "daemon", name)
			return
		}

		m.logger.Error("daemon crashed, restarting", "daemon", name, "error", err, "delay", m.restartDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.restartDelay):
		}
	}
}
