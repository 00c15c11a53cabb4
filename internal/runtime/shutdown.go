// Package runtime ties process signals to a cancellable context and runs
// cleanup handlers when the process stops.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/joss/calc/internal/logging"
)

// ShutdownFunc is a cleanup function called during shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager cancels its context on SIGINT/SIGTERM and runs the
// registered cleanup handlers once, on Shutdown.
type ShutdownManager struct {
	mu       sync.Mutex
	handlers []namedHandler
	timeout  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	once     sync.Once
	err      error
}

type namedHandler struct {
	name string
	fn   ShutdownFunc
}

// DefaultShutdownTimeout bounds the total time spent in cleanup handlers.
const DefaultShutdownTimeout = 5 * time.Second

// NewShutdownManager creates a new shutdown manager with specified timeout
func NewShutdownManager(timeout time.Duration, logger *zap.Logger) *ShutdownManager {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logging.Component(logger, "shutdown"),
	}
}

// Register adds a cleanup handler to be called during shutdown
// Handlers are called in reverse order (LIFO) - last registered, first called
func (m *ShutdownManager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// RegisterSimple adds a simple cleanup function (no error return)
func (m *ShutdownManager) RegisterSimple(name string, fn func()) {
	m.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Context returns a context that is cancelled by a signal or by Shutdown.
func (m *ShutdownManager) Context() context.Context {
	return m.ctx
}

// ListenForSignals cancels Context on SIGINT or SIGTERM. Handlers are not
// run; the caller finishes its work and then calls Shutdown.
func (m *ShutdownManager) ListenForSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			m.logger.Info("signal_received", zap.String("signal", sig.String()))
			m.cancel()
		case <-m.ctx.Done():
		}
	}()
}

// Shutdown cancels Context and runs the handlers. It runs once; later calls
// return the first result.
func (m *ShutdownManager) Shutdown() error {
	m.once.Do(func() {
		m.err = m.performShutdown()
	})
	return m.err
}

func (m *ShutdownManager) performShutdown() error {
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	var errs []error
	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, ctx.Err()))
			continue
		}

		start := time.Now()
		err := h.fn(ctx)
		if err != nil {
			m.logger.Warn("shutdown_handler_failed",
				zap.String("handler", h.name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.logger.Debug("shutdown_handler_done",
			zap.String("handler", h.name),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}
