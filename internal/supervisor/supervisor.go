// Package supervisor wires the background tasks (delivery queue,
// scheduler, HTTP server) that coexist with request handlers: each is
// an independent long-running task started at boot and stopped at
// shutdown with a bounded grace period, not tied to any single
// request's lifecycle.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// task is anything the supervisor starts at boot and stops at shutdown.
type task interface {
	start(ctx context.Context) error
	stop(ctx context.Context) error
}

// Supervisor owns the delivery queue, scheduler and HTTP server for the
// lifetime of the process.
type Supervisor struct {
	logger        *slog.Logger
	shutdownGrace time.Duration
	tasks         []task
}

// New builds a Supervisor. shutdownGrace bounds how long Stop waits for
// every task to wind down before giving up.
func New(logger *slog.Logger, shutdownGrace time.Duration) *Supervisor {
	if shutdownGrace <= 0 {
		shutdownGrace = 10 * time.Second
	}
	return &Supervisor{logger: logger, shutdownGrace: shutdownGrace}
}

// delivery/scheduler both expose Start(ctx)/Stop() with no error return;
// wrap them to satisfy task.
type startStopper struct {
	startFn func(ctx context.Context)
	stopFn  func()
}

func (s startStopper) start(ctx context.Context) error {
	s.startFn(ctx)
	return nil
}

func (s startStopper) stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.stopFn()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errStartStopper wraps a Start(ctx) error / Stop() no-return pair, used
// by the scheduler whose Start can fail (e.g. loading accounts).
type errStartStopper struct {
	startFn func(ctx context.Context) error
	stopFn  func()
}

func (s errStartStopper) start(ctx context.Context) error {
	return s.startFn(ctx)
}

func (s errStartStopper) stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.stopFn()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// httpServer wraps *http.Server's ListenAndServe/Shutdown into a task.
type httpServer struct {
	server *http.Server
	logger *slog.Logger
}

func (h httpServer) start(ctx context.Context) error {
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("http server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

func (h httpServer) stop(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// AddDeliveryQueue registers the delivery worker pool.
func (sv *Supervisor) AddDeliveryQueue(start func(ctx context.Context), stop func()) {
	sv.tasks = append(sv.tasks, startStopper{startFn: start, stopFn: stop})
}

// AddScheduler registers the per-account poll scheduler.
func (sv *Supervisor) AddScheduler(start func(ctx context.Context) error, stop func()) {
	sv.tasks = append(sv.tasks, errStartStopper{startFn: start, stopFn: stop})
}

// AddHTTPServer registers the HTTP control-plane server.
func (sv *Supervisor) AddHTTPServer(server *http.Server) {
	sv.tasks = append(sv.tasks, httpServer{server: server, logger: sv.logger})
}

// Start boots every registered task in registration order, stopping
// whatever already started if one of them fails.
func (sv *Supervisor) Start(ctx context.Context) error {
	for i, t := range sv.tasks {
		if err := t.start(ctx); err != nil {
			sv.logger.Error("task failed to start", "index", i, "error", err)
			sv.stopStarted(context.Background(), sv.tasks[:i])
			return err
		}
	}
	return nil
}

// Stop stops every task in reverse registration order, bounded by the
// configured grace period.
func (sv *Supervisor) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), sv.shutdownGrace)
	defer cancel()
	sv.stopStarted(ctx, sv.tasks)
}

func (sv *Supervisor) stopStarted(ctx context.Context, tasks []task) {
	for i := len(tasks) - 1; i >= 0; i-- {
		if err := tasks[i].stop(ctx); err != nil {
			sv.logger.Error("task failed to stop cleanly", "index", i, "error", err)
		}
	}
}
