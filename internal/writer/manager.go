// Package writer serializes mutations of the credential store through a single worker.
package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Submit once the manager is not running.
var ErrStopped = errors.New("writer stopped")

// Job is a unit of work executed on the writer goroutine.
type Job func(ctx context.Context) error

// Manager runs submitted jobs one at a time in submission order.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Submit(ctx context.Context, job Job) error
}

type Config struct {
	QueueSize int
	Logger    *logrus.Logger
}

type request struct {
	ctx  context.Context
	job  Job
	done chan error
}

type manager struct {
	cfg Config

	queue  chan request
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	alive  bool
}

func NewManager(cfg Config) Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:   cfg,
		queue: make(chan request, cfg.QueueSize),
	}
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alive {
		return fmt.Errorf("writer already started")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.alive = true

	m.wg.Add(1)
	go m.loop()

	m.cfg.Logger.Info("store writer started")
	return nil
}

func (m *manager) Shutdown() {
	m.mu.Lock()
	m.alive = false
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.cfg.Logger.Info("store writer stopped")
}

func (m *manager) Submit(ctx context.Context, job Job) error {
	done := make(chan error, 1)

	m.mu.RLock()
	if !m.alive {
		m.mu.RUnlock()
		return ErrStopped
	}
	select {
	case m.queue <- request{ctx: ctx, job: job, done: done}:
	case <-ctx.Done():
		m.mu.RUnlock()
		return ctx.Err()
	case <-m.ctx.Done():
		m.mu.RUnlock()
		return ErrStopped
	}
	m.mu.RUnlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			m.drain()
			return
		case req := <-m.queue:
			m.run(req)
		}
	}
}

// drain fails whatever was queued before shutdown so no submitter waits forever.
func (m *manager) drain() {
	for {
		select {
		case req := <-m.queue:
			req.done <- ErrStopped
		default:
			return
		}
	}
}

func (m *manager) run(req request) {
	if err := req.ctx.Err(); err != nil {
		req.done <- err
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.cfg.Logger.Errorf("store writer job panicked: %v", r)
			req.done <- fmt.Errorf("writer job panicked: %v", r)
		}
	}()

	req.done <- req.job(req.ctx)
}
