package events

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

// Sink is a destination for committed board events.
type Sink interface {
	Send(ctx context.Context, ev domain.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev domain.Event) error

func (f SinkFunc) Send(ctx context.Context, ev domain.Event) error { return f(ctx, ev) }

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers        int
	Buffer         int
	SendTimeout    time.Duration
	HandoffTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer < 0 {
		c.Buffer = 0
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	return c
}

// Dispatcher delivers events to its sinks on a bounded pool of workers so a
// slow sink never holds up a mutation. It implements domain.Publisher.
type Dispatcher struct {
	cfg   DispatcherConfig
	sinks []Sink
	log   *log.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.Event
	wg     sync.WaitGroup
}

// NewDispatcher starts cfg.Workers goroutines delivering to sinks.
func NewDispatcher(cfg DispatcherConfig, logger *log.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		panic("events.NewDispatcher: logger is nil")
	}
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:   cfg,
		sinks: sinks,
		log:   logger,
		jobs:  make(chan domain.Event, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("event dispatcher started, workers: %d, buffer: %d, sinks: %d, handoff: %v", cfg.Workers, cfg.Buffer, len(sinks), cfg.HandoffTimeout)
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for ev := range d.jobs {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
			err := s.Send(ctx, ev)
			cancel()
			if err != nil {
				d.log.WithFields(log.Fields{
					"event":   ev.Type,
					"version": ev.Version,
					"worker":  id,
				}).WithError(err).Error("event delivery failed")
			}
		}
	}
}

// Publish hands ev to the pool. When the buffer stays full for longer than
// the handoff timeout the event is dropped and logged.
func (d *Dispatcher) Publish(ctx context.Context, ev domain.Event) {
	if err := d.enqueue(ev); err != nil {
		d.log.WithFields(log.Fields{"event": ev.Type, "version": ev.Version}).WithError(err).Warn("event dropped")
	}
}

var (
	errDispatcherClosed = errors.New("dispatcher closed")
	errDispatcherBusy   = errors.New("dispatcher busy")
)

func (d *Dispatcher) enqueue(ev domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.jobs <- ev:
		return nil
	default:
	}
	if d.cfg.HandoffTimeout <= 0 {
		return errDispatcherBusy
	}

	timer := time.NewTimer(d.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case d.jobs <- ev:
		return nil
	case <-timer.C:
		return errDispatcherBusy
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}
