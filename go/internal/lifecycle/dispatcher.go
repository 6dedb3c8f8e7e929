// Package lifecycle ships game lifecycle events (created, started, revealed,
// finished) to an external bus without ever blocking a game session.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/events"
)

type Config struct {
	QueueSize      int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:      1024,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

type Stats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// Dispatcher queues events from sessions and publishes them from a single
// worker goroutine. Notify never blocks; when the queue is full the event is
// dropped and counted.
type Dispatcher struct {
	publisher EventPublisher
	config    Config
	clock     clockwork.Clock
	queue     chan events.Envelope

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(publisher EventPublisher, cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &Dispatcher{
		publisher: publisher,
		config:    cfg,
		clock:     clockwork.NewRealClock(),
		queue:     make(chan events.Envelope, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

func (d *Dispatcher) Notify(env events.Envelope) {
	select {
	case d.queue <- env:
	default:
		d.dropped.Add(1)
		log.Warn().
			Str("event_type", string(env.Type)).
			Str("game_id", env.GameID).
			Msg("lifecycle queue full, dropping event")
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("lifecycle dispatcher already running")
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	log.Info().
		Int("queue_size", d.config.QueueSize).
		Int("max_retries", d.config.MaxRetries).
		Msg("lifecycle dispatcher started")
	return nil
}

// Stop publishes whatever is still queued and waits for the worker to exit.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("lifecycle dispatcher not running")
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()

	log.Info().
		Int64("published", d.published.Load()).
		Int64("dropped", d.dropped.Load()).
		Msg("lifecycle dispatcher stopped")
	return nil
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Published: d.published.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
		Pending:   len(d.queue),
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			d.drain()
			return
		case env := <-d.queue:
			d.publish(ctx, env)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case env := <-d.queue:
			d.publish(context.Background(), env)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, env events.Envelope) {
	if err := d.publishWithRetry(ctx, env); err != nil {
		d.failed.Add(1)
		log.Error().
			Err(err).
			Str("event_id", env.ID.String()).
			Str("event_type", string(env.Type)).
			Str("game_id", env.GameID).
			Msg("failed to publish lifecycle event")
		return
	}
	d.published.Add(1)
}

func (d *Dispatcher) publishWithRetry(ctx context.Context, env events.Envelope) error {
	var lastErr error

	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-d.clock.After(d.config.RetryDelay * time.Duration(attempt)):
			}
		}

		pctx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
		err := d.publisher.Publish(pctx, env)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("event_id", env.ID.String()).
			Int("attempt", attempt+1).
			Msg("failed to publish lifecycle event, retrying")
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
