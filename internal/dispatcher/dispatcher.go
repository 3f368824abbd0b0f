// Package dispatcher is the editor's event loop: named events are routed to
// registered handlers, and work that completes off the loop (network
// replies, timers) is posted back so every handler runs on one goroutine.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrQueueFull is returned by Post when the loop queue has no room.
var ErrQueueFull = errors.New("event queue full")

// DefaultQueueSize is the loop queue capacity used when New gets zero.
const DefaultQueueSize = 256

// Event represents something that happened to the editor: a map click, a
// completed drawing, a lookup reply.
type Event struct {
	Command   string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   Logger

	queue chan Event

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger and loop queue size.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, queueSize int) (*Dispatcher, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		queue:    make(chan Event, queueSize),
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events waiting for the loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(len(d.queue)))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total queued events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch runs the handler for e on the caller's goroutine.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Post queues e for the loop. It is safe to call from any goroutine and
// never blocks.
func (d *Dispatcher) Post(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case d.queue <- e:
		return nil
	default:
		d.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", e.Command)))
		return fmt.Errorf("%w: %s", ErrQueueFull, e.Command)
	}
}

// Run processes queued events one at a time until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-d.queue:
			d.process(e)
		}
	}
}

// RunPending processes the events already queued and returns how many ran.
// Events posted by those handlers are processed too.
func (d *Dispatcher) RunPending() int {
	n := 0
	for {
		select {
		case e := <-d.queue:
			d.process(e)
			n++
		default:
			return n
		}
	}
}

// QueueLen returns the number of events waiting for the loop.
func (d *Dispatcher) QueueLen() int {
	return len(d.queue)
}

func (d *Dispatcher) process(e Event) {
	cmdAttr := attribute.String("command", e.Command)
	if _, err := d.Dispatch(e); err != nil {
		d.failed.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		d.logger.Error("queued event failed", "command", e.Command, "error", err)
	}
	d.processed.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "queued", time.Since(e.Timestamp))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
