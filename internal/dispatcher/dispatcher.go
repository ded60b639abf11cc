// Package dispatcher routes events by command name. Matches publish post-tick
// notifications through it and the streaming backend feeds inbound client
// commands into it. Handlers run inline or on a per-command queue.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is a command routed between the match loop and its collaborators:
// inbound client intents and outbound post-tick notifications.
type Event struct {
	Command   string
	MatchID   string
	Payload   any
	Timestamp time.Time
}

var (
	// ErrUnknownCommand is returned by Dispatch when no handler is registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking queued handler dropped the event.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Queued is the result of dispatching to a buffered handler.
const Queued = "queued"

// Option configures handler registration.
type Option func(*routeOptions)

type routeOptions struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of size.
func Buffered(size int) Option {
	return func(o *routeOptions) {
		o.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(o *routeOptions) {
		o.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(o *routeOptions) {
		o.logged = true
	}
}

// route is one registered command.
type route struct {
	command  string
	handler  HandlerFunc
	queue    chan Event // nil for inline handlers
	blocking bool
	logged   bool
	attrs    metric.MeasurementOption
}

// Dispatcher routes events to registered handlers. Register is meant to be
// called during startup; Dispatch is safe from any goroutine.
type Dispatcher struct {
	logger Logger

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter

	mu     sync.RWMutex
	routes map[string]*route
	closed bool
	wg     sync.WaitGroup
}

const instrumentationName = "github.com/cradlewars/arena/internal/dispatcher"

// New creates a Dispatcher. Metrics go to the global meter provider.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]*route),
		logger: logger,
	}
	if err := d.initMetrics(otel.Meter(instrumentationName)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) initMetrics(m metric.Meter) error {
	var err error
	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Events waiting in a handler queue"),
	)
	if err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for _, r := range d.routes {
			if r.queue != nil {
				o.ObserveInt64(d.queueSize, int64(len(r.queue)), metric.WithAttributes(attribute.String("command", r.command)))
			}
		}
		return nil
	}, d.queueSize)
	if err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Events handled by queued handlers"),
	)
	if err != nil {
		return fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Events dropped because a handler queue was full"),
	)
	if err != nil {
		return fmt.Errorf("creating dropped counter: %w", err)
	}
	return nil
}

// Register adds a handler for the given command, replacing any earlier one.
// Registering after Close is ignored.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logged {
		h = d.withLogging(command, h)
	}

	r := &route{
		command:  command,
		handler:  h,
		blocking: o.blocking,
		logged:   o.logged,
		attrs:    metric.WithAttributes(attribute.String("command", command)),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if old, ok := d.routes[command]; ok && old.queue != nil {
		close(old.queue)
	}
	if o.bufferSize > 0 {
		r.queue = make(chan Event, o.bufferSize)
		d.wg.Add(1)
		go d.drain(r)
	}
	d.routes[command] = r
}

// Dispatch routes an event to its registered handler. Queued handlers
// return Queued immediately.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, ErrClosed
	}
	r, ok := d.routes[e.Command]
	if !ok {
		d.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if r.queue == nil {
		d.mu.RUnlock()
		return r.handler(e)
	}
	defer d.mu.RUnlock()
	return d.enqueue(r, e)
}

// enqueue runs with d.mu read-locked so Close cannot close the queue under it.
func (d *Dispatcher) enqueue(r *route, e Event) (any, error) {
	if r.blocking {
		r.queue <- e
		return Queued, nil
	}
	select {
	case r.queue <- e:
		return Queued, nil
	default:
		d.dropped.Add(context.Background(), 1, r.attrs)
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, r.command)
	}
}

func (d *Dispatcher) drain(r *route) {
	defer d.wg.Done()
	for e := range r.queue {
		if _, err := r.handler(e); err != nil && !r.logged && d.logger != nil {
			d.logger.Error("buffered handler failed", "command", r.command, "match", e.MatchID, "error", err)
		}
		d.processed.Add(context.Background(), 1, r.attrs)
	}
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Close rejects further events and waits until every queued event has been
// handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.queue != nil {
			close(r.queue)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "match", e.MatchID)

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "match", e.MatchID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "match", e.MatchID, "duration", time.Since(start))
		}

		return result, err
	}
}
