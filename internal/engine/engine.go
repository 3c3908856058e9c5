package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/reducer"
)

// Transition describes one applied command.
type Transition struct {
	// ID correlates the transition with its command (from the IDGenerator).
	ID string

	// Seq is the logical time of the transition.
	Seq int64

	// Type is the command type.
	Type action.Type

	// Changed is false when the reducer returned the previous state.
	Changed bool

	// State is the state after the command.
	State *ir.State
}

// Entry is one journal record.
type Entry struct {
	Seq     int64
	ID      string
	Command action.Command
}

// Listener is called after every transition, on the dispatching goroutine.
// Transitions arrive in seq order. Listeners must not call Dispatch.
type Listener func(Transition)

// Engine is the single-writer state container.
//
// Thread-safety model:
//   - Dispatch, Enqueue, State, Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	mu       sync.Mutex // serializes transitions
	notifyMu sync.Mutex // held from mu to the end of notify; keeps seq order
	state    atomic.Pointer[ir.State]

	clock   Sequencer
	ids     IDGenerator
	queue   *commandQueue
	metrics *Metrics
	logger  *slog.Logger

	journalOn bool
	journal   []Entry
	initial   *ir.State

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int

	registerer prometheus.Registerer
	initErr    error
}

// Option configures an Engine.
type Option func(*Engine)

// WithInitialState starts the engine from s instead of the empty state.
func WithInitialState(s *ir.State) Option {
	return func(e *Engine) {
		if s != nil {
			e.initial = s
		}
	}
}

// WithIDGenerator overrides the dispatch id generator (default UUIDv7).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock overrides the logical clock, e.g. to resume after a replay.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRegisterer exports metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// WithJournal keeps every applied command for Replay and Verify.
func WithJournal(on bool) Option {
	return func(e *Engine) {
		e.journalOn = on
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine. Metrics registration errors are reported by Err.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:     NewClock(),
		ids:       UUIDv7Generator{},
		queue:     newCommandQueue(),
		logger:    slog.Default(),
		initial:   reducer.Initial(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registerer != nil {
		e.metrics, e.initErr = NewMetrics(e.registerer)
	}
	e.state.Store(e.initial)
	return e
}

// Err returns the error from setting up the engine, if any.
func (e *Engine) Err() error {
	return e.initErr
}

// State returns the current state. Never nil.
func (e *Engine) State() *ir.State {
	return e.state.Load()
}

// Normalized implements selector.Source.
func (e *Engine) Normalized() *ir.State {
	return e.State()
}

// Seq returns the seq of the last transition.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Dispatch applies cmd synchronously and returns the transition.
func (e *Engine) Dispatch(cmd action.Command) Transition {
	e.mu.Lock()
	prev := e.state.Load()
	next := reducer.Reduce(prev, cmd)
	t := Transition{
		ID:      e.ids.Generate(),
		Seq:     e.clock.Next(),
		Type:    cmd.Type(),
		Changed: next != prev,
		State:   next,
	}
	e.state.Store(next)
	if e.journalOn {
		e.journal = append(e.journal, Entry{Seq: t.Seq, ID: t.ID, Command: cmd})
	}
	e.metrics.observe(t.Type, prev, next)
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	e.logger.Debug("command applied",
		"id", t.ID,
		"seq", t.Seq,
		"type", t.Type,
		"changed", t.Changed,
	)
	e.notify(t)
	return t
}

// Subscribe registers fn to be called after every transition.
// The returned function removes the subscription.
func (e *Engine) Subscribe(fn Listener) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) notify(t Transition) {
	e.listenersMu.Lock()
	fns := make([]Listener, 0, len(e.listeners))
	// Subscription order.
	for i := 0; i < e.nextListener; i++ {
		if fn, ok := e.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	e.listenersMu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

// Enqueue queues cmd for the Run loop. Returns false once stopped.
func (e *Engine) Enqueue(cmd action.Command) bool {
	return e.queue.Enqueue(cmd)
}

// QueueLen returns the number of commands waiting for Run.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run drains the queue until ctx is cancelled or Stop is called.
// Commands queued before Stop are still applied. Returns ctx.Err() on
// cancellation and ErrStopped after a stop.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		if cmd, ok := e.queue.TryDequeue(); ok {
			e.Dispatch(cmd)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "pending", e.QueueLen())
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Closed() && e.QueueLen() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return ErrStopped
			}
		}
	}
}

// Stop closes the queue. Run returns once the queue is drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Journal returns a copy of the journal. Empty unless WithJournal(true).
func (e *Engine) Journal() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, len(e.journal))
	copy(out, e.journal)
	return out
}
