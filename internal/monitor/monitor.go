// Package monitor implements the live change monitor: a coalesced,
// batched consumer of filesystem change events that upserts/deletes index
// rows and checkpoints a monotonic event id for crash recovery.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/akelsh/seek/internal/logging"
	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/store"
)

// State is the monitor's lifecycle state, per the design.
type State int

const (
	Stopped State = iota
	Starting
	Active
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const (
	// DefaultBatchSize is B in the batching rule.
	DefaultBatchSize = 50
	// DefaultDebounce is D in the batching rule.
	DefaultDebounce = 2 * time.Second
)

// Monitor watches a set of root directories for structural filesystem
// changes and keeps the store in sync: a dedicated fsWatcher, an
// eventLoop goroutine selecting over events/errors/ctx.Done(), and an
// isStructural policy-driven gate deciding which raw fsnotify events are
// worth queuing, translated through the events.go adapter into a
// kernel-independent change-event abstraction.
type Monitor struct {
	store *store.Store
	factory *scanner.Factory
	logger *logging.Logger

	excluder func(path, name string, isDirectory bool) bool

	batchSize int
	debounce time.Duration

	mu sync.Mutex
	state State
	fsWatcher *fsnotify.Watcher
	roots []string
	pending map[string]struct{}
	timer *time.Timer
	cancelLoop context.CancelFunc
	nextEventID int64
	maxEventID int64
}

// New builds a Monitor. excluder is typically policy.Policy.Exclude and
// gates which changed paths are even considered. batchSize and debounce
// come from MonitorConfig; a non-positive value falls back to the
// package default rather than forcing every caller to know it.
func New(st *store.Store, factory *scanner.Factory, logger *logging.Logger, excluder func(path, name string, isDirectory bool) bool, batchSize int, debounce time.Duration) *Monitor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Monitor{
		store: st,
		factory: factory,
		logger: logger,
		excluder: excluder,
		batchSize: batchSize,
		debounce: debounce,
		state: Stopped,
		pending: make(map[string]struct{}),
	}
}

// State reports the monitor's current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// IsEventIDValid implements the validity check: it attempts to
// create a watcher over roots; if that succeeds, the kernel (here,
// fsnotify) accepts monitoring those roots and the stored id is treated
// as resumable. fsnotify has no notion of "since id" itself, so the
// practical test is reduced to "can we still watch these roots at all" —
// documented in DESIGN.md as a reasoned substitution for a kernel id's
// acceptance check.
func (m *Monitor) IsEventIDValid(ctx context.Context, eventID int64, roots []string) bool {
	if eventID <= 0 {
		return false
	}
	probe, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.WithContext("error", err.Error()).Warn("event-id validity probe could not create a watcher")
		return false
	}
	defer probe.Close()

	for _, root := range roots {
		if err := probe.Add(root); err != nil {
			m.logger.WithFields(map[string]interface{}{
					"root": root, "error": err.Error(),
				}).Warn("event-id validity probe rejected a root")
			return false
		}
	}
	return true
}

// StartMonitoringWithRecovery implements the start transition:
// idempotent when already Active; loads last_event_id and begins "since
// that id" if valid, otherwise "since now".
func (m *Monitor) StartMonitoringWithRecovery(ctx context.Context, roots []string) error {
	m.mu.Lock()
	if m.state == Active {
		m.mu.Unlock()
		return nil
	}
	m.state = Starting
	m.mu.Unlock()

	meta, err := m.store.GetMetadata(ctx)
	if err != nil {
		m.setState(Stopped)
		return fmt.Errorf("failed to read metadata before starting monitor: %w", err)
	}

	resuming := meta.HasLastEventID && m.IsEventIDValid(ctx, meta.LastEventID, roots)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		m.setState(Stopped)
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	for _, root := range roots {
		if err := fsw.Add(root); err != nil {
			m.logger.WithOperation("monitor").WithRoot(root).
				WithContext("error", err.Error()).
				Warn("skipping root the watcher could not attach to")
			continue
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.fsWatcher = fsw
	m.roots = roots
	m.cancelLoop = cancel
	m.state = Active
	if resuming {
		m.nextEventID = meta.LastEventID + 1
	} else {
		m.nextEventID = 1
	}
	m.mu.Unlock()

	m.logger.WithOperation("monitor").WithFields(map[string]interface{}{
			"roots": roots, "resuming": resuming,
		}).Info("change monitor started")

	go m.eventLoop(loopCtx)

	return nil
}

// StopMonitoring implements the stop transition: invalidates
// the stream, cancels the debounce timer, clears pending_updates.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if m.state == Stopped {
		m.mu.Unlock()
		return
	}
	m.state = Stopping
	if m.cancelLoop != nil {
		m.cancelLoop()
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.pending = make(map[string]struct{})
	fsw := m.fsWatcher
	m.fsWatcher = nil
	m.state = Stopped
	m.mu.Unlock()

	if fsw != nil {
		fsw.Close()
	}
	m.logger.WithOperation("monitor").Info("change monitor stopped")
}

// eventLoop selects over events, errors, and ctx.Done(), dispatching
// each accepted event into the pending_updates batch under a barrier
// write.
func (m *Monitor) eventLoop(ctx context.Context) {
	m.mu.Lock()
	fsw := m.fsWatcher
	m.mu.Unlock()
	if fsw == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			m.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			m.logger.WithContext("error", err.Error()).Error("change monitor watcher error")
		}
	}
}

// handleEvent classifies a raw fsnotify event and either ignores it or
// accepts it into the pending batch with a freshly assigned event id.
func (m *Monitor) handleEvent(event fsnotify.Event) {
	flags := translateOp(event.Op)
	if !isStructural(flags) {
		return
	}

	if m.excluder != nil {
		name := event.Name
		if base := lastPathSegment(name); base != "" {
			name = base
		}
		if m.excluder(event.Name, name, false) {
			return
		}
	}

	m.mu.Lock()
	eventID := m.nextEventID
	m.nextEventID++
	m.pending[event.Name] = struct{}{}
	if eventID > m.maxEventID {
		m.maxEventID = eventID
	}
	shouldFlushNow := len(m.pending) >= m.batchSize
	if shouldFlushNow {
		if m.timer != nil {
			m.timer.Stop()
		}
	} else {
		if m.timer != nil {
			m.timer.Stop()
		}
		m.timer = time.AfterFunc(m.debounce, m.flush)
	}
	m.mu.Unlock()

	if shouldFlushNow {
		m.flush()
	}
}

// flush drains pending_updates atomically and dispatches to the store.
func (m *Monitor) flush() {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return
	}
	drained := m.pending
	m.pending = make(map[string]struct{})
	maxID := m.maxEventID
	m.mu.Unlock()

	ctx := context.Background()
	m.commit(ctx, drained)

	if err := m.checkpointEventID(ctx, maxID); err != nil {
		m.logger.WithContext("error", err.Error()).Error("failed to checkpoint last_event_id")
	}
}

// commit implements the "commit of changes": for each drained
// path, an upsert if the path still exists, a delete otherwise.
func (m *Monitor) commit(ctx context.Context, paths map[string]struct{}) {
	var upserts []store.Entry
	var deletes []string

	for path := range paths {
		info, err := statPath(path)
		if err != nil {
			deletes = append(deletes, path)
			continue
		}
		upserts = append(upserts, m.factory.Build(path, info, time.Now()))
	}

	if len(upserts) > 0 {
		if err := m.store.UpsertEntries(ctx, nil, upserts); err != nil {
			m.logger.WithContext("error", err.Error()).Error("failed to upsert batch from change monitor")
		}
	}
	if len(deletes) > 0 {
		if err := m.store.DeleteEntries(ctx, deletes); err != nil {
			m.logger.WithContext("error", err.Error()).Error("failed to delete batch from change monitor")
		}
	}
}

// checkpointEventID writes last_event_id idempotently. The indexer clears
// it on a full reindex; the monitor never resurrects a cleared value
// within the same session because it only ever writes its own
// monotonically increasing maxEventID.
func (m *Monitor) checkpointEventID(ctx context.Context, maxID int64) error {
	meta, err := m.store.GetMetadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read metadata before checkpoint: %w", err)
	}
	meta.LastEventID = maxID
	meta.HasLastEventID = true
	return m.store.SetMetadata(ctx, meta)
}
