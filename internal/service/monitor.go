package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
	"github.com/devricklin/automessage/internal/biz/usecase"
)

// Evaluator applies a rule set to one message
type Evaluator interface {
	Evaluate(msg domain.Message, rules domain.RuleSet) usecase.Evaluation
}

// RuleSource provides the current rule set
type RuleSource interface {
	Snapshot() domain.RuleSet
}

// SettingsSource provides the current settings
type SettingsSource interface {
	Snapshot() domain.Snapshot
}

// ActionRunner runs the post-match side effects
type ActionRunner interface {
	Run(ctx context.Context, msg domain.Message, match usecase.MatchResult, settings domain.Snapshot, annotator usecase.Annotator) usecase.Report
}

// PendingCanceller retracts scheduled paste and submit tasks
type PendingCanceller interface {
	CancelPending() int
}

// MonitorOptions configures the polling loop
type MonitorOptions struct {
	PollInterval        time.Duration
	InitialLoadLimit    int
	MaxVisibleMessages  int
	CancelPendingOnStop bool
}

// Monitor polls the message store and feeds new messages to the matcher
type Monitor struct {
	source   repo.MessageRepo // Nil when the store could not be opened
	matcher  Evaluator
	rules    RuleSource
	settings SettingsSource
	actions  ActionRunner
	pending  PendingCanceller
	bus      *usecase.EventBus
	opts     MonitorOptions
	logger   *zap.Logger

	// Lifecycle
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Poll state
	stateMu  sync.RWMutex
	hwm      int64
	messages []domain.Message // Newest first

	// Cached snapshots, re-read at every tick and on change events
	snapMu       sync.RWMutex
	ruleSnap     domain.RuleSet
	settingsSnap domain.Snapshot
}

// NewMonitor creates a new monitor.
// source may be nil; Start then reports repo.ErrStoreUnavailable.
func NewMonitor(
	source repo.MessageRepo,
	matcher Evaluator,
	rules RuleSource,
	settings SettingsSource,
	actions ActionRunner,
	pending PendingCanceller,
	bus *usecase.EventBus,
	opts MonitorOptions,
	logger *zap.Logger,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.InitialLoadLimit <= 0 {
		opts.InitialLoadLimit = 20
	}
	if opts.MaxVisibleMessages <= 0 {
		opts.MaxVisibleMessages = 200
	}
	return &Monitor{
		source:   source,
		matcher:  matcher,
		rules:    rules,
		settings: settings,
		actions:  actions,
		pending:  pending,
		bus:      bus,
		opts:     opts,
		logger:   logger,
	}
}

// Start loads the most recent messages and arms the poll ticker.
// Starting while running is a no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	if m.source == nil {
		return repo.ErrStoreUnavailable
	}

	latest, err := m.source.Latest(ctx, m.opts.InitialLoadLimit)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	m.stateMu.Lock()
	m.messages = capMessages(latest, m.opts.MaxVisibleMessages)
	m.hwm = domain.MaxID(m.hwm, latest)
	hwm := m.hwm
	m.stateMu.Unlock()

	m.refreshSnapshots()

	var events <-chan domain.Event
	unsubscribe := func() {}
	if m.bus != nil {
		events, unsubscribe = m.bus.Subscribe(0, domain.EventRulesChanged, domain.EventSettingsChanged)
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.wg.Add(1)
	go m.loop(m.stopCh, events, unsubscribe)

	m.logger.Info("monitor started",
		zap.Int("loaded", len(latest)),
		zap.Int64("high_water_mark", hwm),
		zap.Duration("interval", m.opts.PollInterval),
	)
	m.bus.Publish(domain.Event{Type: domain.EventMonitorStarted, Source: "monitor"})
	return nil
}

// Stop disarms the ticker and waits for an in-flight tick to finish.
// Stopping while stopped is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stopCh)
	m.wg.Wait()

	if m.opts.CancelPendingOnStop && m.pending != nil {
		if n := m.pending.CancelPending(); n > 0 {
			m.logger.Info("cancelled pending replays", zap.Int("count", n))
		}
	}

	m.logger.Info("monitor stopped")
	m.bus.Publish(domain.Event{Type: domain.EventMonitorStopped, Source: "monitor"})
}

// IsRunning reports whether the ticker is armed
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Available reports whether a message store is attached
func (m *Monitor) Available() bool {
	return m.source != nil
}

// HighWaterMark returns the largest message id seen
func (m *Monitor) HighWaterMark() int64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.hwm
}

// Messages returns a copy of the visible message list, newest first
func (m *Monitor) Messages() []domain.Message {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Annotate records the extracted code on a listed message
func (m *Monitor) Annotate(messageID int64, code string) bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	for i := range m.messages {
		if m.messages[i].ID == messageID {
			m.messages[i].Code = code
			return true
		}
	}
	return false
}

func (m *Monitor) loop(stopCh <-chan struct{}, events <-chan domain.Event, unsubscribe func()) {
	defer m.wg.Done()
	defer unsubscribe()

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// An in-flight tick finishes even if Stop arrives meanwhile
			m.tick(context.WithoutCancel(context.Background()))
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.refreshSnapshots()
		case <-stopCh:
			return
		}
	}
}

// tick fetches messages above the high-water mark and processes them
// in the order the store returned them
func (m *Monitor) tick(ctx context.Context) {
	batch, err := m.source.After(ctx, m.HighWaterMark())
	if err != nil {
		m.logger.Warn("poll failed", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		return
	}

	m.stateMu.Lock()
	m.hwm = domain.MaxID(m.hwm, batch)
	merged := make([]domain.Message, 0, len(batch)+len(m.messages))
	merged = append(merged, batch...)
	merged = append(merged, m.messages...)
	m.messages = capMessages(merged, m.opts.MaxVisibleMessages)
	m.stateMu.Unlock()

	m.logger.Debug("new messages", zap.Int("count", len(batch)), zap.Int64("high_water_mark", m.HighWaterMark()))
	m.bus.Publish(domain.Event{Type: domain.EventMessagesAppended, Source: "monitor"})

	// A change event may have been dropped by the bus; never match against a stale set
	rules, settings := m.refreshSnapshots()
	for _, msg := range batch {
		eval := m.matcher.Evaluate(msg, rules)
		for _, f := range eval.Failures() {
			m.logger.Debug("rule skipped",
				zap.String("rule", f.RuleName),
				zap.Stringer("status", f.Status),
				zap.Error(f.Err),
			)
		}
		if !eval.Matched() {
			continue
		}

		m.logger.Info("code matched",
			zap.Int64("message_id", msg.ID),
			zap.String("rule", eval.Result.Rule.Name),
		)
		report := m.actions.Run(ctx, msg, *eval.Result, settings, m)
		for _, s := range report.Failed() {
			m.logger.Warn("action step failed", zap.String("step", string(s.Step)), zap.Error(s.Err))
		}
	}
}

func (m *Monitor) refreshSnapshots() (domain.RuleSet, domain.Snapshot) {
	var rules domain.RuleSet
	if m.rules != nil {
		rules = m.rules.Snapshot()
	}
	var settings domain.Snapshot
	if m.settings != nil {
		settings = m.settings.Snapshot()
	}

	m.snapMu.Lock()
	m.ruleSnap = rules
	m.settingsSnap = settings
	m.snapMu.Unlock()
	return rules, settings
}

func (m *Monitor) snapshots() (domain.RuleSet, domain.Snapshot) {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.ruleSnap, m.settingsSnap
}

func capMessages(msgs []domain.Message, limit int) []domain.Message {
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
