package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// Mock implementations

type mockRuleRepo struct {
	mu      sync.Mutex
	rules   domain.RuleSet
	found   bool
	saves   int
	saveErr error
}

func (m *mockRuleRepo) Load(ctx context.Context) (domain.RuleSet, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rules.Clone(), m.found, nil
}

func (m *mockRuleRepo) Save(ctx context.Context, rules domain.RuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rules = rules.Clone()
	m.found = true
	return nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	saves   int
	saveErr error
}

func (m *mockAuditRepo) Load(ctx context.Context) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockAuditRepo) Save(ctx context.Context, entries []domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = entries
	return nil
}

type mockSettingsRepo struct {
	mu      sync.Mutex
	values  map[string]any
	reloads int
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{values: make(map[string]any)}
}

func (m *mockSettingsRepo) GetBool(key string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return def
}

func (m *mockSettingsRepo) GetFloat(key string, def float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key].(float64); ok {
		return v
	}
	return def
}

func (m *mockSettingsRepo) GetString(key string, def string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return def
}

func (m *mockSettingsRepo) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockSettingsRepo) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	return nil
}

func (m *mockSettingsRepo) Path() string { return "settings.toml" }

type mockClipboard struct {
	mu     sync.Mutex
	text   string
	writes int
	err    error
}

func (m *mockClipboard) SetString(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes++
	m.text = text
	return nil
}

type notification struct {
	Title string
	Body  string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, notification{Title: title, Body: body})
	return nil
}

// keystroke is one injected key combination stamped with virtual time
type keystroke struct {
	Kind string
	At   time.Duration
}

type mockInjector struct {
	mu       sync.Mutex
	clock    *fakeScheduler
	keys     []keystroke
	pasteErr error
}

func (m *mockInjector) Paste(ctx context.Context) error {
	if m.pasteErr != nil {
		return m.pasteErr
	}
	m.record("paste")
	return nil
}

func (m *mockInjector) Submit(ctx context.Context) error {
	m.record("submit")
	return nil
}

func (m *mockInjector) record(kind string) {
	var at time.Duration
	if m.clock != nil {
		at = m.clock.Now()
	}
	m.mu.Lock()
	m.keys = append(m.keys, keystroke{Kind: kind, At: at})
	m.mu.Unlock()
}

func (m *mockInjector) Keys() []keystroke {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]keystroke, len(m.keys))
	copy(out, m.keys)
	return out
}

type mockAnnotator struct {
	annotated map[int64]string
}

func (m *mockAnnotator) Annotate(id int64, code string) bool {
	if m.annotated == nil {
		return false
	}
	m.annotated[id] = code
	return true
}

// fakeScheduler is a virtual clock; callbacks run only inside Advance
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*fakeTask
}

type fakeTask struct {
	s    *fakeScheduler
	at   time.Duration
	fn   func()
	done bool
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{s: s, at: s.now + d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *fakeTask) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (s *fakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending counts tasks that neither ran nor were cancelled
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running due callbacks in time order
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due []*fakeTask
		for _, t := range s.tasks {
			if !t.done && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.done = true
		s.now = next.at
		s.mu.Unlock()

		next.fn()
	}
}

var errBoom = errors.New("boom")

// loadGate holds the next Load open until released
type loadGate struct {
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

// arm makes the next Load signal entered and wait for release
func (g *loadGate) arm() (entered <-chan struct{}, release chan<- struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
	return g.entered, g.release
}

func (g *loadGate) wait() {
	g.mu.Lock()
	entered, release := g.entered, g.release
	g.entered, g.release = nil, nil
	g.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
}

type gatedAuditRepo struct {
	*mockAuditRepo
	loadGate
}

func (g *gatedAuditRepo) Load(ctx context.Context) ([]domain.AuditEntry, error) {
	g.wait()
	return g.mockAuditRepo.Load(ctx)
}

type gatedRuleRepo struct {
	*mockRuleRepo
	loadGate
}

func (g *gatedRuleRepo) Load(ctx context.Context) (domain.RuleSet, bool, error) {
	g.wait()
	return g.mockRuleRepo.Load(ctx)
}
