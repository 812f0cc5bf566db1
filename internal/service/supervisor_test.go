package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
	"github.com/devricklin/automessage/internal/biz/usecase"
)

type mockMonitor struct {
	mu       sync.Mutex
	running  bool
	starts   int
	stops    int
	startErr error
}

func (m *mockMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	return nil
}

func (m *mockMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.running = false
}

func (m *mockMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func TestSupervisor_Reconcile(t *testing.T) {
	mon := &mockMonitor{}
	settings := &staticSettings{}
	sup := NewSupervisor(mon, settings, usecase.NewEventBus(), nil)

	sup.Reconcile(context.Background())
	assert.Equal(t, 0, mon.starts, "disabled setting must not start the monitor")

	settings.snap.Monitoring = true
	sup.Reconcile(context.Background())
	sup.Reconcile(context.Background())
	assert.Equal(t, 1, mon.starts)
	assert.True(t, mon.IsRunning())

	settings.snap.Monitoring = false
	sup.Reconcile(context.Background())
	assert.Equal(t, 1, mon.stops)
	assert.False(t, mon.IsRunning())
}

func TestSupervisor_StoreUnavailableLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	mon := &mockMonitor{startErr: repo.ErrStoreUnavailable}
	sup := NewSupervisor(mon, &staticSettings{snap: domain.Snapshot{Monitoring: true}}, usecase.NewEventBus(), zap.New(core))

	for i := 0; i < 3; i++ {
		sup.Reconcile(context.Background())
	}

	assert.Equal(t, 3, mon.starts)
	assert.Equal(t, 1, logs.FilterMessage("monitoring disabled: message store unavailable").Len())
}

func TestSupervisor_RunFollowsSettingsEvents(t *testing.T) {
	mon := &mockMonitor{}
	settings := &staticSettings{}
	bus := usecase.NewEventBus()
	sup := NewSupervisor(mon, settings, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	settings.mu.Lock()
	settings.snap.Monitoring = true
	settings.mu.Unlock()

	// The subscription may not exist yet; keep publishing until it is seen
	require.Eventually(t, func() bool {
		bus.Publish(domain.Event{Type: domain.EventSettingsChanged, Source: "test"})
		return mon.IsRunning()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not return")
	}
	assert.False(t, mon.IsRunning(), "monitor must be stopped when the supervisor exits")
}
