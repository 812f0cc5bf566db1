package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
	"github.com/devricklin/automessage/internal/biz/usecase"
)

// MonitorControl is the part of Monitor the supervisor drives
type MonitorControl interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// Supervisor keeps the monitor in line with the persisted monitoring-enabled setting.
// The CLI flips the setting; the running daemon follows it.
type Supervisor struct {
	monitor  MonitorControl
	settings interface{ Monitoring() bool }
	bus      *usecase.EventBus
	logger   *zap.Logger

	unavailableLogged bool
}

// NewSupervisor creates a new supervisor
func NewSupervisor(
	monitor MonitorControl,
	settings interface{ Monitoring() bool },
	bus *usecase.EventBus,
	logger *zap.Logger,
) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		monitor:  monitor,
		settings: settings,
		bus:      bus,
		logger:   logger,
	}
}

// Run reconciles once, then again after every settings change, until ctx is done.
// The monitor is stopped on return.
func (s *Supervisor) Run(ctx context.Context) {
	events, unsubscribe := s.bus.Subscribe(0, domain.EventSettingsChanged)
	defer unsubscribe()
	defer s.monitor.Stop()

	s.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			s.Reconcile(ctx)
		}
	}
}

// Reconcile starts or stops the monitor to match the setting
func (s *Supervisor) Reconcile(ctx context.Context) {
	want := s.settings.Monitoring()
	running := s.monitor.IsRunning()

	switch {
	case want && !running:
		err := s.monitor.Start(ctx)
		switch {
		case err == nil:
		case errors.Is(err, repo.ErrStoreUnavailable):
			// Logged once; no retry
			if !s.unavailableLogged {
				s.unavailableLogged = true
				s.logger.Error("monitoring disabled: message store unavailable")
			}
		default:
			s.logger.Error("failed to start monitor", zap.Error(err))
		}
	case !want && running:
		s.monitor.Stop()
	}
}
