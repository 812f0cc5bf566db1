package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/usecase"
	"github.com/devricklin/automessage/internal/conf"
	"github.com/devricklin/automessage/internal/data"
	"github.com/devricklin/automessage/internal/service"
)

// app holds the state stores every command works on
type app struct {
	bus      *usecase.EventBus
	repos    *data.Repositories
	rules    *usecase.RuleUsecase
	audit    *usecase.AuditUsecase
	settings *usecase.SettingsUsecase
	matcher  *usecase.Matcher
}

// openApp opens the state directory and loads rules and the audit log
func openApp(ctx context.Context) (*app, error) {
	if err := os.MkdirAll(cfg.Store.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	repos, err := data.NewRepositories(cfg.Store.StateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	seed, seedPath, err := conf.LoadRulesSeed(cfg.Rules.SeedPath)
	if err != nil {
		repos.Close()
		return nil, err
	}
	if seedPath != "" {
		logger.Debug("rules seed loaded", zap.String("path", seedPath), zap.Int("count", len(seed)))
	}

	bus := usecase.NewEventBus()
	a := &app{
		bus:      bus,
		repos:    repos,
		rules:    usecase.NewRuleUsecase(repos.Rule, seed, bus, logger.Named("rules")),
		audit:    usecase.NewAuditUsecase(repos.Audit, cfg.Audit.Cap, bus, logger.Named("audit")),
		settings: usecase.NewSettingsUsecase(repos.Settings, bus, logger.Named("settings")),
		matcher:  usecase.NewMatcher(cfg.Monitor.MatchTimeout),
	}

	if err := a.rules.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.audit.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the state database
func (a *app) Close() {
	if err := a.repos.Close(); err != nil {
		logger.Warn("close state failed", zap.Error(err))
	}
}

// withApp opens the app for the duration of fn
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// watchState re-reads stores edited by other automessage processes until ctx is done
func (a *app) watchState(ctx context.Context) {
	reloader := service.NewReloader(cfg.Store.StateDir, logger.Named("reloader"))
	reloader.Watch(data.SettingsFileName, service.ReloadFunc(func(context.Context) error {
		return a.settings.Reload()
	}))
	reloader.Watch(data.StateDBName, a.rules, a.audit)

	if err := reloader.Run(ctx); err != nil {
		logger.Warn("state reloader stopped", zap.Error(err))
	}
}
