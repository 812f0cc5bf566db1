package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/repo"
	"github.com/devricklin/automessage/internal/biz/usecase"
	"github.com/devricklin/automessage/internal/data"
	"github.com/devricklin/automessage/internal/infra/desktop"
	"github.com/devricklin/automessage/internal/infra/feishu"
	"github.com/devricklin/automessage/internal/service"
)

// runCmd starts the monitoring daemon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring daemon",
	Long: `Run opens the message store and waits for new messages. Monitoring
follows the monitoring-enabled setting, so "automessage monitor start" from
another terminal takes effect without restarting the daemon.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// A missing store is logged once and leaves monitoring disabled
	source, err := data.NewChatDBRepo(cfg.Store.ChatDBPath, logger.Named("chatdb"))
	if err != nil {
		logger.Error("message store unavailable", zap.String("path", cfg.Store.ChatDBPath), zap.Error(err))
	} else {
		defer source.Close()
	}

	scheduler := usecase.NewTimerScheduler()
	pipeline := usecase.NewActionPipeline(
		a.audit,
		desktop.NewClipboard(),
		notifiers(),
		desktop.NewInjector(),
		scheduler,
		logger.Named("pipeline"),
	)

	monitor := service.NewMonitor(
		source,
		a.matcher,
		a.rules,
		a.settings,
		pipeline,
		scheduler,
		a.bus,
		service.MonitorOptions{
			PollInterval:        cfg.Monitor.PollInterval,
			InitialLoadLimit:    cfg.Monitor.InitialLoadLimit,
			MaxVisibleMessages:  cfg.Monitor.MaxVisibleMessages,
			CancelPendingOnStop: cfg.Monitor.CancelPendingOnStop,
		},
		logger.Named("monitor"),
	)

	go a.watchState(ctx)

	logger.Info("automessage running",
		zap.String("state_dir", cfg.Store.StateDir),
		zap.Bool("monitoring_enabled", a.settings.Monitoring()),
		zap.Int("enabled_rules", a.rules.Snapshot().EnabledCount()),
	)

	supervisor := service.NewSupervisor(monitor, a.settings, a.bus, logger.Named("supervisor"))
	supervisor.Run(ctx)

	logger.Info("shutting down")
	pipeline.Wait()
	return nil
}

// notifiers returns the desktop sink plus Feishu when configured
func notifiers() []repo.NotifierRepo {
	sinks := []repo.NotifierRepo{desktop.NewNotifier()}
	if cfg.Feishu.Enabled() {
		client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		sinks = append(sinks, data.NewFeishuNotifier(client, cfg.Feishu.NotifyChatID))
		logger.Info("feishu notifications enabled", zap.String("chat_id", cfg.Feishu.NotifyChatID))
	}
	return sinks
}
