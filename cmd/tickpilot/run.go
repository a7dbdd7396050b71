package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/tickpilot/internal/api"
	"github.com/nerrad567/tickpilot/internal/dispatch"
	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/features"
	"github.com/nerrad567/tickpilot/internal/host"
	"github.com/nerrad567/tickpilot/internal/hoststate"
	"github.com/nerrad567/tickpilot/internal/infrastructure/config"
	"github.com/nerrad567/tickpilot/internal/infrastructure/database"
	"github.com/nerrad567/tickpilot/internal/infrastructure/influxdb"
	"github.com/nerrad567/tickpilot/internal/infrastructure/logging"
	"github.com/nerrad567/tickpilot/internal/infrastructure/mqtt"
	"github.com/nerrad567/tickpilot/internal/notify"
	"github.com/nerrad567/tickpilot/internal/settings"
	"github.com/nerrad567/tickpilot/internal/telemetry"
	"github.com/nerrad567/tickpilot/internal/throttle"
	"github.com/nerrad567/tickpilot/migrations"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine and block until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := root.loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)
			log.Info("starting TickPilot",
				"version", version,
				"commit", commit,
				"build_date", date,
				"config", path,
			)
			return runEngine(cmd.Context(), cfg, log, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log UI actions instead of sending them")
	return cmd
}

// runEngine wires every component and ticks until ctx is cancelled.
//
// Parameters:
//   - ctx: Cancelled on shutdown signal
//   - cfg: Validated configuration
//   - log: Root logger
//   - dryRun: Log dispatches instead of publishing them
//
// Returns:
//   - error: nil on clean shutdown, or the first startup failure
func runEngine(ctx context.Context, cfg *config.Config, log *logging.Logger, dryRun bool) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)
	store := settings.NewSQLiteStore(db.DB)

	// InfluxDB (optional) feeds the recorder's point writer.
	recorderOpts := []telemetry.Option{telemetry.WithRuntimeCollectors()}
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB write error", "error", err)
		})
		recorderOpts = append(recorderOpts, telemetry.WithPointWriter(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}
	recorder := telemetry.NewRecorder(recorderOpts...)

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Warn("MQTT disabled; no host state will arrive and dispatches are logged only")
	}

	framework := host.New(
		host.WithLogger(log.Component("host")),
		host.WithObserver(recorder),
	)
	throttles := throttle.NewRegistry(
		throttle.WithGenericCooldown(cfg.Engine.GenericThrottle),
		throttle.WithObserver(recorder),
	)
	reader := hoststate.NewSnapshotReader(hoststate.WithLogger(log.Component("hoststate")))

	var dispatcher dispatch.Dispatcher
	if dryRun || mqttClient == nil {
		dispatcher = dispatch.DryRun{Logger: log.Component("dispatch")}
	} else {
		dispatcher = dispatch.NewMQTTDispatcher(mqttClient,
			dispatch.WithLogger(log.Component("dispatch")),
			dispatch.WithObserver(recorder),
		)
	}

	hub := api.NewHub(log.Component("ws"))
	notifier := notify.Multi{
		notify.NewLogNotifier(log.Component("chat")),
		notify.NewHubNotifier(hub),
	}
	if mqttClient != nil {
		notifier = append(notifier, notify.NewMQTTNotifier(mqttClient, mqtt.Topics{}.HostChat(), log.Component("chat")))
	}

	deps := feature.Deps{
		Scheduler:       framework,
		Reader:          reader,
		Dispatcher:      dispatcher,
		Throttles:       throttles,
		Store:           store,
		Notifier:        notifier,
		Events:          hub,
		TaskObserver:    recorder,
		Logger:          log.Component("feature"),
		PluginName:      cfg.Engine.PluginName,
		StepTimeout:     cfg.Engine.StepTimeout,
		TimeoutSilently: cfg.Engine.TimeoutSilently,
		AbortOnTimeout:  cfg.Engine.AbortOnTimeout,
	}
	registry := feature.NewRegistry(
		feature.WithStateStore(store),
		feature.WithRegistryLogger(log.Component("features")),
	)
	if err := features.All(registry, deps); err != nil {
		return err
	}
	// The tick loop is not running yet, so this goroutine may own the
	// registry until it starts.
	registry.SetupAll(ctx, cfg.FeatureEnabled)

	if mqttClient != nil {
		source := hoststate.NewSource(mqttClient, reader, log.Component("hoststate"), hoststate.WithPoster(framework))
		if err := source.Start(); err != nil {
			return fmt.Errorf("subscribing to host snapshots: %w", err)
		}
		defer func() {
			if stopErr := source.Stop(); stopErr != nil {
				log.Warn("error stopping snapshot source", "error", stopErr)
			}
		}()
	}

	checks := map[string]api.HealthChecker{"database": db}
	if mqttClient != nil {
		checks["mqtt"] = mqttClient
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}
	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if cfg.API.Enabled {
		srv, err := api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Security:  cfg.Security,
			Logger:    log.Component("api"),
			Engine:    framework,
			Features:  registry,
			Throttles: throttles,
			Metrics:   recorder.Handler(),
			Checks:    checks,
			Hub:       hub,
			Version:   version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		go hub.Run(ctx)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete", "features", registry.Len(), "tick_source", cfg.Engine.TickSource)
	runErr := tick(ctx, cfg.Engine, framework, mqttClient, log)

	// The tick loop has returned, so the registry is ours again.
	registry.DisposeAll()
	log.Info("TickPilot stopped", "ticks", framework.Ticks())
	return runErr
}

// tick drives the framework from the configured source until ctx ends.
func tick(ctx context.Context, cfg config.EngineConfig, framework *host.Framework, mqttClient *mqtt.Client, log *logging.Logger) error {
	if cfg.TickSource != config.TickSourceMQTT {
		return framework.Run(ctx, cfg.TickInterval)
	}

	pulses := host.NewPulseSource(mqttClient, log.Component("pulses"))
	if err := pulses.Start(); err != nil {
		return fmt.Errorf("subscribing to host ticks: %w", err)
	}
	defer func() {
		if err := pulses.Stop(); err != nil {
			log.Warn("error stopping pulse source", "error", err)
		}
	}()
	return framework.RunPulses(ctx, pulses.Pulses())
}

// healthCheck verifies every infrastructure connection.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
