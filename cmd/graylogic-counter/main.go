// Gray Logic Counter - counter entities for the Gray Logic platform
//
// This binary hosts the counter platform: named integer counters that are
// incremented, decremented, reset or set over MQTT, survive restarts through
// the SQLite state store, and publish every change to MQTT and (optionally)
// InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-counter/migrations"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-counter/internal/notify"
	"github.com/nerrad567/gray-logic-counter/internal/statestore"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Counter",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Validate the counter block before touching any infrastructure.
	// A single bad entry means no counters are created.
	if !cfg.HasCounterBlock() {
		return fmt.Errorf("config %s has no counter block", configPath)
	}
	counterConfigs, err := counter.ParseConfig(&cfg.Counter)
	if err != nil {
		return fmt.Errorf("loading counters: %w", err)
	}
	log.Info("counter configuration validated", "counters", len(counterConfigs))

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := statestore.NewSQLiteStore(db.DB)
	store.SetLogger(log.With("component", "statestore"))
	pruneHistory(ctx, store, cfg.Database.HistoryRetentionDays, log)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Persist first so a restart restores the value MQTT last announced.
	statePublisher := notify.NewMQTTPublisher(mqttClient, mqttClient.QoS())
	statePublisher.SetLogger(log.With("component", "notify"))
	sinks := []counter.Sink{store, statePublisher}
	if influxClient != nil {
		telemetry := notify.NewTelemetrySink(influxClient)
		telemetry.SetLogger(log.With("component", "telemetry"))
		sinks = append(sinks, telemetry)
	}
	fanout := notify.NewFanout(sinks...)

	registry := counter.NewRegistry(store, fanout)
	registry.SetLogger(log.With("component", "counter"))
	if setupErr := registry.Setup(ctx, counterConfigs); setupErr != nil {
		return fmt.Errorf("setting up counters: %w", setupErr)
	}
	defer func() {
		log.Info("removing counters")
		registry.Close()
	}()
	log.Info("counters ready", "counters", registry.Count(), "sinks", fanout.Len())

	commands := notify.NewCommandHandler(registry, mqttClient, mqttClient.QoS())
	commands.SetLogger(log.With("component", "commands"))
	if startErr := commands.Start(mqttClient); startErr != nil {
		return fmt.Errorf("starting command handler: %w", startErr)
	}
	log.Info("listening for counter commands", "topic", mqtt.Topics{}.AllCounterCommands())

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Counters
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Gray Logic Counter stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// historyPruner is the part of the state store used at startup.
type historyPruner interface {
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

// pruneHistory drops state history older than the retention period.
// A retention of zero keeps everything. Failures are logged, not fatal.
func pruneHistory(ctx context.Context, store historyPruner, retentionDays int, log *logging.Logger) {
	if retentionDays <= 0 {
		return
	}

	removed, err := store.PruneHistory(ctx, time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		log.Warn("pruning counter state history failed", "error", err)
		return
	}
	if removed > 0 {
		log.Info("pruned counter state history", "removed", removed, "retention_days", retentionDays)
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
