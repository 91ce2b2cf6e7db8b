// Remote ID mesh sensor.
//
// Reads BLE advertisements, keeps a small registry of nearby Remote ID
// broadcasters and reports their state as JSON lines, compact mesh radio
// messages, MQTT, InfluxDB and a local HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/remoteid-mesh/internal/alias"
	"github.com/nerrad567/remoteid-mesh/internal/api"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/database"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/influxdb"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/logging"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/mqtt"
	"github.com/nerrad567/remoteid-mesh/internal/pipeline"
	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/migrations"
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

// startupCheckTimeout bounds the post-startup health check.
const startupCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns when ctx is cancelled or the advertisement source ends.
//
//nolint:gocognit,funlen // Bootstrap wires every component in order
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting remoteid-mesh",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("sensor_id", cfg.Sensor.ID)
	log.Info("configuration loaded",
		"path", configPath,
		"source", cfg.Scanner.Source,
		"capacity", cfg.Registry.Capacity,
	)

	sessionID := uuid.NewString()

	// Database and aliases
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}

	aliases := alias.NewStore(alias.NewSQLiteRepository(db.DB))
	aliases.SetLogger(log.Component("alias"))
	if refreshErr := aliases.Refresh(ctx); refreshErr != nil {
		return fmt.Errorf("loading aliases: %w", refreshErr)
	}
	log.Info("database ready", "path", db.Path(), "aliases", len(aliases.List()))

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, cfg.Sensor.ID)
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
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"prefix", mqttClient.Topics().Prefix(),
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
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
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Core
	registry := remoteid.NewRegistry(cfg.Registry.Capacity)
	registry.SetLogger(log.Component("registry"))
	processor := remoteid.NewProcessor(registry, remoteid.ProcessorOptions{Logger: log.Component("processor")})
	metrics := pipeline.NewMetrics()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(hubCtx)

	out, err := buildOutputs(ctx, cfg, outputDeps{
		Registry: registry,
		Aliases:  aliases,
		Hub:      hub,
		MQTT:     mqttClient,
		InfluxDB: influxClient,
		Logger:   log.Component("report"),
	})
	if err != nil {
		return err
	}
	defer out.Close()

	source, err := buildSource(cfg, mqttClient, log.Component("scanner"))
	if err != nil {
		return err
	}
	if regErr := metrics.RegisterSource(source); regErr != nil {
		return fmt.Errorf("registering source metrics: %w", regErr)
	}

	p, err := pipeline.New(pipeline.Options{
		Source:            source,
		Processor:         processor,
		Scheduler:         out.Scheduler,
		Window:            cfg.Scanner.Window,
		Buffer:            cfg.Scanner.Buffer,
		HeartbeatInterval: cfg.Output.Heartbeat.Interval,
		Heartbeats:        out.Heartbeats,
		SensorID:          cfg.Sensor.ID,
		SessionID:         sessionID,
		Metrics:           metrics,
		Logger:            log.Component("pipeline"),
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	// HTTP API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log.Component("api"),
			Registry:  registry,
			Aliases:   aliases,
			Metrics:   metrics,
			Pipeline:  p,
			Database:  db,
			Hub:       hub,
			SensorID:  cfg.Sensor.ID,
			SessionID: sessionID,
			Version:   version,
		}
		// Assigned only when set so the interfaces stay nil.
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if influxClient != nil {
			deps.InfluxDB = influxClient
		}

		srv, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	if hcErr := healthCheck(checkCtx, db, mqttClient, influxClient); hcErr != nil {
		log.Warn("startup health check failed", "error", hcErr)
	}
	cancel()

	log.Info("remoteid-mesh started", "session_id", sessionID, "source", source.Name())

	runErr := p.Run(ctx)
	if runErr != nil {
		log.Error("pipeline stopped", "error", runErr)
	}

	log.Info("shutting down", "totals", metrics.Totals())
	return runErr
}

// getConfigPath returns the configuration file path.
// Uses REMOTEID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("REMOTEID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections that are enabled.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (nil if disabled)
//   - influxClient: InfluxDB client to check (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
