package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/remoteid-mesh/internal/alias"
	"github.com/nerrad567/remoteid-mesh/internal/api"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/influxdb"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/logging"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/mqtt"
	"github.com/nerrad567/remoteid-mesh/internal/pipeline"
	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
	"github.com/nerrad567/remoteid-mesh/internal/report"
	"github.com/nerrad567/remoteid-mesh/internal/scanner"
)

// outputDeps are the components the report channels are built from.
// MQTT and InfluxDB are nil when disabled.
type outputDeps struct {
	Registry *remoteid.Registry
	Aliases  *alias.Store
	Hub      *api.Hub
	MQTT     *mqtt.Client
	InfluxDB *influxdb.Client
	Logger   *logging.Logger
}

// outputs holds the scheduler and everything that must be closed with it.
type outputs struct {
	Scheduler  *report.Scheduler
	Heartbeats []pipeline.HeartbeatFunc

	closers []io.Closer
	mesh    *report.MeshWriter
}

// Close stops the mesh writer and closes opened devices.
func (o *outputs) Close() {
	if o.mesh != nil {
		o.mesh.Close()
	}
	for _, c := range o.closers {
		c.Close() //nolint:errcheck,gosec // Best-effort close on shutdown
	}
}

// buildOutputs wires every enabled report channel into one scheduler.
// The mesh writer runs until ctx ends or Close is called.
func buildOutputs(ctx context.Context, cfg *config.Config, deps outputDeps) (*outputs, error) {
	out := &outputs{}
	var detections []report.DetectionSink
	var compact []report.CompactSink

	if cfg.Output.JSON.Enabled {
		w, closer, err := openOutput(cfg.Output.JSON.Output)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("opening JSON output: %w", err)
		}
		if closer != nil {
			out.closers = append(out.closers, closer)
		}
		jsonWriter := report.NewJSONLineWriter(w)
		detections = append(detections, jsonWriter)
		out.Heartbeats = append(out.Heartbeats, func(ctx context.Context, _ pipeline.Health) error {
			return jsonWriter.WriteHeartbeat(ctx)
		})
	}

	if deps.Hub != nil {
		detections = append(detections, report.NewHubSink(deps.Hub))
	}

	if deps.MQTT != nil {
		topics := deps.MQTT.Topics()
		sink := report.NewMQTTSink(report.MQTTSinkOptions{
			Publisher:      deps.MQTT,
			DetectionTopic: topics.Detection,
			CompactTopic:   topics.Compact(),
			QoS:            byte(cfg.MQTT.QoS), //nolint:gosec // validated 0..2
		})
		detections = append(detections, sink)
		compact = append(compact, sink)

		client := deps.MQTT
		out.Heartbeats = append(out.Heartbeats, func(_ context.Context, h pipeline.Health) error {
			payload, err := json.Marshal(h)
			if err != nil {
				return fmt.Errorf("encoding health: %w", err)
			}
			return client.PublishHealth(payload)
		})
	}

	if deps.InfluxDB != nil {
		detections = append(detections, report.NewInfluxSink(deps.InfluxDB, cfg.Sensor.ID))

		client := deps.InfluxDB
		sensorID := cfg.Sensor.ID
		out.Heartbeats = append(out.Heartbeats, func(_ context.Context, h pipeline.Health) error {
			client.WriteSensorStats(sensorID, h.Totals.Counters())
			return nil
		})
	}

	if cfg.Output.Mesh.Enabled {
		//nolint:gosec // device path comes from operator config
		dev, err := os.OpenFile(cfg.Output.Mesh.Device, os.O_WRONLY, 0)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("opening mesh device: %w", err)
		}
		out.closers = append(out.closers, dev)

		out.mesh = report.NewMeshWriter(dev, report.DefaultMeshQueue)
		out.mesh.SetLogger(deps.Logger)
		go out.mesh.Run(ctx)
		compact = append(compact, out.mesh)
	}

	out.Scheduler = report.NewScheduler(deps.Registry, report.SchedulerOptions{
		Detections:      detections,
		Compact:         compact,
		CompactInterval: cfg.Output.Mesh.Interval,
		MaxMessageSize:  cfg.Output.Mesh.MaxMessageSize,
		PilotDelay:      cfg.Output.Mesh.PilotDelay,
		Aliases:         deps.Aliases,
		Logger:          deps.Logger,
	})

	deps.Logger.Info("report channels ready",
		"detection_sinks", len(detections),
		"compact_sinks", len(compact),
		"heartbeats", len(out.Heartbeats),
	)
	return out, nil
}

// openOutput returns stdout for "stdout" and otherwise opens path for
// appending. The closer is nil for stdout.
func openOutput(path string) (io.Writer, io.Closer, error) {
	if path == "stdout" || path == "-" {
		return os.Stdout, nil, nil
	}
	//nolint:gosec // path comes from operator config
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// buildSource returns the advertisement source selected in config.
func buildSource(cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (scanner.Source, error) {
	switch cfg.Scanner.Source {
	case config.SourceStdin:
		src := scanner.NewReaderSource("stdin", os.Stdin)
		src.SetLogger(log)
		return src, nil
	case config.SourceFile:
		src, err := scanner.OpenFile(cfg.Scanner.Path)
		if err != nil {
			return nil, err
		}
		src.SetLogger(log)
		return src, nil
	case config.SourceMQTT:
		if mqttClient == nil {
			return nil, fmt.Errorf("scanner source %q requires MQTT", cfg.Scanner.Source)
		}
		src := scanner.NewMQTTSource(mqttClient, mqttClient.Topics().AllRaw(), byte(cfg.MQTT.QoS)) //nolint:gosec // validated 0..2
		src.SetLogger(log)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown scanner source %q", cfg.Scanner.Source)
	}
}
