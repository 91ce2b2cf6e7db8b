package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// statusCheckTimeout bounds each dependency health check in /status.
const statusCheckTimeout = 2 * time.Second

// componentStatus describes one optional dependency.
type componentStatus struct {
	Enabled bool   `json:"enabled"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// handleStatus returns a runtime overview of the sensor.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := map[string]any{
		"sensor_id":  s.sensorID,
		"session_id": s.sessionID,
		"version":    s.version,
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"runtime": map[string]any{
			"goroutines":    runtime.NumGoroutine(),
			"heap_alloc_mb": float64(mem.HeapAlloc) / (1 << 20), //nolint:mnd // bytes to MiB
			"go_version":    runtime.Version(),
		},
		"registry": map[string]any{
			"occupied": s.registry.Occupied(),
			"capacity": s.registry.Capacity(),
		},
		"mqtt":     s.checkComponent(r.Context(), s.mqtt),
		"influxdb": s.checkComponent(r.Context(), s.influx),
	}

	if s.hub != nil {
		resp["websocket_clients"] = s.hub.ClientCount()
		resp["websocket_dropped"] = s.hub.Dropped()
	}

	if s.db != nil {
		db := s.checkComponent(r.Context(), s.db)
		dbResp := map[string]any{
			"enabled": db.Enabled,
			"healthy": db.Healthy,
			"path":    s.db.Path(),
		}
		if db.Error != "" {
			dbResp["error"] = db.Error
		}
		if v, err := s.db.SchemaVersion(r.Context()); err == nil {
			dbResp["schema_version"] = v
		}
		resp["database"] = dbResp
	} else {
		resp["database"] = componentStatus{}
	}

	if s.pipeline != nil {
		resp["pipeline"] = map[string]any{
			"running": s.pipeline.Running(),
			"started": s.pipeline.Started().UTC().Format(time.RFC3339),
		}
	}
	if s.metrics != nil {
		resp["totals"] = s.metrics.Totals()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) checkComponent(ctx context.Context, hc HealthChecker) componentStatus {
	if hc == nil {
		return componentStatus{}
	}
	ctx, cancel := context.WithTimeout(ctx, statusCheckTimeout)
	defer cancel()

	st := componentStatus{Enabled: true, Healthy: true}
	if err := hc.HealthCheck(ctx); err != nil {
		st.Healthy = false
		st.Error = err.Error()
	}
	return st
}
