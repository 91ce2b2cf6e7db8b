package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/remoteid-mesh/internal/alias"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/config"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/database"
	"github.com/nerrad567/remoteid-mesh/internal/infrastructure/logging"
	"github.com/nerrad567/remoteid-mesh/internal/pipeline"
	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultStaleAfter applies when the config leaves stale_after unset.
const defaultStaleAfter = time.Minute

// WebSocket keepalive fallbacks, in seconds.
const (
	defaultPingInterval = 30
	defaultPongTimeout  = 10
)

// ErrMissingDependency is returned by New when a required dependency is nil.
var ErrMissingDependency = errors.New("api: missing dependency")

// HealthChecker is implemented by the MQTT and InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
// Only Logger and Registry are required.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *remoteid.Registry

	Aliases  *alias.Store
	Metrics  *pipeline.Metrics
	Pipeline *pipeline.Pipeline
	Database *database.DB
	MQTT     HealthChecker
	InfluxDB HealthChecker

	// Hub, when set, is used instead of a server-owned hub. The caller
	// runs it; it is shared with the report path's HubSink.
	Hub *Hub

	SensorID  string
	SessionID string
	Version   string
}

// Server is the HTTP API server for the sensor.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	registry   *remoteid.Registry
	aliases    *alias.Store
	metrics    *pipeline.Metrics
	pipeline   *pipeline.Pipeline
	db         *database.DB
	mqtt       HealthChecker
	influx     HealthChecker
	gatherer   prometheus.Gatherer
	sensorID   string
	sessionID  string
	version    string
	staleAfter time.Duration
	startTime  time.Time
	now        func() time.Time

	server   *http.Server
	listener net.Listener
	hub      *Hub
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrMissingDependency)
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		registry:   deps.Registry,
		aliases:    deps.Aliases,
		metrics:    deps.Metrics,
		pipeline:   deps.Pipeline,
		db:         deps.Database,
		mqtt:       deps.MQTT,
		influx:     deps.InfluxDB,
		sensorID:   deps.SensorID,
		sessionID:  deps.SessionID,
		version:    deps.Version,
		staleAfter: deps.Config.StaleAfter,
		startTime:  time.Now(),
		now:        time.Now,
	}
	if s.staleAfter <= 0 {
		s.staleAfter = defaultStaleAfter
	}
	if s.wsCfg.PingInterval <= 0 {
		s.wsCfg.PingInterval = defaultPingInterval
	}
	if s.wsCfg.PongTimeout <= 0 {
		s.wsCfg.PongTimeout = defaultPongTimeout
	}
	if deps.Metrics != nil {
		s.gatherer = deps.Metrics.Registry()
	}
	s.hub = deps.Hub

	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The listener is bound before Start returns, so a port conflict is
// reported here rather than logged later.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:       func(net.Listener) context.Context { return srvCtx },
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
