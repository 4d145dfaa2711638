package emulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics contains the Prometheus metrics recorded by the host.
type Metrics struct {
	Broadcasts    *prometheus.CounterVec
	Deliveries    *prometheus.CounterVec
	Subscriptions prometheus.Gauge
	MessageRefs   prometheus.Gauge
	Notifications prometheus.Counter
	PendingTimers prometheus.Gauge
	TimersFired   prometheus.Counter
}

// NewMetrics creates the host metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Broadcasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpxhost_broadcasts_total",
				Help: "Total number of broadcasts by message",
			},
			[]string{"message"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpxhost_deliveries_total",
				Help: "Total number of messages delivered to subscribers by message",
			},
			[]string{"message"},
		),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vpxhost_subscriptions",
			Help: "Number of live subscriptions",
		}),
		MessageRefs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vpxhost_message_id_references",
			Help: "Number of message id lookups not yet released",
		}),
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpxhost_notifications_total",
			Help: "Total number of pushed notifications",
		}),
		PendingTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vpxhost_pending_timers",
			Help: "Number of main thread callbacks waiting to run",
		}),
		TimersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpxhost_timers_fired_total",
			Help: "Total number of main thread callbacks run",
		}),
	}

	reg.MustRegister(
		m.Broadcasts,
		m.Deliveries,
		m.Subscriptions,
		m.MessageRefs,
		m.Notifications,
		m.PendingTimers,
		m.TimersFired,
	)
	return m
}

// MetricsServer serves /metrics for a host run.
type MetricsServer struct {
	addr       string
	registry   *prometheus.Registry
	listener   net.Listener
	httpServer *http.Server
	logger     *zap.Logger
}

// NewMetricsServer creates a server with its own registry holding the Go and
// process collectors. Register host metrics with Registry().
func NewMetricsServer(addr string, logger *zap.Logger) *MetricsServer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &MetricsServer{
		addr:     addr,
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}
}

// Registry returns the registry served on /metrics.
func (s *MetricsServer) Registry() *prometheus.Registry {
	return s.registry
}

// Start begins serving. The returned channel receives a serve error, if any,
// and is closed when the server stops.
func (s *MetricsServer) Start() (<-chan error, error) {
	if s.httpServer != nil {
		return nil, errors.New("metrics server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("Metrics server error", zap.Error(serveErr))
			errCh <- serveErr
		}
	}()

	s.logger.Info("Metrics server started", zap.String("addr", listener.Addr().String()))
	return errCh, nil
}

// Stop shuts the server down gracefully.
func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	s.httpServer = nil
	s.logger.Info("Metrics server stopped")
	return nil
}

// Addr returns the listening address, empty before Start.
func (s *MetricsServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
