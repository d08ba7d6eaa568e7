package observability

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Logger is used by the metrics server.
	Logger = zap.NewNop()

	commandsMatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmdbot_commands_matched_total",
			Help: "Total number of messages matching a command",
		},
		[]string{"command"},
	)

	handlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmdbot_handler_errors_total",
			Help: "Total number of failed command handlers",
		},
		[]string{"command"},
	)

	eventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cmdbot_event_processing_duration_seconds",
			Help:    "Time spent processing events",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	registerOnce sync.Once
)

// Register adds the bot metrics to reg. Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(commandsMatchedTotal, handlerErrorsTotal, eventProcessingDuration)
	})
}

func RecordCommandMatch(command string) {
	commandsMatchedTotal.WithLabelValues(command).Inc()
}

func RecordHandlerError(command string) {
	handlerErrorsTotal.WithLabelValues(command).Inc()
}

// StartEventProcessing returns a function recording the processing duration
// under the given status.
func StartEventProcessing() func(status string) {
	start := time.Now()
	return func(status string) {
		eventProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

// Server exposes /metrics and owns the tracer provider.
type Server struct {
	addr     string
	server   *http.Server
	provider *trace.TracerProvider
	done     chan struct{}
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Start(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	Logger = logger

	Register(prometheus.DefaultRegisterer)

	s.provider = trace.NewTracerProvider()
	otel.SetTracerProvider(s.provider)

	if s.addr == "" {
		Logger.Info("metrics server disabled")
		return nil
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		Logger.Info("metrics server started", zap.String("addr", listener.Addr().String()))
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var stopErr error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			stopErr = errors.Wrap(err, "shutdown metrics server")
		}
		<-s.done
	}
	if s.provider != nil {
		if err := s.provider.Shutdown(ctx); err != nil && stopErr == nil {
			stopErr = errors.Wrap(err, "shutdown tracer provider")
		}
	}
	_ = Logger.Sync()
	return stopErr
}
