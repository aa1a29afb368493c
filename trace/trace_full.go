//go:build rfsm_trace

package trace

import (
	"context"
	"os"

	"github.com/comalice/rfsm/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// full is the rfsm_trace-tagged Tracer: zerolog for structured lines
// (replacing the donor's own log.Printf placeholder in
// internal/extensibility/actionrunner.go's LoggingActionRunner),
// Prometheus counters/gauges modeled on
// quadgatefoundation-fluxor's pkg/observability/prometheus/metrics.go
// promauto registration pattern, and an OpenTelemetry span recorded
// for each Macrostep call.
type full struct {
	log       zerolog.Logger
	tracer    oteltrace.Tracer
	macrosteps *prometheus.CounterVec
	microsteps *prometheus.CounterVec
	invokes    *prometheus.GaugeVec
	queueDepth *prometheus.GaugeVec
}

var registry = prometheus.NewRegistry()

func New(sessionComponent string) Tracer {
	f := &full{
		log:    zerolog.New(os.Stderr).With().Timestamp().Str("component", sessionComponent).Logger(),
		tracer: otel.Tracer("github.com/comalice/rfsm/" + sessionComponent),
		macrosteps: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "rfsm_macrosteps_total",
			Help: "Total macrosteps processed per session.",
		}, []string{"session_id"}),
		microsteps: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "rfsm_microsteps_total",
			Help: "Total microsteps processed per session.",
		}, []string{"session_id"}),
		invokes: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rfsm_active_invokes",
			Help: "Currently active invokes per session.",
		}, []string{"session_id"}),
		queueDepth: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "rfsm_internal_queue_depth",
			Help: "Internal queue depth per session.",
		}, []string{"session_id"}),
	}
	return f
}

func (f *full) Macrostep(sessionID string) {
	f.macrosteps.WithLabelValues(sessionID).Inc()
	_, span := f.tracer.Start(context.Background(), "macrostep")
	span.End()
}

func (f *full) Microstep(sessionID string, transitions int) {
	f.microsteps.WithLabelValues(sessionID).Inc()
	f.log.Debug().Str("session_id", sessionID).Int("transitions", transitions).Msg("microstep")
}

func (f *full) StateEntered(sessionID string, state *model.State) {
	f.log.Debug().Str("session_id", sessionID).Str("state", state.Name).Msg("state entered")
}

func (f *full) StateExited(sessionID string, state *model.State) {
	f.log.Debug().Str("session_id", sessionID).Str("state", state.Name).Msg("state exited")
}

func (f *full) EventObserved(sessionID, eventName string) {
	f.log.Debug().Str("session_id", sessionID).Str("event", eventName).Msg("event observed")
}

func (f *full) InvokeStarted(sessionID, invokeID string) {
	f.invokes.WithLabelValues(sessionID).Inc()
	f.log.Info().Str("session_id", sessionID).Str("invoke_id", invokeID).Msg("invoke started")
}

func (f *full) InvokeCancelled(sessionID, invokeID string) {
	f.invokes.WithLabelValues(sessionID).Dec()
	f.log.Info().Str("session_id", sessionID).Str("invoke_id", invokeID).Msg("invoke cancelled")
}

func (f *full) SessionStarted(sessionID string) {
	f.log.Info().Str("session_id", sessionID).Msg("session started")
}

func (f *full) SessionStopped(sessionID string) {
	f.log.Info().Str("session_id", sessionID).Msg("session stopped")
}

func (f *full) Errorf(sessionID, format string, args ...interface{}) {
	f.log.Error().Str("session_id", sessionID).Msgf(format, args...)
}
