package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Turn metrics
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_turns_total",
		Help: "Total number of turns processed, by resolved intent",
	}, []string{"intent"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skylark_turn_duration_seconds",
		Help:    "Duration of a full turn including backend calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Capture session metrics
	captureSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_capture_sessions_total",
		Help: "Capture sessions by outcome (accepted, too_short, low_confidence, too_few_words, stopped_empty)",
	}, []string{"outcome"})

	voicedSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skylark_capture_voiced_seconds",
		Help:    "Voiced seconds accumulated per capture session",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// ASR metrics
	asrRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_asr_requests_total",
		Help: "Total number of speech recognition requests",
	}, []string{"status"})

	asrLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skylark_asr_latency_seconds",
		Help:    "Speech recognition latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_tts_requests_total",
		Help: "Total number of speech synthesis requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skylark_tts_latency_seconds",
		Help:    "Speech synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Backend service metrics
	serviceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_service_requests_total",
		Help: "Weather and calendar backend requests",
	}, []string{"service", "status"})

	serviceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skylark_service_latency_seconds",
		Help:    "Weather and calendar backend latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
	}, []string{"service"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "skylark_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skylark_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// TurnMetrics tracks the duration of a single turn
type TurnMetrics struct {
	startTime time.Time
}

// NewTurnMetrics creates a metrics tracker for one turn
func NewTurnMetrics() *TurnMetrics {
	return &TurnMetrics{startTime: time.Now()}
}

// RecordTurnEnd records turn completion with its resolved intent
func (m *TurnMetrics) RecordTurnEnd(intent string) {
	turnsTotal.WithLabelValues(intent).Inc()
	turnDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordASRRequest records one speech recognition request
func RecordASRRequest(success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	asrRequests.WithLabelValues(status).Inc()
	asrLatency.Observe(latency.Seconds())
}

// RecordTTSRequest records one speech synthesis request
func RecordTTSRequest(success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	ttsRequests.WithLabelValues(status).Inc()
	ttsLatency.Observe(latency.Seconds())
}

// RecordCaptureOutcome records how a capture session ended
func RecordCaptureOutcome(outcome string, voiced float64) {
	captureSessions.WithLabelValues(outcome).Inc()
	voicedSeconds.Observe(voiced)
}

// RecordServiceRequest records one weather/calendar backend call
func RecordServiceRequest(service string, success bool, latency time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	serviceRequests.WithLabelValues(service, status).Inc()
	serviceLatency.WithLabelValues(service).Observe(latency.Seconds())
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
