package engine

import "github.com/prometheus/client_golang/prometheus"

// Generation results recorded in coderd_engine_generations_total.
const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"
)

var (
	initsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "inits_total",
			Help:      "Model initializations by result",
		},
		[]string{"result"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Generate calls by result (ok, empty, error)",
		},
		[]string{"result"},
	)

	tokensGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "tokens_generated_total",
			Help:      "Tokens appended to generation output",
		},
	)

	promptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "prompt_tokens",
			Help:      "Prompt length in tokens after templating",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 9),
		},
	)

	generateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "generate_duration_seconds",
			Help:      "Time spent generating while holding the engine lock",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	modelLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coderd",
			Subsystem: "engine",
			Name:      "model_loaded",
			Help:      "1 while a model and context are live",
		},
	)
)

func init() {
	prometheus.MustRegister(initsTotal, generationsTotal, tokensGeneratedTotal, promptTokens, generateDuration, modelLoaded)
}
