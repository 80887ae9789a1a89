package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-roadmap-backend/internal/llm"
	"github.com/tbourn/go-roadmap-backend/internal/roadmap"
)

// Generation outcomes recorded in roadmap_generations_total.
const (
	outcomeDedupHit     = "dedup_hit"
	outcomeGenerated    = "generated"
	outcomeReplay       = "replay"
	outcomeRejected     = "rejected"
	outcomeTimeout      = "timeout"
	outcomeModelError   = "model_error"
	outcomeNoCredits    = "no_credits"
	outcomeCreditError  = "credit_error"
	outcomeExtractError = "extraction_error"
)

var (
	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_generations_total",
			Help: "Roadmap generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	modelLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roadmap_model_latency_seconds",
			Help:    "Latency of model invocations in seconds, including failures.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 12, 16, 20, 25, 30},
		},
	)

	creditRefunds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_credit_refunds_total",
			Help: "Credits given back after a failed generation, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(generations, modelLatency, creditRefunds)
}

// outcomeOf maps a Generate error to its outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeGenerated
	case errors.Is(err, llm.ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, llm.ErrInvalidKey), errors.Is(err, llm.ErrModelDecommissioned), errors.Is(err, llm.ErrUpstream):
		return outcomeModelError
	case errors.Is(err, ErrNoCredits):
		return outcomeNoCredits
	case errors.Is(err, ErrCreditLedger):
		return outcomeCreditError
	case errors.Is(err, roadmap.ErrNoContent), errors.Is(err, roadmap.ErrParse), errors.Is(err, roadmap.ErrInvalidFormat):
		return outcomeExtractError
	default:
		return outcomeRejected
	}
}
