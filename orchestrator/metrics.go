package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	candidatesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataimport_candidates_processed_total",
		Help: "Candidates pulled from both sources and run through validation.",
	})
	validationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataimport_validation_outcomes_total",
		Help: "Validation outcomes by code.",
	}, []string{"outcome"})
	commitResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataimport_commit_results_total",
		Help: "Import commit results by classification.",
	}, []string{"status"})
	digestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataimport_digests_sent_total",
		Help: "Digest messages handed to the mail sender.",
	})
)
