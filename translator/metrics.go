package translator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var translationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snowduck_translations_total",
	Help: "Total number of translated statements by outcome",
}, []string{"outcome"})

var translationDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "snowduck_translation_duration_seconds",
	Help:    "Statement translation duration in seconds",
	Buckets: prometheus.DefBuckets,
})

var cacheHitsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "snowduck_rewrite_cache_hits_total",
	Help: "Total number of rewrite cache hits",
})

var cacheMissesCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "snowduck_rewrite_cache_misses_total",
	Help: "Total number of rewrite cache misses",
})
