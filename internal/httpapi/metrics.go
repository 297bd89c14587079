package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlistforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlistforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	playlistsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlistforge_playlists_served_total",
			Help: "Personalized playlists downloaded, by output label",
		},
		[]string{"label"},
	)

	lastRunRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlistforge_last_run_records",
			Help: "Included records in the most recently served run report",
		},
	)
)
