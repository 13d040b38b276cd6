// Package metrics exposes Prometheus instrumentation for the bot's request
// pipeline and its monitoring HTTP endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio tools bot
type Metrics struct {
	// Update loop metrics
	UpdatesReceived prometheus.Counter
	AudioRequests   prometheus.Counter

	// Pipeline outcome metrics
	RequestsSucceeded prometheus.Counter
	RequestsFailed    *prometheus.CounterVec // by stage
	TrimsApplied      prometheus.Counter
	VoiceRepliesSent  prometheus.Counter

	// Pipeline timing and size metrics
	DownloadDuration  prometheus.Histogram
	TranscodeDuration prometheus.Histogram
	InputBytes        prometheus.Histogram

	// Temp file metrics
	TempFilesRemoved prometheus.Counter

	// Monitoring HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// Pipeline stages used as the RequestsFailed label
const (
	StageTimecode  = "timecode"
	StageDownload  = "download"
	StageTranscode = "transcode"
	StageReply     = "reply"
	StagePanic     = "panic"
)

// NewMetrics creates and registers all metrics on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics on the given registerer. Tests pass a
// throwaway registry to avoid duplicate registration across cases.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UpdatesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Total number of chat updates received",
		}),
		AudioRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_audio_requests_total",
			Help: "Total number of messages carrying a processable audio attachment",
		}),
		RequestsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_requests_succeeded_total",
			Help: "Total number of audio requests answered with a voice message",
		}),
		RequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_requests_failed_total",
			Help: "Total number of failed audio requests by pipeline stage",
		}, []string{"stage"}),
		TrimsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_trims_applied_total",
			Help: "Total number of requests that carried a valid trim range",
		}),
		VoiceRepliesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_voice_replies_sent_total",
			Help: "Total number of voice messages delivered",
		}),
		DownloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_download_duration_seconds",
			Help:    "Time spent downloading attachments",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}),
		TranscodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_transcode_duration_seconds",
			Help:    "Time spent in ffmpeg per request",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		InputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_input_bytes",
			Help:    "Size of downloaded attachments in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8), // 64KiB to ~1GiB
		}),
		TempFilesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_temp_files_removed_total",
			Help: "Total number of temporary files cleaned up",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_http_requests_total",
			Help: "Total number of monitoring HTTP requests",
		}, []string{"method", "endpoint", "status"}),
	}
}

// RecordHTTPRequest records one monitoring HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
}

// RecordFailure records a failed request at the given pipeline stage
func (m *Metrics) RecordFailure(stage string) {
	m.RequestsFailed.WithLabelValues(stage).Inc()
}
