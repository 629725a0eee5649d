// Package observability registers Prometheus collectors for pipeline
// diagnostics. Every absorbed error in the pipeline has a counter here so
// no failure is silently ignored.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DroppedFrames counts frames evicted from the capture buffer under
	// overflow. Monotonically non-decreasing for the process lifetime.
	DroppedFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "roomcount",
		Subsystem: "capture",
		Name:      "dropped_frames_total",
		Help:      "Frames evicted from the capture buffer due to overflow.",
	})

	// SequenceRejects counts frames rejected for non-monotonic timestamps.
	SequenceRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "roomcount",
		Subsystem: "capture",
		Name:      "sequence_rejects_total",
		Help:      "Frames rejected for out-of-order timestamps.",
	})

	// AnalyzedSegments counts segments successfully diarized.
	AnalyzedSegments = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "roomcount",
		Subsystem: "analysis",
		Name:      "segments_total",
		Help:      "Audio segments successfully analyzed.",
	})

	// SkippedSegments counts segments whose diarization call failed or
	// timed out and whose range was marked unanalyzed.
	SkippedSegments = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "roomcount",
		Subsystem: "analysis",
		Name:      "skipped_segments_total",
		Help:      "Audio segments skipped after diarization failure.",
	})

	// SpeakerEstimate tracks the current session speaker count estimate.
	SpeakerEstimate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "roomcount",
		Subsystem: "analysis",
		Name:      "speaker_estimate",
		Help:      "Current estimated number of distinct speakers.",
	})
)

func init() {
	prometheus.MustRegister(
		DroppedFrames,
		SequenceRejects,
		AnalyzedSegments,
		SkippedSegments,
		SpeakerEstimate,
	)
}
