package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/diarizer"
	"github.com/tdemirli/roomcount-go/internal/logging"
	"github.com/tdemirli/roomcount-go/internal/observability"
)

// Orchestrator feeds speech segments to the diarization backend and folds
// the labeled intervals into the session result. A failed or timed-out
// call never aborts the run: the segment is marked unanalyzed and the
// session continues.
type Orchestrator struct {
	settings *conf.Settings
	diar     diarizer.Diarizer
	result   *Result
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator writing into the given result.
func NewOrchestrator(settings *conf.Settings, diar diarizer.Diarizer, result *Result) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		diar:     diar,
		result:   result,
		logger:   logging.ForService("analysis"),
	}
}

// Result returns the result the orchestrator writes into.
func (o *Orchestrator) Result() *Result { return o.result }

// Analyze submits one segment with sequence number seq. Diarization
// failures are absorbed: the error is logged and counted, the segment's
// range is marked unanalyzed, and nil is returned. The returned error is
// reserved for context cancellation.
func (o *Orchestrator) Analyze(ctx context.Context, seq int, seg *audio.Segment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wavData, err := audio.EncodeWAV(seg.Samples)
	if err != nil {
		o.skip(seg, err)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.settings.AnalysisTimeout())
	defer cancel()

	resp, err := o.diar.Diarize(callCtx, diarizer.Request{
		Audio:       wavData,
		MinSpeakers: o.settings.Diarizer.MinSpeakers,
		MaxSpeakers: o.settings.Diarizer.MaxSpeakers,
	})
	if err != nil {
		// A cancelled parent means the run is stopping; the segment is
		// abandoned, not marked.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.skip(seg, err)
		return nil
	}

	o.result.AddSegment(seq, seg, resp.Intervals)
	observability.AnalyzedSegments.Inc()
	observability.SpeakerEstimate.Set(float64(o.result.SpeakerCount()))

	if o.settings.Output.Export && o.settings.Output.Dir != "" {
		clipPath := filepath.Join(o.settings.Output.Dir, fmt.Sprintf("segment_%03d.wav", seq))
		if err := audio.SaveSegmentWAV(clipPath, *seg); err != nil {
			o.logger.Warn("segment export failed", "path", clipPath, "error", err)
		}
	}

	o.logger.Info("segment analyzed",
		"seq", seq,
		"start", seg.Start,
		"duration", seg.Duration(),
		"intervals", len(resp.Intervals),
		"speaker_count", o.result.SpeakerCount())
	return nil
}

func (o *Orchestrator) skip(seg *audio.Segment, err error) {
	o.result.MarkUnanalyzed(seg)
	observability.SkippedSegments.Inc()
	o.logger.Warn("segment skipped",
		"start", seg.Start,
		"duration", seg.Duration(),
		"error", err)
}
