package analysis

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/diarizer"
	"github.com/tdemirli/roomcount-go/internal/errors"
	"github.com/tdemirli/roomcount-go/internal/logging"
	"github.com/tdemirli/roomcount-go/internal/preprocess"
)

// FileAnalysis runs the whole pipeline synchronously over one audio file.
// The same preprocessing and orchestration path as live mode, minus the
// concurrency. The returned snapshot holds whatever completed, even when
// the run was cancelled mid-way.
func FileAnalysis(ctx context.Context, settings *conf.Settings) (*Snapshot, error) {
	if err := validateAudioFile(settings.Input.Path); err != nil {
		return nil, err
	}

	audioInfo, err := audio.GetAudioInfo(settings.Input.Path)
	if err != nil {
		return nil, fmt.Errorf("error getting audio info: %w", err)
	}

	logger := logging.ForService("analysis")
	logger.Info("starting file analysis",
		"path", settings.Input.Path,
		"duration", audioInfo.Duration(),
		"sample_rate", audioInfo.SampleRate,
		"channels", audioInfo.NumChannels)

	base := time.Now()
	src := audio.NewFileSource(settings.Input.Path, base)
	if err := src.Start(ctx); err != nil {
		return nil, err
	}
	defer src.Close()

	frames, err := readAllFrames(ctx, src)
	if err != nil {
		return nil, err
	}

	pipeline, err := preprocess.NewPipeline(settings)
	if err != nil {
		return nil, err
	}
	segments, err := pipeline.Process(frames)
	if err != nil {
		return nil, err
	}
	logger.Info("preprocessing complete", "segments", len(segments))

	result := NewResult(uuid.New().String())
	orch := NewOrchestrator(settings, diarizer.NewPyannoteClient(&settings.Diarizer), result)

	startTime := time.Now()
	if err := analyzeSegments(ctx, orch, segments); err != nil {
		// Cancellation mid-run still yields what finished.
		snapshot := result.Snapshot()
		return &snapshot, err
	}

	snapshot := result.Snapshot()
	logger.Info("file analysis complete",
		"speaker_count", snapshot.SpeakerCount,
		"analyzed", snapshot.Analyzed,
		"skipped", snapshot.Skipped,
		"elapsed", time.Since(startTime))

	return &snapshot, nil
}

// analyzeSegments runs diarization calls through a bounded worker pool.
// Segment order is preserved by sequence numbers; the result timeline
// re-sorts on insertion regardless of completion order.
func analyzeSegments(ctx context.Context, orch *Orchestrator, segments []audio.Segment) error {
	numWorkers := runtime.NumCPU()
	if numWorkers > 8 {
		numWorkers = 8
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i := range segments {
		g.Go(func() error {
			return orch.Analyze(gctx, i, &segments[i])
		})
	}
	return g.Wait()
}

// readAllFrames drains a file source to completion. A mid-file read
// failure is an acquisition error.
func readAllFrames(ctx context.Context, src audio.SampleSource) ([]audio.Frame, error) {
	var frames []audio.Frame
	for {
		frame, err := src.ReadBlock(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, errors.New(err).
				Component("analysis").
				Category(errors.CategoryAcquisition).
				Build()
		}
		frames = append(frames, frame)
	}
}

// validateAudioFile checks that the path points at a non-empty, decodable
// audio file before any pipeline work starts.
func validateAudioFile(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("error accessing file %s: %w", filepath.Base(filePath), err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path %s is a directory, not a file", filepath.Base(filePath))
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file %s is empty", filepath.Base(filePath))
	}

	audioInfo, err := audio.GetAudioInfo(filePath)
	if err != nil {
		return fmt.Errorf("invalid audio file %s: %w", filepath.Base(filePath), err)
	}

	if audioInfo.TotalSamples == 0 {
		return fmt.Errorf("file %s contains no samples or is still being written", filepath.Base(filePath))
	}

	return nil
}
