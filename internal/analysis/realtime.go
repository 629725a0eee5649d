package analysis

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/diarizer"
	"github.com/tdemirli/roomcount-go/internal/errors"
	"github.com/tdemirli/roomcount-go/internal/logging"
	"github.com/tdemirli/roomcount-go/internal/preprocess"
)

// RealtimeAnalysis runs live capture until a stop signal or the configured
// duration elapses. Capture and analysis are two tasks meeting only at the
// capture buffer: the capture loop polls the device and pushes frames, the
// analysis loop drains, preprocesses, and diarizes. A graceful stop halts
// capture first, finishes whatever is buffered, then returns the final
// snapshot.
func RealtimeAnalysis(settings *conf.Settings) (*Snapshot, error) {
	logger := logging.ForService("analysis")

	// Print platform details the way operators expect at startup.
	if info, err := host.Info(); err == nil {
		fmt.Printf("System details: %s %s %s\n", info.OS, info.Platform, info.PlatformVersion)
	} else {
		logger.Warn("could not read host info", "error", err)
	}

	sessionID := uuid.New().String()
	fmt.Printf("Starting live speaker counting. Session %s, interval %ds\n",
		sessionID, settings.Realtime.Interval)

	source := audio.NewDeviceSource(settings.Audio.Source)
	ctx := context.Background()
	if err := source.Start(ctx); err != nil {
		return nil, err
	}
	defer source.Close()

	captureBuffer := audio.NewCaptureBuffer(time.Duration(settings.Audio.BufferSecs) * time.Second)

	pipeline, err := preprocess.NewPipeline(settings)
	if err != nil {
		return nil, err
	}

	result := NewResult(sessionID)
	orch := NewOrchestrator(settings, diarizer.NewPyannoteClient(&settings.Diarizer), result)

	// Optional per-segment log file for live sessions.
	if settings.Realtime.Log.Enabled {
		segmentLogger, closeLogger, logErr := logging.NewFileLogger(settings.Realtime.Log.Path, "analysis", logging.LevelTrace)
		if logErr != nil {
			return nil, errors.New(logErr).
				Component("analysis").
				Category(errors.CategoryFileIO).
				Context("path", settings.Realtime.Log.Path).
				Build()
		}
		defer closeLogger() //nolint:errcheck // flushed on session end
		orch.logger = segmentLogger.With("session", sessionID)
	}

	// The stop signal halts the capture loop; the analysis loop then
	// drains the remainder before returning.
	quit := newStopSignal()
	monitorCtrlC(quit)
	if settings.Realtime.Duration > 0 {
		startDurationTimer(settings.Realtime.Duration, quit)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		captureLoop(settings, source, captureBuffer, quit)
	}()

	runErr := analysisLoop(settings, pipeline, orch, captureBuffer, quit)
	wg.Wait()

	snapshot := result.Snapshot()
	logger.Info("live session finished",
		"session", sessionID,
		"speaker_count", snapshot.SpeakerCount,
		"analyzed", snapshot.Analyzed,
		"skipped", snapshot.Skipped,
		"dropped_frames", captureBuffer.Dropped(),
		"lost_bytes", source.LostBytes())

	return &snapshot, runErr
}

// captureLoop polls the device at the configured cadence and pushes frames
// into the capture buffer. It never calls preprocessing or analysis, so a
// slow diarization call can never stall the hardware poll. A fatal read
// error triggers the stop signal so the analysis loop finishes what is
// buffered and the session ends with partial results.
func captureLoop(settings *conf.Settings, source audio.SampleSource, buf *audio.CaptureBuffer, quit *stopSignal) {
	logger := logging.ForService("capture")
	ticker := time.NewTicker(time.Duration(settings.Audio.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-quit.ch:
			return
		case <-ticker.C:
			for {
				frame, err := source.ReadBlock(context.Background())
				if err != nil {
					if errors.Is(err, audio.ErrNoData) {
						break
					}
					logger.Error("capture read failed, stopping session", "error", err)
					quit.stop()
					return
				}
				if err := buf.Push(frame); err != nil {
					// Out-of-order frame: dropped, run continues.
					logger.Warn("frame rejected", "error", err)
				}
			}
			if rate := buf.DropRate(); !warned && rate > settings.Audio.DropWarnRate {
				logger.Warn("capture degraded: analysis is not keeping up",
					"drop_rate", fmt.Sprintf("%.1f%%", rate*100))
				warned = true
			}
		}
	}
}

// analysisLoop periodically drains the capture buffer, preprocesses the
// run, and submits segments for diarization. After quit it performs one
// final drain so a graceful stop loses nothing that was already captured.
func analysisLoop(settings *conf.Settings, pipeline *preprocess.Pipeline, orch *Orchestrator, buf *audio.CaptureBuffer, quit *stopSignal) error {
	logger := logging.ForService("analysis")
	interval := time.Duration(settings.Realtime.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	drainLimit := time.Duration(settings.Audio.BufferSecs) * time.Second
	holdback := time.Duration(settings.Audio.OverlapSecs * float64(time.Second))
	seq := 0

	for {
		select {
		case <-quit.ch:
			// Final drain: finish whatever capture left behind.
			if err := analyzeDrained(context.Background(), pipeline, orch, buf, drainLimit, &seq); err != nil {
				logger.Warn("final drain incomplete", "error", err)
			}
			return nil
		case <-ticker.C:
			// Hold back the newest audio so a speech span crossing the
			// drain boundary stays intact for the next pass.
			limit := buf.Buffered() - holdback
			if limit <= 0 {
				continue
			}
			if err := analyzeDrained(context.Background(), pipeline, orch, buf, limit, &seq); err != nil {
				if errors.IsFormatError(err) {
					// Fatal stream error: stop capture so the session
					// ends with whatever was already analyzed.
					quit.stop()
					return err
				}
				logger.Error("analysis pass failed", "error", err)
			}
		}
	}
}

// analyzeDrained runs one drain-preprocess-analyze pass.
func analyzeDrained(ctx context.Context, pipeline *preprocess.Pipeline, orch *Orchestrator, buf *audio.CaptureBuffer, limit time.Duration, seq *int) error {
	frames := buf.Drain(limit)
	if len(frames) == 0 {
		return nil
	}

	segments, err := pipeline.Process(frames)
	if err != nil {
		return err
	}
	for i := range segments {
		if err := orch.Analyze(ctx, *seq, &segments[i]); err != nil {
			return err
		}
		*seq++
	}
	return nil
}

// stopSignal coordinates shutdown between the signal handler, the
// duration timer, and the run loops. Multiple triggers collapse into one
// channel close.
type stopSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newStopSignal() *stopSignal {
	return &stopSignal{ch: make(chan struct{})}
}

func (s *stopSignal) stop() {
	s.once.Do(func() { close(s.ch) })
}

// startDurationTimer stops the session after the configured capture length.
func startDurationTimer(seconds int, quit *stopSignal) {
	go func() {
		select {
		case <-time.After(time.Duration(seconds) * time.Second):
			fmt.Println("Configured duration elapsed, stopping")
			quit.stop()
		case <-quit.ch:
		}
	}()
}

// monitorCtrlC listens for SIGINT and SIGTERM and triggers shutdown.
func monitorCtrlC(quit *stopSignal) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
			fmt.Println("\nReceived stop signal, shutting down")
			quit.stop()
		case <-quit.ch:
		}
		signal.Stop(sigChan)
	}()
}
