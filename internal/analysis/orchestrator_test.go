package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/diarizer"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

// stubDiarizer returns canned responses per call, in order. A nil entry
// simulates an analysis failure.
type stubDiarizer struct {
	mu        sync.Mutex
	responses []*diarizer.Response
	calls     int
	block     time.Duration
}

func (s *stubDiarizer) Name() string                            { return "stub" }
func (s *stubDiarizer) IsAvailable(ctx context.Context) bool    { return true }

func (s *stubDiarizer) Diarize(ctx context.Context, req diarizer.Request) (*diarizer.Response, error) {
	if s.block > 0 {
		select {
		case <-time.After(s.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) || s.responses[idx] == nil {
		return nil, errors.New(errors.ErrAnalysisFailed).
			Component("diarizer").
			Category(errors.CategoryAudioAnalysis).
			Build()
	}
	return s.responses[idx], nil
}

func orchestratorSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Diarizer.Timeout = 2
	s.Diarizer.MinSpeakers = 1
	s.Diarizer.MaxSpeakers = 4
	return s
}

func respWith(labels ...string) *diarizer.Response {
	r := &diarizer.Response{NumSpeakers: len(labels)}
	for i, l := range labels {
		r.Intervals = append(r.Intervals, diarizer.SpeakerInterval{
			Label: l,
			Start: float64(i),
			End:   float64(i + 1),
		})
	}
	return r
}

func TestOrchestratorAnalyze(t *testing.T) {
	stub := &stubDiarizer{responses: []*diarizer.Response{respWith("A", "B")}}
	orch := NewOrchestrator(orchestratorSettings(), stub, NewResult("test"))

	err := orch.Analyze(context.Background(), 0, testSegment(0, 4*time.Second))
	require.NoError(t, err)

	snap := orch.Result().Snapshot()
	assert.Equal(t, 2, snap.SpeakerCount)
	assert.Equal(t, 1, snap.Analyzed)
	assert.Len(t, snap.Timeline, 2)
}

func TestOrchestratorAbsorbsFailures(t *testing.T) {
	// Second of three calls fails; the run continues and the failed
	// segment's range is marked unanalyzed.
	stub := &stubDiarizer{responses: []*diarizer.Response{
		respWith("A"),
		nil,
		respWith("A", "B"),
	}}
	orch := NewOrchestrator(orchestratorSettings(), stub, NewResult("test"))

	ctx := context.Background()
	require.NoError(t, orch.Analyze(ctx, 0, testSegment(0, 2*time.Second)))
	require.NoError(t, orch.Analyze(ctx, 1, testSegment(3*time.Second, 2*time.Second)))
	require.NoError(t, orch.Analyze(ctx, 2, testSegment(6*time.Second, 2*time.Second)))

	snap := orch.Result().Snapshot()
	assert.Equal(t, 2, snap.Analyzed)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 2, snap.SpeakerCount)

	var unanalyzed int
	for _, seg := range snap.Timeline {
		if seg.Label == conf.UnanalyzedLabel {
			unanalyzed++
		}
	}
	assert.Equal(t, 1, unanalyzed)
}

func TestOrchestratorTimeoutSkipsSegment(t *testing.T) {
	settings := orchestratorSettings()
	settings.Diarizer.Timeout = 1

	stub := &stubDiarizer{block: 5 * time.Second}
	orch := NewOrchestrator(settings, stub, NewResult("test"))

	start := time.Now()
	err := orch.Analyze(context.Background(), 0, testSegment(0, 2*time.Second))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	snap := orch.Result().Snapshot()
	assert.Equal(t, 0, snap.Analyzed)
	assert.Equal(t, 1, snap.Skipped)
}

func TestOrchestratorReturnsOnCancelledContext(t *testing.T) {
	stub := &stubDiarizer{responses: []*diarizer.Response{respWith("A")}}
	orch := NewOrchestrator(orchestratorSettings(), stub, NewResult("test"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := orch.Analyze(ctx, 0, testSegment(0, 2*time.Second))
	assert.ErrorIs(t, err, context.Canceled)

	// An abandoned segment is neither analyzed nor marked skipped.
	snap := orch.Result().Snapshot()
	assert.Equal(t, 0, snap.Analyzed)
	assert.Equal(t, 0, snap.Skipped)
}
