package audio

import (
	"sync"
	"time"

	"github.com/tdemirli/roomcount-go/internal/errors"
	"github.com/tdemirli/roomcount-go/internal/observability"
)

// CaptureBuffer accumulates timestamped frames from a sample source,
// bounded by play-time capacity. Push never blocks: when the buffer is
// full the oldest frame is evicted and counted as dropped, so the capture
// poll loop is never stalled by slow analysis.
type CaptureBuffer struct {
	mu       sync.Mutex
	frames   []Frame
	buffered time.Duration
	capacity time.Duration
	// lastStart enforces non-decreasing frame start times.
	lastStart time.Time
	pushed   uint64
	dropped  uint64
}

// NewCaptureBuffer creates a buffer holding up to capacity of audio.
func NewCaptureBuffer(capacity time.Duration) *CaptureBuffer {
	return &CaptureBuffer{
		capacity: capacity,
	}
}

// Push appends a frame. Frame start times must be non-decreasing: a frame
// starting before the previously accepted frame's start is rejected with a
// sequence error, the caller drops it and the run continues. Overlap with
// the previous frame's tail is legal. Under overflow the oldest frames are
// evicted until the new frame fits.
func (cb *CaptureBuffer) Push(frame Frame) error {
	if len(frame.Samples) == 0 {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.lastStart.IsZero() && frame.Timestamp.Before(cb.lastStart) {
		observability.SequenceRejects.Inc()
		return errors.New(errors.ErrSequence).
			Component("audio").
			Category(errors.CategorySequence).
			Context("frame_time", frame.Timestamp).
			Context("last_start", cb.lastStart).
			Build()
	}

	for len(cb.frames) > 0 && cb.buffered+frame.Duration() > cb.capacity {
		evicted := cb.frames[0]
		cb.frames = cb.frames[1:]
		cb.buffered -= evicted.Duration()
		cb.dropped++
		observability.DroppedFrames.Inc()
	}

	cb.frames = append(cb.frames, frame)
	cb.buffered += frame.Duration()
	cb.lastStart = frame.Timestamp
	cb.pushed++
	return nil
}

// Drain returns and removes the oldest contiguous run of frames up to
// maxDuration of audio, or fewer if less is buffered. Frames are returned
// in non-decreasing timestamp order.
func (cb *CaptureBuffer) Drain(maxDuration time.Duration) []Frame {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var out []Frame
	var taken time.Duration
	for len(cb.frames) > 0 && taken+cb.frames[0].Duration() <= maxDuration {
		f := cb.frames[0]
		cb.frames = cb.frames[1:]
		taken += f.Duration()
		cb.buffered -= f.Duration()
		out = append(out, f)
	}
	return out
}

// Buffered returns the play time currently held.
func (cb *CaptureBuffer) Buffered() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.buffered
}

// Dropped returns the number of frames evicted due to overflow.
func (cb *CaptureBuffer) Dropped() uint64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.dropped
}

// DropRate returns the fraction of pushed frames that were later evicted.
// A rate above the configured threshold indicates degraded capture; this is
// a diagnostic signal, not a fatal condition.
func (cb *CaptureBuffer) DropRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.pushed == 0 {
		return 0
	}
	return float64(cb.dropped) / float64(cb.pushed)
}
