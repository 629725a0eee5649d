// Package audio provides sample acquisition and buffering: the capture
// device and file sources, and the bounded frame buffer that decouples
// capture from analysis.
package audio

import (
	"time"

	"github.com/tdemirli/roomcount-go/internal/conf"
)

// Frame is a timestamped block of PCM samples. Frames are immutable once
// created; ownership transfers downstream with no shared mutation.
type Frame struct {
	Timestamp  time.Time // start of the frame, monotonically non-decreasing per source
	SampleRate int
	Samples    []int16
}

// Duration returns the play time of the frame.
func (f *Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.Samples)) / float64(f.SampleRate) * float64(time.Second))
}

// End returns the timestamp just past the last sample of the frame.
func (f *Frame) End() time.Time {
	return f.Timestamp.Add(f.Duration())
}

// Segment is a contiguous span of speech-only audio produced by the
// preprocessing pipeline. Invariant: End is after Start and the span is at
// least the configured minimum speech duration.
type Segment struct {
	Start      time.Time
	End        time.Time
	SampleRate int
	Samples    []int16
}

// Duration returns the play time of the segment.
func (s *Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// SamplesToDuration converts a sample count at the pipeline rate to play time.
func SamplesToDuration(n int) time.Duration {
	return time.Duration(float64(n) / float64(conf.SampleRate) * float64(time.Second))
}

// DurationToSamples converts play time to a sample count at the pipeline rate.
func DurationToSamples(d time.Duration) int {
	return int(d.Seconds() * float64(conf.SampleRate))
}
