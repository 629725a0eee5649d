// Package diarizer defines the interface to the external speaker
// diarization capability and its HTTP sidecar implementation.
package diarizer

import (
	"context"
)

// SpeakerInterval is one speaker-attributed time range within a diarized
// segment. Offsets are seconds relative to the start of the submitted
// audio. The label is local to one call; no identity continuity across
// calls is implied.
type SpeakerInterval struct {
	Label string  `json:"speaker"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Request holds parameters for one diarization call.
type Request struct {
	// Audio is a complete WAV file.
	Audio []byte
	// MinSpeakers is the minimum expected number of speakers, 0 for auto.
	MinSpeakers int
	// MaxSpeakers is the maximum expected number of speakers, 0 for auto.
	MaxSpeakers int
}

// Response holds the result of one diarization call.
type Response struct {
	Intervals   []SpeakerInterval
	NumSpeakers int
}

// Diarizer is the call contract with the external diarization capability.
// Implementations must honor the context deadline; a timed-out or failed
// call returns an error and the caller treats the segment as unanalyzed.
type Diarizer interface {
	// Name identifies the backend for logs and reports.
	Name() string

	// IsAvailable reports whether the backend is reachable.
	IsAvailable(ctx context.Context) bool

	// Diarize submits one audio segment and returns labeled intervals.
	Diarize(ctx context.Context, req Request) (*Response, error)
}
