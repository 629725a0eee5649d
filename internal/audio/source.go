package audio

import (
	"context"
	"time"
)

// SampleSource abstracts a PCM sample stream: a live capture device or a
// decoded audio file. Implementations stamp frames with monotonically
// non-decreasing timestamps.
type SampleSource interface {
	// Start prepares the source and begins producing samples.
	Start(ctx context.Context) error
	// ReadBlock returns the next block of samples. It returns ErrNoData
	// when nothing is buffered yet (live sources), io.EOF when the stream
	// is exhausted (file sources), and an acquisition error on failure.
	ReadBlock(ctx context.Context) (Frame, error)
	// SampleRate returns the declared output rate in Hz.
	SampleRate() int
	// Close releases the underlying device or file.
	Close() error
}

// ErrNoData signals that a live source has no samples buffered yet. The
// capture loop retries on its next poll tick.
var ErrNoData = errNoData{}

type errNoData struct{}

func (errNoData) Error() string { return "no sample data available" }

// blockDuration is the play time of one ReadBlock result.
const blockDuration = 100 * time.Millisecond
