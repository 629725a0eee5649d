package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// makeFrame builds a frame of the given play time starting at offset from
// the test base time.
func makeFrame(offset, length time.Duration) Frame {
	return Frame{
		Timestamp:  testBase.Add(offset),
		SampleRate: conf.SampleRate,
		Samples:    make([]int16, DurationToSamples(length)),
	}
}

func TestCaptureBufferPushDrain(t *testing.T) {
	cb := NewCaptureBuffer(10 * time.Second)

	for i := 0; i < 5; i++ {
		err := cb.Push(makeFrame(time.Duration(i)*time.Second, time.Second))
		require.NoError(t, err)
	}
	assert.Equal(t, 5*time.Second, cb.Buffered())

	frames := cb.Drain(3 * time.Second)
	require.Len(t, frames, 3)
	assert.Equal(t, testBase, frames[0].Timestamp)
	assert.Equal(t, testBase.Add(2*time.Second), frames[2].Timestamp)
	assert.Equal(t, 2*time.Second, cb.Buffered())

	// Returned frames are in non-decreasing timestamp order.
	for i := 1; i < len(frames); i++ {
		assert.False(t, frames[i].Timestamp.Before(frames[i-1].Timestamp))
	}
}

func TestCaptureBufferRejectsOutOfOrderFrame(t *testing.T) {
	cb := NewCaptureBuffer(10 * time.Second)

	require.NoError(t, cb.Push(makeFrame(time.Second, time.Second)))

	// A frame starting before the previous frame's start is rejected.
	err := cb.Push(makeFrame(500*time.Millisecond, time.Second))
	require.Error(t, err)
	assert.True(t, errors.IsSequenceError(err))

	// The rejected frame did not enter the buffer.
	assert.Equal(t, time.Second, cb.Buffered())

	// A frame starting exactly at the previous end is accepted.
	require.NoError(t, cb.Push(makeFrame(2*time.Second, time.Second)))
	assert.Equal(t, 2*time.Second, cb.Buffered())
}

func TestCaptureBufferAcceptsOverlappingFrames(t *testing.T) {
	cb := NewCaptureBuffer(10 * time.Second)

	require.NoError(t, cb.Push(makeFrame(0, time.Second)))

	// Start times only have to be non-decreasing: a frame overlapping the
	// previous frame's tail is legal.
	require.NoError(t, cb.Push(makeFrame(500*time.Millisecond, time.Second)))

	// So is a frame starting at exactly the same instant.
	require.NoError(t, cb.Push(makeFrame(500*time.Millisecond, time.Second)))

	assert.Equal(t, 3*time.Second, cb.Buffered())
	assert.Zero(t, cb.Dropped())
}

func TestCaptureBufferOverflowEvictsOldest(t *testing.T) {
	cb := NewCaptureBuffer(3 * time.Second)

	for i := 0; i < 5; i++ {
		// Push never returns an overflow error.
		err := cb.Push(makeFrame(time.Duration(i)*time.Second, time.Second))
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(2), cb.Dropped())
	assert.Equal(t, 3*time.Second, cb.Buffered())

	// The survivors are the newest frames, still in order.
	frames := cb.Drain(time.Hour)
	require.Len(t, frames, 3)
	assert.Equal(t, testBase.Add(2*time.Second), frames[0].Timestamp)
	assert.Equal(t, testBase.Add(4*time.Second), frames[2].Timestamp)
}

func TestCaptureBufferDropRate(t *testing.T) {
	cb := NewCaptureBuffer(2 * time.Second)
	assert.Zero(t, cb.DropRate())

	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Push(makeFrame(time.Duration(i)*time.Second, time.Second)))
	}

	// 4 pushed, 2 evicted.
	assert.InDelta(t, 0.5, cb.DropRate(), 1e-9)

	// Draining does not reset the cumulative counters.
	cb.Drain(time.Hour)
	assert.Equal(t, uint64(2), cb.Dropped())
	assert.InDelta(t, 0.5, cb.DropRate(), 1e-9)
}

func TestCaptureBufferIgnoresEmptyFrame(t *testing.T) {
	cb := NewCaptureBuffer(time.Second)
	require.NoError(t, cb.Push(Frame{Timestamp: testBase, SampleRate: conf.SampleRate}))
	assert.Zero(t, cb.Buffered())
	assert.Empty(t, cb.Drain(time.Hour))
}

func TestFrameDuration(t *testing.T) {
	f := makeFrame(0, 100*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, f.Duration())
	assert.Equal(t, testBase.Add(100*time.Millisecond), f.End())

	zero := Frame{Samples: make([]int16, 100)}
	assert.Zero(t, zero.Duration())
}
