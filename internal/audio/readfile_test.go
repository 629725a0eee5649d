package audio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

// writeTestWAV encodes samples and writes them to a temp file.
func writeTestWAV(t *testing.T, samples []int16) string {
	t.Helper()
	data, err := EncodeWAV(samples)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "test.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestGetAudioInfoUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	_, err := GetAudioInfo(path)
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestGetAudioInfoMissingFile(t *testing.T) {
	_, err := GetAudioInfo(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.False(t, errors.IsFormatError(err))
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFxxxxnotawave"), 0o644))

	_, err := decodeFile(path)
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestFileSourceReadsWholeFile(t *testing.T) {
	samples := sineWave(conf.SampleRate, 440, 0.5) // one second
	path := writeTestWAV(t, samples)

	src := NewFileSource(path, testBase)
	require.NoError(t, src.Start(context.Background()))
	defer src.Close()

	assert.Equal(t, conf.SampleRate, src.SampleRate())

	var total int
	var frames []Frame
	for {
		frame, err := src.ReadBlock(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		total += len(frame.Samples)
		frames = append(frames, frame)
	}
	assert.Equal(t, len(samples), total)

	// Synthesized timestamps are contiguous from the base time.
	require.NotEmpty(t, frames)
	assert.Equal(t, testBase, frames[0].Timestamp)
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, frames[i-1].End(), frames[i].Timestamp)
	}
	assert.Equal(t, testBase.Add(time.Second), frames[len(frames)-1].End())
}

func TestFileSourceContextCancel(t *testing.T) {
	path := writeTestWAV(t, sineWave(conf.SampleRate, 440, 0.5))

	src := NewFileSource(path, testBase)
	require.NoError(t, src.Start(context.Background()))
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.ReadBlock(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceStartMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.wav"), testBase)
	err := src.Start(context.Background())
	require.Error(t, err)
}

func TestResampleAudio(t *testing.T) {
	t.Run("same rate is passthrough", func(t *testing.T) {
		in := []float64{0.1, 0.2, 0.3}
		out, err := resampleAudio(in, 16000, 16000)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("downsample halves length", func(t *testing.T) {
		in := make([]float64, 32000)
		out, err := resampleAudio(in, 32000, 16000)
		require.NoError(t, err)
		assert.Len(t, out, 16000)
	})

	t.Run("upsample doubles length", func(t *testing.T) {
		in := make([]float64, 8000)
		out, err := resampleAudio(in, 8000, 16000)
		require.NoError(t, err)
		assert.Len(t, out, 16000)
	})

	t.Run("invalid rates rejected", func(t *testing.T) {
		_, err := resampleAudio(make([]float64, 100), 0, 16000)
		require.Error(t, err)
		assert.True(t, errors.IsFormatError(err))
	})

	t.Run("constant signal stays constant", func(t *testing.T) {
		in := make([]float64, 1000)
		for i := range in {
			in[i] = 0.25
		}
		out, err := resampleAudio(in, 48000, 16000)
		require.NoError(t, err)
		for _, v := range out {
			assert.InDelta(t, 0.25, v, 1e-9)
		}
	})
}
