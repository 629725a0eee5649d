package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

// seekableBuffer extends bytes.Buffer with a Seek method so the WAV
// encoder can rewrite the header after the data chunk is known.
type seekableBuffer struct {
	bytes.Buffer
	pos int64
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos < int64(b.Len()) {
		// Overwrite in place, growing if the write runs past the end.
		data := b.Bytes()
		n := copy(data[b.pos:], p)
		if n < len(p) {
			if _, err := b.Buffer.Write(p[n:]); err != nil {
				return n, err
			}
		}
		b.pos += int64(len(p))
		return len(p), nil
	}
	n, err := b.Buffer.Write(p)
	b.pos += int64(n)
	return n, err
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(b.Len()) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position: %d", abs)
	}
	b.pos = abs
	return abs, nil
}

// EncodeWAV encodes 16-bit mono PCM samples into an in-memory WAV file.
func EncodeWAV(samples []int16) ([]byte, error) {
	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, conf.SampleRate, conf.BitDepth, conf.NumChannels, 1)

	intSamples := make([]int, len(samples))
	for i, s := range samples {
		intSamples[i] = int(s)
	}

	if err := enc.Write(&audio.IntBuffer{
		Data:   intSamples,
		Format: &audio.Format{SampleRate: conf.SampleRate, NumChannels: conf.NumChannels},
	}); err != nil {
		return nil, errors.New(fmt.Errorf("failed to write to WAV encoder: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := enc.Close(); err != nil {
		return nil, errors.New(fmt.Errorf("failed to finalize WAV encoding: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}

	return buf.Bytes(), nil
}

// SaveSegmentWAV writes a segment to disk as a WAV file, creating any
// missing directories.
func SaveSegmentWAV(filePath string, seg Segment) error {
	data, err := EncodeWAV(seg.Samples)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create directories: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return errors.New(fmt.Errorf("failed to write WAV file: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}
