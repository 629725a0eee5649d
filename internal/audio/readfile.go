package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

// AudioInfo holds essential information about a decoded audio file.
type AudioInfo struct {
	SampleRate   int
	TotalSamples int
	NumChannels  int
	BitDepth     int
}

// Duration returns the play time of the file.
func (a AudioInfo) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(a.TotalSamples) / float64(a.SampleRate) * float64(time.Second))
}

// GetAudioInfo returns information about an audio file without decoding it fully.
func GetAudioInfo(filePath string) (AudioInfo, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return AudioInfo{}, errors.New(fmt.Errorf("error opening file: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer file.Close()

	switch ext {
	case ".wav":
		return readWAVInfo(file)
	case ".flac":
		return readFLACInfo(file)
	default:
		return AudioInfo{}, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("extension", ext).
			Build()
	}
}

// decodeFile decodes a whole audio file to mono PCM at the pipeline rate.
func decodeFile(filePath string) ([]int16, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("error opening file: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer file.Close()

	switch ext {
	case ".wav":
		return decodeWAV(file)
	case ".flac":
		return decodeFLAC(file)
	default:
		return nil, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("extension", ext).
			Build()
	}
}

// getAudioDivisor returns the scale factor for converting integer samples
// of the given bit depth to the unit range.
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("bit_depth", bitDepth).
			Build()
	}
}

// FileSource serves a decoded audio file through the SampleSource
// interface so file and live runs share one pipeline. Timestamps are
// synthesized from the stream position against a fixed base.
type FileSource struct {
	path    string
	base    time.Time
	samples []int16
	pos     int
}

// NewFileSource creates a source for the given audio file. The base time
// anchors synthesized frame timestamps.
func NewFileSource(path string, base time.Time) *FileSource {
	return &FileSource{path: path, base: base}
}

// SampleRate returns the pipeline rate all files are decoded to.
func (f *FileSource) SampleRate() int { return conf.SampleRate }

// Start decodes the whole file into memory.
func (f *FileSource) Start(ctx context.Context) error {
	samples, err := decodeFile(f.path)
	if err != nil {
		return err
	}
	f.samples = samples
	f.pos = 0
	return nil
}

// ReadBlock returns the next block of decoded samples, io.EOF at the end.
func (f *FileSource) ReadBlock(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if f.pos >= len(f.samples) {
		return Frame{}, io.EOF
	}

	blockSamples := DurationToSamples(blockDuration)
	end := f.pos + blockSamples
	if end > len(f.samples) {
		end = len(f.samples)
	}

	frame := Frame{
		Timestamp:  f.base.Add(SamplesToDuration(f.pos)),
		SampleRate: conf.SampleRate,
		Samples:    f.samples[f.pos:end],
	}
	f.pos = end
	return frame, nil
}

// Close releases the decoded samples.
func (f *FileSource) Close() error {
	f.samples = nil
	return nil
}
