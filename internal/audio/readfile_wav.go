package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

func readWAVInfo(file *os.File) (AudioInfo, error) {
	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return AudioInfo{}, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid WAV file format").
			Build()
	}

	if decoder.SampleRate == 0 {
		return AudioInfo{}, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid WAV sample rate").
			Build()
	}

	stat, err := file.Stat()
	if err != nil {
		return AudioInfo{}, errors.New(fmt.Errorf("error getting file stats: %w", err)).
			Component("audio").
			Category(errors.CategoryFileIO).
			Build()
	}

	bytesPerSample := int(decoder.BitDepth) / 8
	if bytesPerSample == 0 {
		return AudioInfo{}, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid WAV bit depth").
			Build()
	}

	// 44 bytes of standard WAV header.
	dataSize := stat.Size() - 44
	totalSamples := int(dataSize) / bytesPerSample / int(decoder.NumChans)

	return AudioInfo{
		SampleRate:   int(decoder.SampleRate),
		TotalSamples: totalSamples,
		NumChannels:  int(decoder.NumChans),
		BitDepth:     int(decoder.BitDepth),
	}, nil
}

// decodeWAV reads a whole WAV file and converts it to mono 16-bit PCM
// at the pipeline sample rate.
func decodeWAV(file *os.File) ([]int16, error) {
	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid WAV file format").
			Build()
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}

	numChannels := int(decoder.NumChans)
	if numChannels < 1 {
		return nil, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid WAV channel count").
			Build()
	}

	var mono []float64
	chunkSize := 8192
	buf := &audio.IntBuffer{
		Data:   make([]int, chunkSize*numChannels),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: numChannels},
	}

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, errors.New(fmt.Errorf("error reading WAV data: %w", err)).
				Component("audio").
				Category(errors.CategoryFileIO).
				Build()
		}
		if n == 0 {
			break
		}

		// Downmix interleaved channels by averaging.
		for i := 0; i+numChannels <= n; i += numChannels {
			var sum float64
			for c := 0; c < numChannels; c++ {
				sum += float64(buf.Data[i+c])
			}
			mono = append(mono, sum/float64(numChannels)/divisor)
		}

		if n < len(buf.Data) {
			break
		}
	}

	resampled, err := resampleAudio(mono, int(decoder.SampleRate), conf.SampleRate)
	if err != nil {
		return nil, err
	}
	return floatToPCM(resampled), nil
}

// floatToPCM converts unit-range samples to 16-bit PCM with clamping.
func floatToPCM(samples []float64) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767.0
		switch {
		case v > 32767.0:
			v = 32767.0
		case v < -32768.0:
			v = -32768.0
		}
		pcm[i] = int16(v)
	}
	return pcm
}
