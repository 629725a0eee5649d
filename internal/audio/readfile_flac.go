package audio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
)

func readFLACInfo(file *os.File) (AudioInfo, error) {
	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return AudioInfo{}, errors.New(err).
			Component("audio").
			Category(errors.CategoryFormat).
			Build()
	}

	return AudioInfo{
		SampleRate:   decoder.SampleRate,
		TotalSamples: int(decoder.TotalSamples),
		NumChannels:  decoder.NChannels,
		BitDepth:     decoder.BitsPerSample,
	}, nil
}

// decodeFLAC reads a whole FLAC file and converts it to mono 16-bit PCM
// at the pipeline sample rate.
func decodeFLAC(file *os.File) ([]int16, error) {
	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryFormat).
			Build()
	}

	divisor, err := getAudioDivisor(decoder.BitsPerSample)
	if err != nil {
		return nil, err
	}

	if decoder.NChannels < 1 {
		return nil, errors.New(errors.ErrFormat).
			Component("audio").
			Category(errors.CategoryFormat).
			Context("reason", "invalid FLAC channel count").
			Build()
	}

	bytesPerSample := decoder.BitsPerSample / 8
	stride := bytesPerSample * decoder.NChannels

	var mono []float64
	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.New(err).
				Component("audio").
				Category(errors.CategoryFileIO).
				Build()
		}

		for i := 0; i+stride <= len(frame); i += stride {
			var sum float64
			for c := 0; c < decoder.NChannels; c++ {
				off := i + c*bytesPerSample
				var sample int32
				switch decoder.BitsPerSample {
				case 16:
					sample = int32(int16(binary.LittleEndian.Uint16(frame[off:])))
				case 24:
					sample = int32(frame[off]) | int32(frame[off+1])<<8 | int32(int8(frame[off+2]))<<16
				case 32:
					sample = int32(binary.LittleEndian.Uint32(frame[off:]))
				}
				sum += float64(sample)
			}
			mono = append(mono, sum/float64(decoder.NChannels)/divisor)
		}
	}

	resampled, err := resampleAudio(mono, decoder.SampleRate, conf.SampleRate)
	if err != nil {
		return nil, err
	}
	return floatToPCM(resampled), nil
}
