package preprocess

import (
	"time"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
)

// segmenterConfig holds assembly thresholds in window units and sample
// counts, derived once per run from the settings.
type segmenterConfig struct {
	windowSize  int // samples per VAD window
	mergeGap    int // max silence gap to bridge, in windows
	minDuration int // minimum segment length, in windows
	maxDuration int // maximum segment length, in windows
}

// mergeSpans coalesces spans separated by a silence gap at or below the
// merge threshold.
func mergeSpans(spans []span, mergeGap int) []span {
	if len(spans) == 0 {
		return nil
	}
	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start-last.end <= mergeGap {
			last.end = s.end
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

// splitSpans cuts spans longer than maxDuration. The cut lands on the
// silence window nearest to the limit (scanning backwards through the raw
// VAD flags), or at the hard limit when the span has no internal silence.
// Diarization cost grows steeply with segment length, so long spans are
// never forwarded whole.
func splitSpans(spans []span, flags []bool, maxDuration int) []span {
	if maxDuration < 1 {
		return spans
	}
	var out []span
	for _, s := range spans {
		for s.end-s.start > maxDuration {
			cut := s.start + maxDuration
			for i := cut; i > s.start; i-- {
				if !flags[i-1] {
					cut = i
					break
				}
			}
			out = append(out, span{start: s.start, end: cut})
			s.start = cut
		}
		out = append(out, s)
	}
	return out
}

// dropShortSpans removes spans below the minimum duration. Ensures
// fragments too short for useful diarization never reach analysis.
func dropShortSpans(spans []span, minDuration int) []span {
	var out []span
	for _, s := range spans {
		if s.end-s.start >= minDuration {
			out = append(out, s)
		}
	}
	return out
}

// assembleSegments converts window spans back into timestamped audio
// segments cut from the processed sample stream.
func assembleSegments(spans []span, samples []float64, base time.Time, cfg segmenterConfig) []audio.Segment {
	var segments []audio.Segment
	for _, s := range spans {
		startSample := s.start * cfg.windowSize
		endSample := s.end * cfg.windowSize
		if endSample > len(samples) {
			endSample = len(samples)
		}
		if startSample >= endSample {
			continue
		}
		segments = append(segments, audio.Segment{
			Start:      base.Add(audio.SamplesToDuration(startSample)),
			End:        base.Add(audio.SamplesToDuration(endSample)),
			SampleRate: conf.SampleRate,
			Samples:    floatToPCM(samples[startSample:endSample]),
		})
	}
	return segments
}

// floatToPCM converts unit-range samples back to 16-bit PCM with clamping.
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
