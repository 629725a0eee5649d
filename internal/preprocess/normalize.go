package preprocess

import "math"

// peakEpsilon is the level below which input is considered silence and
// normalization is skipped, so the noise floor is never amplified.
const peakEpsilon = 1e-4

// normalizePeak rescales samples in place so the peak amplitude hits the
// target level in dBFS. All-silence input is returned untouched. Output is
// clamped to the unit range.
func normalizePeak(samples []float64, targetDB float64) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < peakEpsilon {
		return
	}

	target := math.Pow(10, targetDB/20.0)
	gain := target / peak
	for i, s := range samples {
		v := s * gain
		switch {
		case v > 1.0:
			v = 1.0
		case v < -1.0:
			v = -1.0
		}
		samples[i] = v
	}
}
