package preprocess

import (
	"math"
	"sort"
)

// Denoiser is a replaceable noise suppression strategy. Process must be
// deterministic for a given input and return output of the same length.
type Denoiser interface {
	Process(samples []float64) []float64
}

// SpectralGate attenuates windows whose energy sits near the estimated
// noise floor. The noise floor is taken from the quietest windows of the
// input itself, so the gate adapts per run without a separate noise
// profile recording.
type SpectralGate struct {
	// Strength in [0,1]: how much below-floor windows are attenuated.
	// 0 leaves the signal untouched, 1 silences gated windows entirely.
	Strength float64

	// WindowSize in samples for energy estimation.
	WindowSize int
}

// NewSpectralGate creates a gate with the given reduction strength and
// analysis window size.
func NewSpectralGate(strength float64, windowSize int) *SpectralGate {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	if windowSize < 1 {
		windowSize = 1
	}
	return &SpectralGate{Strength: strength, WindowSize: windowSize}
}

// Process applies the gate. Output has the same length as the input.
func (g *SpectralGate) Process(samples []float64) []float64 {
	if len(samples) == 0 || g.Strength == 0 {
		return samples
	}

	numWindows := (len(samples) + g.WindowSize - 1) / g.WindowSize
	energies := make([]float64, numWindows)
	for w := 0; w < numWindows; w++ {
		start := w * g.WindowSize
		end := start + g.WindowSize
		if end > len(samples) {
			end = len(samples)
		}
		energies[w] = rms(samples[start:end])
	}

	floor := noiseFloor(energies)
	// Windows within 2x of the floor are treated as noise.
	threshold := floor * 2.0
	gain := 1.0 - g.Strength

	out := make([]float64, len(samples))
	copy(out, samples)
	for w := 0; w < numWindows; w++ {
		if energies[w] > threshold {
			continue
		}
		start := w * g.WindowSize
		end := start + g.WindowSize
		if end > len(out) {
			end = len(out)
		}
		for i := start; i < end; i++ {
			out[i] *= gain
		}
	}
	return out
}

// noiseFloor estimates the noise level as the 10th percentile of window
// energies. An all-silence input yields a floor of zero.
func noiseFloor(energies []float64) float64 {
	if len(energies) == 0 {
		return 0
	}
	sorted := make([]float64, len(energies))
	copy(sorted, energies)
	sort.Float64s(sorted)
	idx := len(sorted) / 10
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// rms returns the root mean square level of the samples.
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
