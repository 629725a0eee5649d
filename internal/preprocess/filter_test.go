package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdemirli/roomcount-go/internal/conf"
)

func tone(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(conf.SampleRate))
	}
	return out
}

func peakLevel(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func TestHighPassRemovesRumble(t *testing.T) {
	hp, err := NewHighPass(float64(conf.SampleRate), 60, 0.707, 1)
	require.NoError(t, err)

	// A 10 Hz rumble is well below the cutoff.
	rumble := tone(10, conf.SampleRate)
	hp.ApplyBatch(rumble)
	// Skip the transient at the start before measuring.
	assert.Less(t, peakLevel(rumble[conf.SampleRate/2:]), 0.1)

	hp.Reset()
	speech := tone(1000, conf.SampleRate)
	hp.ApplyBatch(speech)
	assert.Greater(t, peakLevel(speech[conf.SampleRate/2:]), 0.9)
}

func TestLowPassRemovesHiss(t *testing.T) {
	lp, err := NewLowPass(float64(conf.SampleRate), 1000, 0.707, 1)
	require.NoError(t, err)

	hiss := tone(7000, conf.SampleRate)
	lp.ApplyBatch(hiss)
	assert.Less(t, peakLevel(hiss[conf.SampleRate/2:]), 0.1)

	lp.Reset()
	speech := tone(200, conf.SampleRate)
	lp.ApplyBatch(speech)
	assert.Greater(t, peakLevel(speech[conf.SampleRate/2:]), 0.9)
}

func TestFilterRejectsBadParameters(t *testing.T) {
	_, err := NewHighPass(float64(conf.SampleRate), 60, 0.707, 0)
	assert.Error(t, err)

	_, err = NewLowPass(float64(conf.SampleRate), float64(conf.SampleRate), 0.707, 1)
	assert.Error(t, err)

	_, err = NewHighPass(float64(conf.SampleRate), -10, 0.707, 1)
	assert.Error(t, err)
}

func TestFilterChain(t *testing.T) {
	chain := NewFilterChain()
	assert.Zero(t, chain.Len())

	hp, err := NewHighPass(float64(conf.SampleRate), 60, 0.707, 1)
	require.NoError(t, err)
	lp, err := NewLowPass(float64(conf.SampleRate), 7800, 0.707, 1)
	require.NoError(t, err)
	chain.Add(hp)
	chain.Add(lp)
	assert.Equal(t, 2, chain.Len())

	// Mid-band content passes the whole chain essentially unchanged.
	speech := tone(440, conf.SampleRate)
	chain.ApplyBatch(speech)
	assert.Greater(t, peakLevel(speech[conf.SampleRate/2:]), 0.9)

	chain.Reset()
}

func TestNormalizePeak(t *testing.T) {
	t.Run("scales to target", func(t *testing.T) {
		samples := tone(440, conf.SampleRate)
		for i := range samples {
			samples[i] *= 0.05
		}
		normalizePeak(samples, -15)
		want := math.Pow(10, -15.0/20.0)
		assert.InDelta(t, want, peakLevel(samples), 0.01)
	})

	t.Run("silence is left untouched", func(t *testing.T) {
		samples := make([]float64, 1000)
		normalizePeak(samples, -15)
		assert.Zero(t, peakLevel(samples))
	})

	t.Run("near-silence below epsilon is not amplified", func(t *testing.T) {
		samples := make([]float64, 1000)
		samples[500] = 5e-5
		normalizePeak(samples, -15)
		assert.Equal(t, 5e-5, samples[500])
	})

	t.Run("output clamped to unit range", func(t *testing.T) {
		samples := []float64{0.1, -0.1}
		normalizePeak(samples, 6) // target above full scale
		assert.LessOrEqual(t, peakLevel(samples), 1.0)
	})
}

func TestSpectralGate(t *testing.T) {
	win := conf.SampleRate * 30 / 1000

	t.Run("zero strength is passthrough", func(t *testing.T) {
		g := NewSpectralGate(0, win)
		in := tone(440, conf.SampleRate)
		out := g.Process(in)
		assert.Equal(t, in, out)
	})

	t.Run("quiet windows attenuated, loud untouched", func(t *testing.T) {
		g := NewSpectralGate(0.5, win)

		// One second quiet noise followed by one second loud tone.
		in := make([]float64, 2*conf.SampleRate)
		for i := 0; i < conf.SampleRate; i++ {
			in[i] = 0.001 * math.Sin(2*math.Pi*300*float64(i)/float64(conf.SampleRate))
		}
		loud := tone(440, conf.SampleRate)
		copy(in[conf.SampleRate:], loud)

		out := g.Process(in)
		// The quiet second does not divide evenly into gate windows, so
		// the window straddling the loud boundary carries mixed energy
		// and is legitimately not gated. Measure whole quiet windows.
		quietEnd := conf.SampleRate / win * win
		assert.Less(t, peakLevel(out[:quietEnd]), peakLevel(in[:quietEnd]))
		assert.InDelta(t, 1.0, peakLevel(out[conf.SampleRate:]), 0.01)
	})

	t.Run("strength clamped", func(t *testing.T) {
		g := NewSpectralGate(1.5, win)
		assert.Equal(t, 1.0, g.Strength)
		g = NewSpectralGate(-0.5, win)
		assert.Equal(t, 0.0, g.Strength)
	})

	t.Run("same length output", func(t *testing.T) {
		g := NewSpectralGate(0.3, win)
		in := tone(440, conf.SampleRate+123)
		assert.Len(t, g.Process(in), len(in))
	})
}
