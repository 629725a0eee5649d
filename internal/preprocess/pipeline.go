package preprocess

import (
	"log/slog"

	"github.com/tdemirli/roomcount-go/internal/audio"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
	"github.com/tdemirli/roomcount-go/internal/logging"
)

// Pipeline runs the full frame-to-segment conditioning chain: band-limit
// filtering, noise gating, peak normalization, and voice activity
// segmentation. A pipeline instance is not safe for concurrent use; each
// run loop owns its own.
type Pipeline struct {
	settings   *conf.Settings
	chain      *FilterChain
	denoiser   Denoiser
	classifier Classifier
	cfg        segmenterConfig
	logger     *slog.Logger
}

// NewPipeline builds a pipeline from the settings, with the default gate
// denoiser and energy classifier.
func NewPipeline(settings *conf.Settings) (*Pipeline, error) {
	p := &Pipeline{
		settings: settings,
		logger:   logging.ForService("preprocess"),
	}

	windowSamples := conf.SampleRate * settings.Preprocess.VAD.WindowMS / 1000

	chain := NewFilterChain()
	hp, err := NewHighPass(float64(conf.SampleRate), settings.Preprocess.HighPassHz, 0.707, 1)
	if err != nil {
		return nil, errors.New(err).
			Component("preprocess").
			Category(errors.CategoryConfiguration).
			Build()
	}
	chain.Add(hp)
	lp, err := NewLowPass(float64(conf.SampleRate), settings.Preprocess.LowPassHz, 0.707, 1)
	if err != nil {
		return nil, errors.New(err).
			Component("preprocess").
			Category(errors.CategoryConfiguration).
			Build()
	}
	chain.Add(lp)

	p.chain = chain
	p.denoiser = NewSpectralGate(settings.Preprocess.NoiseReduction, windowSamples)
	p.classifier = NewEnergyClassifier(settings.Preprocess.VAD.EnergyThreshold)
	p.cfg = segmenterConfig{
		windowSize:  windowSamples,
		mergeGap:    durationToWindows(settings.Preprocess.Segment.MergeGap, settings.Preprocess.VAD.WindowMS),
		minDuration: durationToWindows(settings.Preprocess.Segment.MinDuration, settings.Preprocess.VAD.WindowMS),
		maxDuration: durationToWindows(settings.Preprocess.Segment.MaxDuration, settings.Preprocess.VAD.WindowMS),
	}
	return p, nil
}

// SetDenoiser swaps the noise suppression strategy.
func (p *Pipeline) SetDenoiser(d Denoiser) { p.denoiser = d }

// SetClassifier swaps the voice activity strategy.
func (p *Pipeline) SetClassifier(c Classifier) { p.classifier = c }

// durationToWindows converts seconds to a whole number of VAD windows.
func durationToWindows(seconds float64, windowMS int) int {
	if windowMS <= 0 {
		return 0
	}
	return int(seconds * 1000 / float64(windowMS))
}

// Process turns a contiguous run of frames into zero or more speech-only
// segments. Empty or all-silence input yields zero segments and no error.
// A non-positive or inconsistent sample rate in the run is a format error.
func (p *Pipeline) Process(frames []audio.Frame) ([]audio.Segment, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	for i := range frames {
		if frames[i].SampleRate <= 0 || frames[i].SampleRate != frames[0].SampleRate {
			return nil, errors.New(errors.ErrFormat).
				Component("preprocess").
				Category(errors.CategoryFormat).
				Context("frame_index", i).
				Context("sample_rate", frames[i].SampleRate).
				Build()
		}
	}

	base := frames[0].Timestamp
	var total int
	for i := range frames {
		total += len(frames[i].Samples)
	}
	if total == 0 {
		return nil, nil
	}

	samples := make([]float64, 0, total)
	for i := range frames {
		for _, s := range frames[i].Samples {
			samples = append(samples, float64(s)/32768.0)
		}
	}

	p.chain.Reset()
	p.chain.ApplyBatch(samples)
	samples = p.denoiser.Process(samples)
	normalizePeak(samples, p.settings.Preprocess.TargetDB)

	flags := classifyWindows(samples, p.cfg.windowSize, p.classifier)
	spans := applyHysteresis(flags, p.settings.Preprocess.VAD.MinSpeechFrames, p.settings.Preprocess.VAD.MinSilenceFrames)
	spans = mergeSpans(spans, p.cfg.mergeGap)
	spans = splitSpans(spans, flags, p.cfg.maxDuration)
	spans = dropShortSpans(spans, p.cfg.minDuration)

	segments := assembleSegments(spans, samples, base, p.cfg)
	if p.settings.Debug {
		p.logger.Debug("preprocessing run complete",
			"frames", len(frames),
			"windows", len(flags),
			"segments", len(segments))
	}
	return segments, nil
}
