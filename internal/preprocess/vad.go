package preprocess

// Classifier is a replaceable voice activity strategy: it decides whether
// one fixed-size window of samples contains speech.
type Classifier interface {
	Classify(window []float64) bool
}

// EnergyClassifier flags a window as speech when its RMS level exceeds a
// fixed threshold. Simple, fast, and good enough after band-limiting and
// gating have stripped most of the room noise.
type EnergyClassifier struct {
	Threshold float64
}

// NewEnergyClassifier creates a classifier with the given RMS threshold.
func NewEnergyClassifier(threshold float64) *EnergyClassifier {
	return &EnergyClassifier{Threshold: threshold}
}

// Classify reports whether the window's energy is above the threshold.
func (c *EnergyClassifier) Classify(window []float64) bool {
	return rms(window) >= c.Threshold
}

// classifyWindows splits samples into fixed-size windows and classifies
// each. A trailing partial window is classified as-is.
func classifyWindows(samples []float64, windowSize int, c Classifier) []bool {
	if windowSize < 1 || len(samples) == 0 {
		return nil
	}
	numWindows := (len(samples) + windowSize - 1) / windowSize
	flags := make([]bool, numWindows)
	for w := 0; w < numWindows; w++ {
		start := w * windowSize
		end := start + windowSize
		if end > len(samples) {
			end = len(samples)
		}
		flags[w] = c.Classify(samples[start:end])
	}
	return flags
}

// applyHysteresis smooths raw per-window decisions: a segment opens only
// after minSpeech consecutive speech windows and closes only after
// minSilence consecutive silence windows. Returns half-open window index
// spans.
func applyHysteresis(flags []bool, minSpeech, minSilence int) []span {
	if minSpeech < 1 {
		minSpeech = 1
	}
	if minSilence < 1 {
		minSilence = 1
	}

	var spans []span
	inSpeech := false
	speechRun := 0
	silenceRun := 0
	start := 0

	for i, isSpeech := range flags {
		if isSpeech {
			speechRun++
			silenceRun = 0
			if !inSpeech && speechRun >= minSpeech {
				inSpeech = true
				start = i - speechRun + 1
			}
		} else {
			silenceRun++
			speechRun = 0
			if inSpeech && silenceRun >= minSilence {
				inSpeech = false
				spans = append(spans, span{start: start, end: i - silenceRun + 1})
			}
		}
	}
	if inSpeech {
		end := len(flags) - silenceRun
		if end > start {
			spans = append(spans, span{start: start, end: end})
		}
	}
	return spans
}

// span is a half-open range of window indices covering sustained speech.
type span struct {
	start int
	end   int
}
