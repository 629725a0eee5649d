// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validatePreprocessSettings(&settings.Preprocess); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDiarizerSettings(&settings.Diarizer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateRealtimeSettings(&settings.Realtime); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAudioSettings(settings *AudioConfig) error {
	var errs []string

	if settings.PollInterval <= 0 {
		errs = append(errs, "audio poll interval must be greater than 0")
	}
	if settings.BufferSecs <= 0 {
		errs = append(errs, "audio buffer capacity must be greater than 0 seconds")
	}
	if settings.OverlapSecs < 0 || float64(settings.BufferSecs) <= settings.OverlapSecs {
		errs = append(errs, "audio overlap must be non-negative and smaller than buffer capacity")
	}
	if settings.DropWarnRate < 0 || settings.DropWarnRate > 1 {
		errs = append(errs, "audio drop warning rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("audio settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePreprocessSettings(settings *PreprocessConfig) error {
	var errs []string

	if settings.NoiseReduction < 0 || settings.NoiseReduction > 1 {
		errs = append(errs, "noise reduction strength must be between 0 and 1")
	}
	if settings.HighPassHz < 0 || settings.LowPassHz <= settings.HighPassHz {
		errs = append(errs, "speech band edges must satisfy 0 <= highpass < lowpass")
	}
	if settings.LowPassHz >= float64(SampleRate)/2 {
		errs = append(errs, fmt.Sprintf("lowpass frequency must be below the Nyquist limit (%d Hz)", SampleRate/2))
	}
	if settings.TargetDB > 0 {
		errs = append(errs, "normalization target must be at or below 0 dBFS")
	}

	switch settings.VAD.WindowMS {
	case 10, 20, 30:
		// valid analysis window lengths
	default:
		errs = append(errs, "vad window must be 10, 20 or 30 ms")
	}
	if settings.VAD.EnergyThreshold <= 0 || settings.VAD.EnergyThreshold >= 1 {
		errs = append(errs, "vad energy threshold must be between 0 and 1 exclusive")
	}
	if settings.VAD.MinSpeechFrames < 1 {
		errs = append(errs, "vad minimum speech frames must be at least 1")
	}
	if settings.VAD.MinSilenceFrames < 1 {
		errs = append(errs, "vad minimum silence frames must be at least 1")
	}

	if settings.Segment.MinDuration <= 0 {
		errs = append(errs, "minimum segment duration must be greater than 0")
	}
	if settings.Segment.MaxDuration <= settings.Segment.MinDuration {
		errs = append(errs, "maximum segment duration must exceed the minimum")
	}
	if settings.Segment.MergeGap < 0 {
		errs = append(errs, "segment merge gap must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("preprocess settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDiarizerSettings(settings *DiarizerConfig) error {
	var errs []string

	if settings.BaseURL == "" {
		errs = append(errs, "diarizer base URL is required")
	} else if u, err := url.Parse(settings.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid diarizer base URL: %s", settings.BaseURL))
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "diarizer timeout must be greater than 0 seconds")
	}
	if settings.MinSpeakers < 0 || settings.MaxSpeakers < 0 {
		errs = append(errs, "speaker bounds must be non-negative")
	}
	if settings.MaxSpeakers > 0 && settings.MinSpeakers > settings.MaxSpeakers {
		errs = append(errs, "minimum speakers must not exceed maximum speakers")
	}

	if len(errs) > 0 {
		return fmt.Errorf("diarizer settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRealtimeSettings(settings *RealtimeConfig) error {
	var errs []string

	if settings.Duration < 0 {
		errs = append(errs, "capture duration must be non-negative")
	}
	if settings.Interval <= 0 {
		errs = append(errs, "analysis interval must be greater than 0 seconds")
	}

	if len(errs) > 0 {
		return fmt.Errorf("realtime settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOutputSettings(settings *OutputConfig) error {
	switch settings.Format {
	case "", "json", "csv":
		return nil
	default:
		return fmt.Errorf("output settings errors: unsupported format %q, must be json or csv", settings.Format)
	}
}
