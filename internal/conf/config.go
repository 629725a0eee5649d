// config.go: settings struct and functions to load and save the settings.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for a file logger.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// AudioConfig contains settings for audio capture.
type AudioConfig struct {
	Source       string  // capture device name or ID, e.g. "sysdefault"
	PollInterval int     // capture poll cadence in milliseconds
	BufferSecs   int     // capture buffer capacity in seconds of audio
	OverlapSecs  float64 // audio held back at the live edge of each drain so speech crossing the boundary is not split, seconds
	DropWarnRate float64 // dropped-frame rate (0..1) above which capture is reported degraded
}

// VADConfig contains settings for voice activity detection.
type VADConfig struct {
	WindowMS         int     // classification window length in milliseconds
	EnergyThreshold  float64 // RMS energy above which a window counts as speech
	MinSpeechFrames  int     // consecutive speech windows required to open a segment
	MinSilenceFrames int     // consecutive silence windows required to close a segment
}

// SegmentConfig contains segment assembly limits.
type SegmentConfig struct {
	MinDuration float64 // segments shorter than this are dropped, seconds
	MaxDuration float64 // segments longer than this are split, seconds
	MergeGap    float64 // silence gaps below this are bridged, seconds
}

// PreprocessConfig contains settings for the preprocessing pipeline.
type PreprocessConfig struct {
	NoiseReduction float64       // noise gate reduction strength, 0..1
	HighPassHz     float64       // lower edge of the speech band
	LowPassHz      float64       // upper edge of the speech band
	TargetDB       float64       // normalization target peak level in dBFS
	VAD            VADConfig     // voice activity detection settings
	Segment        SegmentConfig // segment assembly settings
}

// DiarizerConfig contains settings for the external diarization service.
type DiarizerConfig struct {
	BaseURL     string  // diarization sidecar base URL
	Timeout     int     // per-call timeout in seconds
	MinSpeakers int    // minimum expected speakers, 0 for auto
	MaxSpeakers int    // maximum expected speakers, 0 for auto
	AuthToken   string `yaml:"-"` // bearer token for the sidecar, env only
}

// RealtimeConfig contains settings for live capture mode.
type RealtimeConfig struct {
	Duration int       // optional fixed capture duration in seconds, 0 for unbounded
	Interval int       // analysis drain interval in seconds
	Log      LogConfig // detection log configuration
}

// InputConfig holds settings for file analysis, runtime only.
type InputConfig struct {
	Path string `yaml:"-"` // path to audio file
}

// OutputConfig holds settings for the result report.
type OutputConfig struct {
	Dir    string // directory for result files, empty for none
	Format string // "json" or "csv"
	Export bool   // save each analyzed segment as a WAV clip into Dir
}

// Settings contains all runtime settings for the application.
type Settings struct {
	Debug bool // true to enable debug output

	// Runtime values, not stored in config file
	Version string `yaml:"-"` // version from build

	Main struct {
		Name string    // name of this node, used to identify result source
		Log  LogConfig // main logging configuration
	}

	Audio      AudioConfig      // capture configuration
	Preprocess PreprocessConfig // preprocessing pipeline configuration
	Diarizer   DiarizerConfig   // diarization service configuration
	Realtime   RealtimeConfig   // live mode configuration
	Input      InputConfig      `yaml:"-"` // input configuration for file analysis
	Output     OutputConfig     // result output configuration
}

// AnalysisTimeout returns the diarizer per-call timeout as a duration.
func (s *Settings) AnalysisTimeout() time.Duration {
	return time.Duration(s.Diarizer.Timeout) * time.Second
}

// Load reads the configuration into a new Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Auth token comes from the environment only, never from the file.
	viper.SetEnvPrefix("roomcount")
	viper.AutomaticEnv()
	_ = viper.BindEnv("diarizer.authtoken", "ROOMCOUNT_DIARIZER_TOKEN")

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the default configuration to the user config
// path so a first run leaves an editable file behind.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	// Skip the working directory, write to the per-user location.
	configPath := filepath.Join(configPaths[1], "config.yaml")

	defaults := &Settings{}
	if err := viper.Unmarshal(defaults); err != nil {
		return fmt.Errorf("error unmarshaling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := SaveYAMLConfig(configPath, defaults); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the config search paths in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "roomcount"),
		"/etc/roomcount",
	}, nil
}

// SaveYAMLConfig writes the settings to a YAML configuration file.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Temp file plus rename for an atomic write.
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
