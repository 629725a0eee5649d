// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 16000 // Sample rate of audio fed to the diarization pipeline
	BitDepth    = 16    // Bit depth of captured audio
	NumChannels = 1     // Number of channels of captured audio

	BytesPerSample = BitDepth / 8

	// UnanalyzedLabel marks a timeline range whose diarization call failed.
	UnanalyzedLabel = "unanalyzed"
)
