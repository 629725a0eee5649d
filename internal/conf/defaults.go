// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "RoomCount")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "roomcount.log")

	viper.SetDefault("audio.source", "sysdefault")
	viper.SetDefault("audio.pollinterval", 100)
	viper.SetDefault("audio.buffersecs", 120)
	viper.SetDefault("audio.overlapsecs", 3.0)
	viper.SetDefault("audio.dropwarnrate", 0.05)

	viper.SetDefault("preprocess.noisereduction", 0.3)
	viper.SetDefault("preprocess.highpasshz", 60.0)
	viper.SetDefault("preprocess.lowpasshz", 7800.0)
	viper.SetDefault("preprocess.targetdb", -15.0)

	viper.SetDefault("preprocess.vad.windowms", 30)
	viper.SetDefault("preprocess.vad.energythreshold", 0.02)
	viper.SetDefault("preprocess.vad.minspeechframes", 3)
	viper.SetDefault("preprocess.vad.minsilenceframes", 10)

	viper.SetDefault("preprocess.segment.minduration", 0.5)
	viper.SetDefault("preprocess.segment.maxduration", 60.0)
	viper.SetDefault("preprocess.segment.mergegap", 1.0)

	viper.SetDefault("diarizer.baseurl", "http://localhost:8388")
	viper.SetDefault("diarizer.timeout", 300)
	viper.SetDefault("diarizer.minspeakers", 1)
	viper.SetDefault("diarizer.maxspeakers", 4)

	viper.SetDefault("realtime.duration", 0)
	viper.SetDefault("realtime.interval", 15)
	viper.SetDefault("realtime.log.enabled", false)
	viper.SetDefault("realtime.log.path", "speakers.txt")

	viper.SetDefault("output.dir", "results/")
	viper.SetDefault("output.format", "json")
	viper.SetDefault("output.export", false)
}
