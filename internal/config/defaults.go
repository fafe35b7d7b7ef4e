package config

const (
	defaultConfigPath        = "~/.config/filmatlas/config.toml"
	defaultDataDir           = "~/.local/share/filmatlas"
	defaultLogDir            = "~/.local/share/filmatlas/logs"
	defaultAPIBind           = "127.0.0.1:7488"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL  = "https://image.tmdb.org/t/p/w300"
	defaultTMDBLanguage      = "en-US"
	defaultTMDBTimeout       = 10
	defaultPipelineBatchSize = 5
	defaultPipelineDelayMS   = 250
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBTimeout,
		},
		Pipeline: Pipeline{
			BatchSize:    defaultPipelineBatchSize,
			BatchDelayMS: defaultPipelineDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
