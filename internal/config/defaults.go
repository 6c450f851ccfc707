package config

const (
	defaultDataDir               = "~/.local/share/platter"
	defaultLogDir                = "~/.local/share/platter/logs"
	defaultOverridesPath         = "~/.config/platter/overrides.json"
	defaultDiscogsBaseURL        = "https://api.discogs.com"
	defaultDiscogsUserAgent      = "Platter/dev +https://github.com/platter/platter"
	defaultDiscogsRequestsPerMin = 60
	defaultMusicBrainzBaseURL    = "https://musicbrainz.org/ws/2"
	defaultMusicBrainzUserAgent  = "Platter/dev ( https://github.com/platter/platter )"
	defaultMusicBrainzRate       = 1.0
	defaultMusicBrainzCacheSize  = 256
	defaultRequestTimeoutSeconds = 15
	defaultScoreThreshold        = 90
	defaultCrossReferenceCode    = 101
	defaultTitleWeight           = 0.9
	defaultPositionWeight        = 0.1
	defaultPositionPenalty       = 100.0
	defaultMatchConcurrency      = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			OverridesPath: defaultOverridesPath,
		},
		Discogs: Discogs{
			BaseURL:           defaultDiscogsBaseURL,
			UserAgent:         defaultDiscogsUserAgent,
			RequestsPerMinute: defaultDiscogsRequestsPerMin,
			TimeoutSeconds:    defaultRequestTimeoutSeconds,
		},
		MusicBrainz: MusicBrainz{
			BaseURL:           defaultMusicBrainzBaseURL,
			UserAgent:         defaultMusicBrainzUserAgent,
			RequestsPerSecond: defaultMusicBrainzRate,
			CacheSize:         defaultMusicBrainzCacheSize,
			TimeoutSeconds:    defaultRequestTimeoutSeconds,
		},
		Matching: Matching{
			ScoreThreshold:     defaultScoreThreshold,
			CrossReferenceCode: defaultCrossReferenceCode,
			TitleWeight:        defaultTitleWeight,
			PositionWeight:     defaultPositionWeight,
			PositionPenalty:    defaultPositionPenalty,
			Concurrency:        defaultMatchConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
