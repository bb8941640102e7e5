package domain

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Extractor    ExtractorConfig    `mapstructure:"extractor"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Preferences  Preferences        `mapstructure:"preferences"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir       string        `mapstructure:"base_dir"`
	LogsDir       string        `mapstructure:"logs_dir"`
	ConfigDir     string        `mapstructure:"config_dir"`
	FailurePolicy FailurePolicy `mapstructure:"failure_policy"` // abort, skip
}

// ExtractorConfig contains yt-dlp related configuration
type ExtractorConfig struct {
	YTDLPBinary    string   `mapstructure:"ytdlp_binary"`
	FFmpegLocation string   `mapstructure:"ffmpeg_location"`
	CookieFile     string   `mapstructure:"cookie_file"`
	AudioFormat    string   `mapstructure:"audio_format"`
	ExtraArgs      []string `mapstructure:"extra_args"`
	WriteLog       bool     `mapstructure:"write_log"`
}

// HistoryConfig contains persistent history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// Preferences holds the user-facing settings remembered between runs
type Preferences struct {
	Quality       int    `mapstructure:"quality"`
	LastDirectory string `mapstructure:"last_directory"`
	DarkMode      bool   `mapstructure:"dark_mode"`
	AutoPlaylist  bool   `mapstructure:"auto_playlist"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			BaseDir:       "$HOME/Music/mp3-extract",
			LogsDir:       "$HOME/Music/mp3-extract/logs",
			ConfigDir:     "$HOME/Music/mp3-extract/config",
			FailurePolicy: FailurePolicyAbort,
		},
		Extractor: ExtractorConfig{
			YTDLPBinary: "yt-dlp",
			AudioFormat: "mp3",
			WriteLog:    true,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/Music/mp3-extract/config/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
		Preferences: Preferences{
			Quality:       int(DefaultQuality),
			LastDirectory: "",
			DarkMode:      false,
			AutoPlaylist:  false,
		},
	}
}

// DestinationDir returns the directory a new download should land in when
// the caller did not pick one.
func (c *Config) DestinationDir() string {
	if c.Preferences.LastDirectory != "" {
		return c.Preferences.LastDirectory
	}
	return c.Download.BaseDir
}
