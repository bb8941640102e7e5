package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

const envPrefix = "MP3EXTRACT"

// configSearchPaths are checked in order when no config file is given
var configSearchPaths = []string{"./configs", "$HOME/.mp3-extract", "/etc/mp3-extract"}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		for _, p := range configSearchPaths {
			v.AddConfigPath(p)
		}
	}

	// Registering every key lets AutomaticEnv override values that are
	// absent from the file
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// DefaultConfigPath is where SaveConfig writes when no file was loaded
func DefaultConfigPath() string {
	return expandPath("$HOME/.mp3-extract/config.yaml")
}

// FindConfigFile returns the file LoadConfig would read, or the default
// path when none exists yet
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return expandPath(configPath)
	}
	for _, dir := range configSearchPaths {
		for _, ext := range []string{"yaml", "yml"} {
			candidate := filepath.Join(expandPath(dir), "config."+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return DefaultConfigPath()
}

// configValues flattens the config into viper keys
func configValues(c *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                c.Server.Host,
		"server.port":                c.Server.Port,
		"download.base_dir":          c.Download.BaseDir,
		"download.logs_dir":          c.Download.LogsDir,
		"download.config_dir":        c.Download.ConfigDir,
		"download.failure_policy":    string(c.Download.FailurePolicy),
		"extractor.ytdlp_binary":     c.Extractor.YTDLPBinary,
		"extractor.ffmpeg_location":  c.Extractor.FFmpegLocation,
		"extractor.cookie_file":      c.Extractor.CookieFile,
		"extractor.audio_format":     c.Extractor.AudioFormat,
		"extractor.extra_args":       c.Extractor.ExtraArgs,
		"extractor.write_log":        c.Extractor.WriteLog,
		"history.enabled":            c.History.Enabled,
		"history.database_path":      c.History.DatabasePath,
		"notification.enabled":       c.Notification.Enabled,
		"notification.sound":         c.Notification.Sound,
		"notification.method":        c.Notification.Method,
		"logging.level":              c.Logging.Level,
		"logging.format":             c.Logging.Format,
		"logging.output_path":        c.Logging.OutputPath,
		"preferences.quality":        c.Preferences.Quality,
		"preferences.last_directory": c.Preferences.LastDirectory,
		"preferences.dark_mode":      c.Preferences.DarkMode,
		"preferences.auto_playlist":  c.Preferences.AutoPlaylist,
	}
}

// ConfigKeys returns every settable key in sorted order
func ConfigKeys() []string {
	values := configValues(domain.DefaultConfig())
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigValue returns the current value of one key
func ConfigValue(config *domain.Config, key string) (interface{}, bool) {
	value, ok := configValues(config)[key]
	return value, ok
}

// UpdateConfig returns a copy of config with key set from its string form.
// The result is validated; config itself is left untouched.
func UpdateConfig(config *domain.Config, key, value string) (*domain.Config, error) {
	values := configValues(config)
	if _, ok := values[key]; !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}

	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	v.Set(key, value)

	updated := domain.DefaultConfig()
	if err := v.Unmarshal(updated); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}

	updated = expandPaths(updated)
	if err := validateConfig(updated); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return updated, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Download.ConfigDir = expandPath(config.Download.ConfigDir)
	config.Extractor.CookieFile = expandPath(config.Extractor.CookieFile)
	config.Extractor.FFmpegLocation = expandPath(config.Extractor.FFmpegLocation)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Preferences.LastDirectory = expandPath(config.Preferences.LastDirectory)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.FailurePolicy == "" {
		config.Download.FailurePolicy = domain.FailurePolicyAbort
	}
	if !domain.ValidateFailurePolicy(config.Download.FailurePolicy) {
		return fmt.Errorf("invalid failure policy: %s", config.Download.FailurePolicy)
	}

	if config.Extractor.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Preferences.Quality == 0 {
		config.Preferences.Quality = int(domain.DefaultQuality)
	}
	if !domain.Quality(config.Preferences.Quality).IsValid() {
		return fmt.Errorf("invalid preferred quality: %d", config.Preferences.Quality)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
