package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config directory
const AppName = "parqview"

// Config holds all application configuration
type Config struct {
	Data        DataConfig        `mapstructure:"data"`
	Performance PerformanceConfig `mapstructure:"performance"`
	History     HistoryConfig     `mapstructure:"history"`
	UI          UIConfig          `mapstructure:"ui"`
	Log         LogConfig         `mapstructure:"log"`
}

type DataConfig struct {
	ChunkSize            int `mapstructure:"chunk_size"`
	LoadAllBatchSize     int `mapstructure:"load_all_batch_size"`
	LoadAllWarnThreshold int `mapstructure:"load_all_warn_threshold"`
	MaxColumns           int `mapstructure:"max_columns"`
	CategoricalThreshold int `mapstructure:"categorical_threshold"`
	MaxHeaderLength      int `mapstructure:"max_header_length"`
	MaxCellDisplayLength int `mapstructure:"max_cell_display_length"`
}

type PerformanceConfig struct {
	QueryTimeout      int    `mapstructure:"query_timeout"`   // milliseconds
	FilterDebounce    int    `mapstructure:"filter_debounce"` // milliseconds
	DuckDBThreads     int    `mapstructure:"duckdb_threads"`
	DuckDBMemoryLimit string `mapstructure:"duckdb_memory_limit"`
}

type HistoryConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	MaxEntries        int    `mapstructure:"max_entries"`
	Path              string `mapstructure:"path"`
	SaveFailedQueries bool   `mapstructure:"save_failed_queries"`
}

type UIConfig struct {
	Theme          string `mapstructure:"theme"`
	MouseEnabled   bool   `mapstructure:"mouse_enabled"`
	ConfirmLoadAll bool   `mapstructure:"confirm_load_all"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// QueryTimeout returns the per-transition time budget
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Performance.QueryTimeout) * time.Millisecond
}

// FilterDebounce returns the quiet period before a typed filter runs
func (c *Config) FilterDebounce() time.Duration {
	return time.Duration(c.Performance.FilterDebounce) * time.Millisecond
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Data: DataConfig{
			ChunkSize:            100,
			LoadAllBatchSize:     1000,
			LoadAllWarnThreshold: 10000,
			MaxColumns:           100,
			CategoricalThreshold: 20,
			MaxHeaderLength:      30,
			MaxCellDisplayLength: 50,
		},
		Performance: PerformanceConfig{
			QueryTimeout:   30000,
			FilterDebounce: 300,
		},
		History: HistoryConfig{
			Enabled:           true,
			MaxEntries:        1000,
			SaveFailedQueries: true,
		},
		UI: UIConfig{
			Theme:          "default",
			MouseEnabled:   true,
			ConfirmLoadAll: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("data.chunk_size", d.Data.ChunkSize)
	v.SetDefault("data.load_all_batch_size", d.Data.LoadAllBatchSize)
	v.SetDefault("data.load_all_warn_threshold", d.Data.LoadAllWarnThreshold)
	v.SetDefault("data.max_columns", d.Data.MaxColumns)
	v.SetDefault("data.categorical_threshold", d.Data.CategoricalThreshold)
	v.SetDefault("data.max_header_length", d.Data.MaxHeaderLength)
	v.SetDefault("data.max_cell_display_length", d.Data.MaxCellDisplayLength)
	v.SetDefault("performance.query_timeout", d.Performance.QueryTimeout)
	v.SetDefault("performance.filter_debounce", d.Performance.FilterDebounce)
	v.SetDefault("performance.duckdb_threads", d.Performance.DuckDBThreads)
	v.SetDefault("performance.duckdb_memory_limit", d.Performance.DuckDBMemoryLimit)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.save_failed_queries", d.History.SaveFailedQueries)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.confirm_load_all", d.UI.ConfirmLoadAll)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load loads configuration from the standard locations. An explicit file,
// if given, must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// PARQVIEW_DATA_CHUNK_SIZE and friends
	v.SetEnvPrefix("PARQVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Add config paths in priority order
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the viewer cannot run with
func (c *Config) Validate() error {
	positive := []struct {
		key   string
		value int
	}{
		{"data.chunk_size", c.Data.ChunkSize},
		{"data.load_all_batch_size", c.Data.LoadAllBatchSize},
		{"data.load_all_warn_threshold", c.Data.LoadAllWarnThreshold},
		{"data.max_columns", c.Data.MaxColumns},
		{"data.categorical_threshold", c.Data.CategoricalThreshold},
		{"data.max_header_length", c.Data.MaxHeaderLength},
		{"data.max_cell_display_length", c.Data.MaxCellDisplayLength},
		{"performance.query_timeout", c.Performance.QueryTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %d", p.key, p.value)
		}
	}

	if c.Performance.FilterDebounce < 0 {
		return fmt.Errorf("invalid config: performance.filter_debounce must not be negative")
	}
	if c.Performance.DuckDBThreads < 0 {
		return fmt.Errorf("invalid config: performance.duckdb_threads must not be negative")
	}
	if c.Data.MaxHeaderLength < 2 {
		return fmt.Errorf("invalid config: data.max_header_length must be at least 2")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: unknown log.level %q", c.Log.Level)
	}

	return nil
}

// HistoryPath returns the history database location
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the log file location
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".log"), nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
