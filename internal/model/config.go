package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all remitflat settings
type Config struct {
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	History     HistoryConfig     `yaml:"history" mapstructure:"history"`
	Watch       WatchConfig       `yaml:"watch" mapstructure:"watch"`
}

// OutputConfig controls the tabular sink
type OutputConfig struct {
	Path           string       `yaml:"path" mapstructure:"path"`                         // Output file path
	Format         string       `yaml:"format" mapstructure:"format"`                     // xlsx, csv, json
	Sheet          string       `yaml:"sheet" mapstructure:"sheet"`                       // Worksheet name (xlsx only)
	Columns        ColumnPolicy `yaml:"columns" mapstructure:"columns"`                   // first or union
	PreviewRows    int          `yaml:"preview_rows" mapstructure:"preview_rows"`         // Rows shown by preview
	MaxColWidth    int          `yaml:"max_col_width" mapstructure:"max_col_width"`       // Width cap in characters
	WidthSample    int          `yaml:"width_sample" mapstructure:"width_sample"`         // Rows sampled for column width
	PreviewCellMax int          `yaml:"preview_cell_max" mapstructure:"preview_cell_max"` // Composite values are cut to this length in previews
	Verbose        bool         `yaml:"verbose" mapstructure:"verbose"`
}

// ConcurrencyConfig controls batch extraction parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls the extraction cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HistoryConfig controls the conversion run log
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// WatchConfig controls directory watch mode
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce" mapstructure:"debounce"`         // Coalesce bursts of file events
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"` // Minimum time between rebuilds
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	home := HomeDir()

	return &Config{
		Output: OutputConfig{
			Path:           "combined_data.xlsx",
			Format:         "xlsx",
			Sheet:          "Combined Data",
			Columns:        ColumnsFirstRow,
			PreviewRows:    5,
			MaxColWidth:    50,
			WidthSample:    20,
			PreviewCellMax: 50,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(home, "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(home, "history.db"),
		},
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			MinInterval: 2 * time.Second,
		},
	}
}

// HomeDir returns the remitflat state directory (~/.remitflat)
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remitflat"
	}
	return filepath.Join(home, ".remitflat")
}
