package vlist

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SizingMode selects how item extents are obtained.
type SizingMode uint8

const (
	// FixedSize gives every item Config.ItemExtent rows.
	FixedSize SizingMode = iota
	// DynamicSize measures each item once through the renderer's ItemMeasurer
	// and caches the result.
	DynamicSize
)

// String returns the config spelling of the mode.
func (m SizingMode) String() string {
	switch m {
	case FixedSize:
		return "fixed"
	case DynamicSize:
		return "dynamic"
	}
	return fmt.Sprintf("SizingMode(%d)", uint8(m))
}

// ParseSizingMode parses "fixed" or "dynamic".
func ParseSizingMode(s string) (SizingMode, error) {
	switch s {
	case "fixed", "":
		return FixedSize, nil
	case "dynamic":
		return DynamicSize, nil
	}
	return FixedSize, InvalidConfig(fmt.Sprintf("unknown sizing mode %q", s))
}

// UnmarshalYAML decodes a sizing mode from its config spelling.
func (m *SizingMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseSizingMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML encodes a sizing mode as its config spelling.
func (m SizingMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Config holds everything a VirtualList needs besides its collaborators.
type Config struct {
	Sizing          SizingMode  `yaml:"sizing"`
	ItemExtent      int         `yaml:"item_extent"` // rows per item; fallback extent in dynamic mode
	Overscan        int         `yaml:"overscan"`    // extra items bound above and below the viewport
	Scrollbar       bool        `yaml:"scrollbar"`
	Theme           string      `yaml:"theme"` // dark, light or mono
	OptimizeOnFrame bool        `yaml:"optimize_on_frame"`
	Pool            PoolConfig  `yaml:"pool"`
	Cache           CacheConfig `yaml:"cache"`
}

// PoolConfig tunes the adaptive item pool.
type PoolConfig struct {
	TargetSize       int           `yaml:"target_size"`
	EfficiencyTarget float64       `yaml:"efficiency_target"`
	OptimizeInterval time.Duration `yaml:"optimize_interval"`
	HistorySize      int           `yaml:"history_size"`
	MinTargetSize    int           `yaml:"min_target_size"`
	GrowStep         int           `yaml:"grow_step"`
	ShrinkStep       int           `yaml:"shrink_step"`
	EvictOnShrink    bool          `yaml:"evict_on_shrink"`
	Prewarm          bool          `yaml:"prewarm"`

	// Now overrides the optimizer clock.
	Now func() time.Time `yaml:"-"`
}

// CacheConfig tunes the geometry cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Sizing:     FixedSize,
		ItemExtent: 1,
		Scrollbar:  true,
		Pool:       DefaultPoolConfig(),
		Cache:      CacheConfig{Capacity: 4096},
	}
}

// DefaultPoolConfig returns the stock pool tuning.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		TargetSize:       8,
		EfficiencyTarget: 0.8,
		OptimizeInterval: 5 * time.Second,
		HistorySize:      10,
		MinTargetSize:    4,
		GrowStep:         2,
		ShrinkStep:       1,
	}
}

// withDefaults fills zero fields from DefaultPoolConfig.
func (c PoolConfig) withDefaults() PoolConfig {
	d := DefaultPoolConfig()
	if c.TargetSize == 0 {
		c.TargetSize = d.TargetSize
	}
	if c.EfficiencyTarget == 0 {
		c.EfficiencyTarget = d.EfficiencyTarget
	}
	if c.OptimizeInterval == 0 {
		c.OptimizeInterval = d.OptimizeInterval
	}
	if c.HistorySize == 0 {
		c.HistorySize = d.HistorySize
	}
	if c.MinTargetSize == 0 {
		c.MinTargetSize = d.MinTargetSize
	}
	if c.GrowStep == 0 {
		c.GrowStep = d.GrowStep
	}
	if c.ShrinkStep == 0 {
		c.ShrinkStep = d.ShrinkStep
	}
	return c
}

func (c PoolConfig) validate() error {
	switch {
	case c.TargetSize < 1:
		return InvalidConfig(fmt.Sprintf("pool target_size must be positive, got %d", c.TargetSize))
	case c.EfficiencyTarget <= 0 || c.EfficiencyTarget > 1:
		return InvalidConfig(fmt.Sprintf("pool efficiency_target must be in (0,1], got %g", c.EfficiencyTarget))
	case c.OptimizeInterval < 0:
		return InvalidConfig(fmt.Sprintf("pool optimize_interval must not be negative, got %s", c.OptimizeInterval))
	case c.HistorySize < 1:
		return InvalidConfig(fmt.Sprintf("pool history_size must be positive, got %d", c.HistorySize))
	case c.MinTargetSize < 1:
		return InvalidConfig(fmt.Sprintf("pool min_target_size must be positive, got %d", c.MinTargetSize))
	case c.GrowStep < 1 || c.ShrinkStep < 1:
		return InvalidConfig("pool grow_step and shrink_step must be positive")
	}
	return nil
}

// Validate reports the first inconsistent value as an InvalidConfig error.
func (c Config) Validate() error {
	if c.Sizing != FixedSize && c.Sizing != DynamicSize {
		return InvalidConfig(fmt.Sprintf("unknown sizing mode %d", c.Sizing))
	}
	if c.ItemExtent < 1 {
		return InvalidConfig(fmt.Sprintf("item_extent must be positive, got %d", c.ItemExtent))
	}
	if c.Overscan < 0 {
		return InvalidConfig(fmt.Sprintf("overscan must not be negative, got %d", c.Overscan))
	}
	if _, err := ThemeByName(c.Theme); err != nil {
		return err
	}
	if c.Cache.Capacity < 1 {
		return InvalidConfig(fmt.Sprintf("cache capacity must be positive, got %d", c.Cache.Capacity))
	}
	return c.Pool.withDefaults().validate()
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, Wrap(KindInvalidConfig, "parse", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, Wrap(KindResource, path, err)
	}
	return ParseConfig(data)
}
