package workspace

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/imgset"
)

// Config is the picturelab.toml file at the workspace root.
type Config struct {
	Site       SiteConfig       `toml:"site"`
	Cache      CacheConfig      `toml:"cache"`
	Ingest     []IngestEntry    `toml:"ingest"`
	Sets       []imgset.Variant `toml:"sets"`
	Comparison ComparisonConfig `toml:"comparison"`
}

// SiteConfig configures the published static site.
type SiteConfig struct {
	Title string `toml:"title"`

	// URL is the public root the site is served from, without trailing
	// slash.
	URL string `toml:"url"`

	// PublishBranch receives the built site on publish.
	PublishBranch string `toml:"publish_branch"`
}

// CacheConfig selects the cache backend for expensive operations.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	Backend string `toml:"backend"`

	// Dir overrides the file backend's directory.
	Dir string `toml:"dir,omitempty"`

	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
}

// IngestEntry records per-asset ingestion overrides for sources that are
// not already ACES2065-1.
type IngestEntry struct {
	// Asset is the asset identifier the entry applies to.
	Asset string `toml:"asset"`

	// Colorspace names the source colorspace in the ACES config.
	Colorspace string `toml:"colorspace,omitempty"`

	// ColorMatrix is a comma-separated 3x3 conversion matrix.
	ColorMatrix string `toml:"color_matrix,omitempty"`
}

// ComparisonConfig configures comparison generation defaults.
type ComparisonConfig struct {
	// Renderers limits generation to the named renderers. Empty means all.
	Renderers []string `toml:"renderers,omitempty"`

	// ExposuresOffset enables the exposure bands generator, 0-1 range.
	ExposuresOffset float64 `toml:"exposures_offset"`

	// FullHeight enables the full generator with the given output height.
	FullHeight int `toml:"full_height"`

	// Combined also produces per-generator mosaics of all renderers.
	Combined bool `toml:"combined"`
}

// DefaultConfig returns the configuration written by workspace init.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Title:         "picture-lab",
			PublishBranch: "gh-pages",
		},
		Cache: CacheConfig{Backend: "file"},
		Sets:  imgset.BuiltinVariants(),
		Comparison: ComparisonConfig{
			ExposuresOffset: 0.0,
			FullHeight:      864,
			Combined:        true,
		},
	}
}

// LoadConfig reads and validates a picturelab.toml file.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration in %s", path)
	}
	return config, nil
}

// Validate checks values that would otherwise fail late in the pipeline.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown cache backend %q, expected file, redis or none", c.Cache.Backend)
	}
	if c.Comparison.ExposuresOffset < 0 || c.Comparison.ExposuresOffset > 1 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"exposures_offset %v out of the 0-1 range", c.Comparison.ExposuresOffset)
	}
	if c.Site.URL != "" {
		if err := errors.ValidateURL(c.Site.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "site url")
		}
	}
	seen := map[string]struct{}{}
	for _, variant := range c.Sets {
		if err := errors.ValidateSetIdentifier(variant.Identifier); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "set variant")
		}
		if _, dup := seen[variant.Identifier]; dup {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate set variant %q", variant.Identifier)
		}
		seen[variant.Identifier] = struct{}{}
	}
	return nil
}

// Write serializes the configuration to path.
func (c *Config) Write(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to serialize configuration")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to write %s", path)
	}
	return nil
}

// IngestFor returns the ingestion overrides for an asset, if any.
func (c *Config) IngestFor(assetID string) (IngestEntry, bool) {
	for _, entry := range c.Ingest {
		if entry.Asset == assetID {
			return entry, true
		}
	}
	return IngestEntry{}, false
}
