// Package config loads nodewriter settings from TOML files.
//
// Settings are layered. [Load] starts from [Default] and applies, in order:
//
//  1. $XDG_CONFIG_HOME/nodewriter/config.toml (or ~/.config/nodewriter/config.toml)
//  2. ./.nodewriter.toml
//  3. an explicit file (the --config flag)
//
// Each file only overrides the keys it defines, so a project file can
// change the tab unit without resetting the cache backend chosen in the
// user file. Command-line flags are applied by the caller on top.
//
// Example file:
//
//	tab = "  "
//	entity = "%s"
//	raw_text = ["script", "style"]
//
//	[cache]
//	backend = "redis"
//	ttl = "12h"
//	redis_addr = "localhost:6379"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/io"
	"github.com/matzehuels/nodewriter/pkg/render"
)

const (
	appName         = "nodewriter"
	projectFileName = ".nodewriter.toml"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the merged configuration.
type Config struct {
	Tab          string   `toml:"tab"`
	Entity       string   `toml:"entity"`
	RawText      []string `toml:"raw_text"`
	Permissive   bool     `toml:"permissive"`
	HTMLEntities bool     `toml:"html_entities"`
	Cache        Cache    `toml:"cache"`
}

// Cache selects and configures the render cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// Duration is a time.Duration written as a string ("24h", "90m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tab:     render.DefaultTab,
		Entity:  render.DefaultEntity,
		RawText: slices.Clone(io.DefaultRawText),
		Cache: Cache{
			Backend:       BackendFile,
			TTL:           Duration{24 * time.Hour},
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
	}
}

// XMLOptions returns the parser settings described by c.
func (c Config) XMLOptions() io.XMLOptions {
	return io.XMLOptions{
		RawText:      c.RawText,
		Permissive:   c.Permissive,
		HTMLEntities: c.HTMLEntities,
	}
}

// Validate checks option values. It reports the first problem found.
func (c Config) Validate() error {
	if err := errors.ValidateTab(c.Tab); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "tab")
	}
	for _, tag := range c.RawText {
		if err := errors.ValidateTagName(tag); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "raw_text")
		}
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"cache.backend %q (want file, redis, mongo or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// SearchPaths returns the implicit configuration files in load order.
func SearchPaths() []string {
	var paths []string
	if dir, err := userConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.toml"))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, projectFileName))
	}
	return paths
}

func userConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Load builds the configuration from the defaults, the implicit files that
// exist and explicit (if non-empty, it must exist). It returns the files
// that were applied.
func Load(explicit string) (Config, []string, error) {
	cfg := Default()
	var applied []string
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := cfg.MergeFile(path); err != nil {
			return cfg, applied, err
		}
		applied = append(applied, path)
	}
	if explicit != "" {
		if err := cfg.MergeFile(explicit); err != nil {
			return cfg, applied, err
		}
		applied = append(applied, explicit)
	}
	return cfg, applied, cfg.Validate()
}

// MergeFile overlays the keys defined in the TOML file at path onto c.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := c.Merge(string(data)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return nil
}

// Merge overlays the keys defined in a TOML document onto c.
func (c *Config) Merge(doc string) error {
	var f Config
	md, err := toml.Decode(doc, &f)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}

	setIf(md, &c.Tab, f.Tab, "tab")
	setIf(md, &c.Entity, f.Entity, "entity")
	setIf(md, &c.RawText, f.RawText, "raw_text")
	setIf(md, &c.Permissive, f.Permissive, "permissive")
	setIf(md, &c.HTMLEntities, f.HTMLEntities, "html_entities")
	setIf(md, &c.Cache.Backend, f.Cache.Backend, "cache", "backend")
	setIf(md, &c.Cache.TTL, f.Cache.TTL, "cache", "ttl")
	setIf(md, &c.Cache.Dir, f.Cache.Dir, "cache", "dir")
	setIf(md, &c.Cache.RedisAddr, f.Cache.RedisAddr, "cache", "redis_addr")
	setIf(md, &c.Cache.MongoURI, f.Cache.MongoURI, "cache", "mongo_uri")
	setIf(md, &c.Cache.MongoDatabase, f.Cache.MongoDatabase, "cache", "mongo_database")
	return nil
}

func setIf[T any](md toml.MetaData, dst *T, src T, key ...string) {
	if md.IsDefined(key...) {
		*dst = src
	}
}
