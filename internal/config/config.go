// Package config loads the settings of the subspace command-line tool.
//
// Settings are resolved in this order, later sources winning:
//
//  1. built-in defaults (Default)
//  2. a YAML file
//  3. SUBSPACE_* environment variables
//  4. command-line flags, applied by the caller
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andreyvit/subspace"
	"github.com/andreyvit/subspace/badgerstore"
	"github.com/andreyvit/subspace/levelstore"
	"github.com/andreyvit/subspace/pebblestore"
)

const (
	EngineMem     = "mem"
	EngineBolt    = "bolt"
	EngineLevelDB = "leveldb"
	EnginePebble  = "pebble"
	EngineBadger  = "badger"
)

var engines = []string{EngineMem, EngineBolt, EngineLevelDB, EnginePebble, EngineBadger}

type Config struct {
	Storage struct {
		Engine string `yaml:"engine"`
		// Path is the database file (bolt) or directory. Empty means an
		// in-memory database for leveldb, pebble and badger.
		Path string `yaml:"path"`
		// Bucket is the bolt bucket holding all keys.
		Bucket string `yaml:"bucket"`
		Sync   bool   `yaml:"sync"`
	} `yaml:"storage"`

	Keys struct {
		Hex           bool   `yaml:"hex"`
		KeyEncoding   string `yaml:"key_encoding"`
		ValueEncoding string `yaml:"value_encoding"`
	} `yaml:"keys"`

	Log struct {
		Level   string `yaml:"level"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"log"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	c := &Config{}
	c.Storage.Engine = EngineBolt
	c.Storage.Path = "subspace.db"
	c.Storage.Bucket = subspace.DefaultBoltBucket
	c.Keys.KeyEncoding = "utf8"
	c.Keys.ValueEncoding = "utf8"
	c.Log.Level = "info"
	return c
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and with the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := c.Overlay(data); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return c, nil
}

// Overlay decodes YAML data onto c. Settings absent from data keep their
// current values; unknown settings are an error.
func (c *Config) Overlay(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: invalid boolean %q", name, v)
		}
		*dst = b
		return nil
	}

	str("SUBSPACE_ENGINE", &c.Storage.Engine)
	str("SUBSPACE_PATH", &c.Storage.Path)
	str("SUBSPACE_BUCKET", &c.Storage.Bucket)
	str("SUBSPACE_KEY_ENCODING", &c.Keys.KeyEncoding)
	str("SUBSPACE_VALUE_ENCODING", &c.Keys.ValueEncoding)
	str("SUBSPACE_LOG_LEVEL", &c.Log.Level)
	if err := boolean("SUBSPACE_SYNC", &c.Storage.Sync); err != nil {
		return err
	}
	if err := boolean("SUBSPACE_HEX_KEYS", &c.Keys.Hex); err != nil {
		return err
	}
	return boolean("SUBSPACE_VERBOSE", &c.Log.Verbose)
}

// Validate checks the configuration for unknown names and missing values.
func (c *Config) Validate() error {
	if !slices.Contains(engines, c.Storage.Engine) {
		return fmt.Errorf("config: unknown storage engine %q (want one of %s)", c.Storage.Engine, strings.Join(engines, ", "))
	}
	if c.Storage.Engine == EngineBolt {
		if c.Storage.Path == "" {
			return fmt.Errorf("config: bolt engine requires a path")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config: bolt engine requires a bucket")
		}
	}
	if _, err := subspace.EncodingByName(c.Keys.KeyEncoding); err != nil {
		return fmt.Errorf("config: key_encoding: %w", err)
	}
	if _, err := subspace.EncodingByName(c.Keys.ValueEncoding); err != nil {
		return fmt.Errorf("config: value_encoding: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}

// Options returns the subspace options described by c. c must be valid.
func (c *Config) Options(logger *slog.Logger) subspace.Options {
	return subspace.Options{
		KeyEncoding:   must(subspace.EncodingByName(c.Keys.KeyEncoding)),
		ValueEncoding: must(subspace.EncodingByName(c.Keys.ValueEncoding)),
		HexKeys:       c.Keys.Hex,
		Logger:        logger,
		Verbose:       c.Log.Verbose,
	}
}

// OpenStore opens the configured storage engine.
func (c *Config) OpenStore(logger *slog.Logger) (subspace.Store, error) {
	path, sync := c.Storage.Path, c.Storage.Sync
	switch c.Storage.Engine {
	case EngineMem:
		return subspace.NewMemStore(), nil
	case EngineBolt:
		return opened(subspace.OpenBolt(path, subspace.BoltOptions{
			Bucket: c.Storage.Bucket,
			Logger: logger,
		}))
	case EngineLevelDB:
		if path == "" {
			return opened(levelstore.OpenMem())
		}
		return opened(levelstore.Open(path, sync))
	case EnginePebble:
		if path == "" {
			return opened(pebblestore.OpenMem())
		}
		return opened(pebblestore.Open(path, sync))
	case EngineBadger:
		if path == "" {
			return opened(badgerstore.OpenMem())
		}
		return opened(badgerstore.Open(path, sync))
	default:
		return nil, fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Engine: %s, Path: %q, Hex: %v, Keys: %s, Values: %s}",
		c.Storage.Engine, c.Storage.Path, c.Keys.Hex, c.Keys.KeyEncoding, c.Keys.ValueEncoding)
}

// opened keeps a failed open from returning a typed nil Store.
func opened(s subspace.Store, err error) (subspace.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
