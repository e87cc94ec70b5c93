package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Equal(t, EngineBolt, c.Storage.Engine)
	require.Equal(t, subspace.DefaultBoltBucket, c.Storage.Bucket)

	opts := c.Options(nil)
	require.Equal(t, subspace.Encoding(subspace.UTF8), opts.KeyEncoding)
	require.False(t, opts.HexKeys)
}

func TestLoad_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  engine: leveldb
  path: /var/lib/subspace
keys:
  hex: true
  value_encoding: json
log:
  level: debug
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.Equal(t, EngineLevelDB, c.Storage.Engine)
	require.Equal(t, "/var/lib/subspace", c.Storage.Path)
	require.True(t, c.Keys.Hex)
	require.Equal(t, "utf8", c.Keys.KeyEncoding)
	require.Equal(t, "json", c.Keys.ValueEncoding)

	level, err := c.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)

	opts := c.Options(nil)
	require.Equal(t, subspace.Encoding(subspace.JSON), opts.ValueEncoding)
	require.True(t, opts.HexKeys)
}

func TestLoad_unknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  engnie: mem\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestOverlay_empty(t *testing.T) {
	c := Default()
	require.NoError(t, c.Overlay(nil))
	require.Equal(t, Default(), c)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SUBSPACE_ENGINE":         "pebble",
		"SUBSPACE_PATH":           "",
		"SUBSPACE_HEX_KEYS":       "true",
		"SUBSPACE_VALUE_ENCODING": "msgpack",
		"SUBSPACE_VERBOSE":        "1",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	c := Default()
	require.NoError(t, c.applyEnv(lookup))
	require.Equal(t, EnginePebble, c.Storage.Engine)
	require.Equal(t, "", c.Storage.Path)
	require.True(t, c.Keys.Hex)
	require.True(t, c.Log.Verbose)
	require.Equal(t, "msgpack", c.Keys.ValueEncoding)
	require.Equal(t, "info", c.Log.Level)

	env["SUBSPACE_SYNC"] = "maybe"
	env["SUBSPACE_VERBOSE"] = "often"
	for range 20 {
		err := Default().applyEnv(lookup)
		require.EqualError(t, err, `config: SUBSPACE_SYNC: invalid boolean "maybe"`)
	}
}

func TestLoad_env(t *testing.T) {
	t.Setenv("SUBSPACE_ENGINE", "mem")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, EngineMem, c.Storage.Engine)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"engine", func(c *Config) { c.Storage.Engine = "rocksdb" }},
		{"bolt_path", func(c *Config) { c.Storage.Path = "" }},
		{"bolt_bucket", func(c *Config) { c.Storage.Bucket = "" }},
		{"key_encoding", func(c *Config) { c.Keys.KeyEncoding = "yaml" }},
		{"value_encoding", func(c *Config) { c.Keys.ValueEncoding = "xml" }},
		{"log_level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			require.Error(t, c.Validate())
		})
	}

	c := Default()
	c.Storage.Engine = EngineBadger
	c.Storage.Path = ""
	require.NoError(t, c.Validate())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			c := Default()
			c.Storage.Engine = engine
			c.Storage.Path = ""
			if engine == EngineBolt {
				c.Storage.Path = filepath.Join(t.TempDir(), "test.db")
			}
			require.NoError(t, c.Validate())

			store, err := c.OpenStore(slog.Default())
			require.NoError(t, err)
			defer store.Close()

			sp := subspace.Root(store, c.Options(nil)).Sublevel("cfg", subspace.Options{})
			require.NoError(t, sp.Put(ctx, "k", "v"))
			v, err := sp.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v", v)
		})
	}
}
