package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quickssh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
codec:
  key_one: 42
  key_two: my_key
store:
  format: yaml
  sessions_path: /tmp/sessions.yaml
launcher:
  command: kitty
watch:
  enabled: true
  debounce: 300ms
`)
	t.Setenv("QUICKSSH_CONFIG_PATH", "")
	t.Setenv("QUICKSSH_LAUNCHER_COMMAND", "putty.exe")
	t.Setenv("QUICKSSH_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, int64(42), cfg.Codec.KeyOne)
	require.Equal(t, "my_key", cfg.Codec.KeyTwo)
	require.Equal(t, int64(1114159), cfg.Codec.Radix, "default survives")
	require.Equal(t, "yaml", cfg.Store.Format)
	require.Equal(t, "/tmp/sessions.yaml", cfg.Store.SessionsPath)
	require.Equal(t, "putty.exe", cfg.Launcher.Command, "environment wins over file")
	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Watch.Enabled)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PathFromEnvironment(t *testing.T) {
	path := writeConfig(t, "codec:\n  key_one: 7\n")
	t.Setenv("QUICKSSH_CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Codec.KeyOne)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("QUICKSSH_CONFIG_PATH", "")

	_, err := Load("")
	require.ErrorContains(t, err, "codec.key_one")

	t.Setenv("QUICKSSH_CODEC_KEY_ONE", "forty-two")
	_, err = Load("")
	require.ErrorContains(t, err, "read environment")

	t.Setenv("QUICKSSH_CODEC_KEY_ONE", "-3")
	_, err = Load("")
	require.ErrorContains(t, err, "codec.key_one must be a positive integer")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "codec: [1, 2\n"))
	require.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Codec.KeyOne = 42
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Store.Backend = "redis"
	bad.Store.Format = "toml"
	bad.Transport.Mode = "grpc"
	err := bad.Validate()
	require.ErrorContains(t, err, "store.backend")
	require.ErrorContains(t, err, "store.format")
	require.ErrorContains(t, err, "transport.mode")

	sqliteCfg := cfg
	sqliteCfg.Store.Backend = "sqlite"
	sqliteCfg.DB.Path = ""
	require.ErrorContains(t, sqliteCfg.Validate(), "db.path")

	httpCfg := cfg
	httpCfg.Transport.Mode = "http"
	httpCfg.Server.Port = 0
	require.ErrorContains(t, httpCfg.Validate(), "server.port")
}
