// Package testutils builds configurations for tests that need a real store.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/gobychat/internal/config"
)

// ProjectRoot walks up from the working directory to the one holding go.mod.
func ProjectRoot(t *testing.T) string {
	t.Helper()
	path, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}
}

// BadgerConfig returns a valid config backed by a badger store in a
// per-test temp directory. Nothing is read from the environment.
func BadgerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ServerAddr:         "127.0.0.1:0",
		SessionSecret:      "test-session-secret",
		LogFormat:          "text",
		LogLevel:           "error",
		StoreDriver:        config.DriverBadger,
		BadgerDir:          t.TempDir(),
		SendBuffer:         16,
		BusBuffer:          64,
		RateLimit:          1000,
		TracingServiceName: "gobychat-test",
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

// SurrealConfig loads .env.test from the project root into the test's
// environment and returns a surreal-backed config. The test is skipped in
// -short mode or when no SurrealDB is configured.
func SurrealConfig(t *testing.T) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping SurrealDB integration test in short mode")
	}

	env, err := godotenv.Read(filepath.Join(ProjectRoot(t), ".env.test"))
	if err == nil {
		for key, value := range env {
			t.Setenv(key, value)
		}
	}
	if os.Getenv("SURREAL_URL") == "" {
		t.Skip("SURREAL_URL not set")
	}
	t.Setenv("STORE_DRIVER", config.DriverSurreal)

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}
