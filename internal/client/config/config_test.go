package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return writeTempFile(t, "cfg.json", b)
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://127.0.0.1:8090", c.StoreURL)
	assert.Equal(t, "blog.db", c.StateDSN)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 50, c.PageSize)
	assert.Equal(t, FilesBackendStore, c.FilesBackend)
	require.NoError(t, c.Validate())
}

func TestLoad_NoSourcesKeepsDefaults(t *testing.T) {
	assert.Empty(t, cmp.Diff(defaults(), Load(nil)))
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"store_url":       "https://blog.example.com",
		"request_timeout": "3s",
		"files_backend":   "s3",
		"s3": map[string]any{
			"bucket":         "blog-files",
			"region":         "eu-central-1",
			"presign_expiry": "10m",
		},
	})

	cfg := defaults()
	parseJson(cfg, []string{"-c", path})

	want := defaults()
	want.StoreURL = "https://blog.example.com"
	want.RequestTimeout = 3 * time.Second
	want.FilesBackend = FilesBackendS3
	want.S3.Bucket = "blog-files"
	want.S3.Region = "eu-central-1"
	want.S3.PresignExpiry = 10 * time.Minute

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseJson_InvalidPanics(t *testing.T) {
	bad := writeTempFile(t, "bad.json", []byte(`{ nope`))
	require.Panics(t, func() { parseJson(defaults(), []string{"-config", bad}) })

	require.Panics(t, func() { parseJson(defaults(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}) })
}

func TestParseEnv(t *testing.T) {
	t.Setenv(EnvStoreURL, "http://pb.internal:8090")
	t.Setenv(EnvRequestTimeout, "750ms")
	t.Setenv(EnvPageSize, "20")
	t.Setenv(EnvAdminIdentity, "admin@example.com")

	cfg := defaults()
	parseEnv(cfg, nil)

	assert.Equal(t, "http://pb.internal:8090", cfg.StoreURL)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, "admin@example.com", cfg.AdminIdentity)
}

func TestParseEnv_DotenvFile(t *testing.T) {
	path := writeTempFile(t, "blog.env", []byte("BLOG_S3_BUCKET=from-dotenv\nBLOG_STATE_DSN=from-dotenv.db\n"))
	// process environment wins over the dotenv file
	t.Setenv(EnvStateDSN, "from-env.db")
	t.Setenv(EnvS3Bucket, "")
	require.NoError(t, os.Unsetenv(EnvS3Bucket))

	cfg := defaults()
	parseEnv(cfg, []string{"-e", path})

	assert.Equal(t, "from-dotenv", cfg.S3.Bucket)
	assert.Equal(t, "from-env.db", cfg.StateDSN)
}

func TestParseEnv_BadDurationPanics(t *testing.T) {
	t.Setenv(EnvRequestTimeout, "later")
	require.Panics(t, func() { parseEnv(defaults(), nil) })
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    func(c *Config)
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-s", "http://10.0.0.2:8090", "-d", "state.db", "-t", "5", "-f", "s3"},
			expected: func(c *Config) {
				c.StoreURL = "http://10.0.0.2:8090"
				c.StateDSN = "state.db"
				c.RequestTimeout = 5 * time.Second
				c.FilesBackend = FilesBackendS3
			},
		},
		{
			name:     "unrelated args are ignored",
			args:     []string{"home", "-x", "1"},
			expected: func(c *Config) {},
		},
		{
			name:        "bad timeout",
			args:        []string{"-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })

			want := defaults()
			tt.expected(want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestLoad_FlagsOverrideEnvOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"store_url": "http://json", "state_dsn": "json.db", "page_size": 10})
	t.Setenv(EnvStoreURL, "http://env")

	cfg := Load([]string{"-c", path, "-s", "http://flag"})

	assert.Equal(t, "http://flag", cfg.StoreURL)
	assert.Equal(t, "json.db", cfg.StateDSN)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestValidate(t *testing.T) {
	c := defaults()
	c.FilesBackend = "ftp"
	assert.ErrorContains(t, c.Validate(), "unknown files backend")

	c = defaults()
	c.FilesBackend = FilesBackendS3
	assert.ErrorContains(t, c.Validate(), "bucket and region")

	c.S3.Bucket, c.S3.Region = "b", "r"
	assert.NoError(t, c.Validate())

	c = defaults()
	c.PageSize = 0
	assert.Error(t, c.Validate())
}
