package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Disks.Default)
	assert.Equal(t, "uploads", cfg.Disks.Local.BasePath)
	assert.Equal(t, 90, cfg.Library.Quality)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	assert.False(t, cfg.Image.Debug)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: host=localhost user=media dbname=media
disks:
  local:
    base_path: /var/www/uploads
    base_url: http://example.org/wp-content/uploads
library:
  quality: 75
  sizes:
    - name: square
      width: 200
      height: 200
      crop: true
image:
  debug: true
log:
  level: debug
`)

	t.Setenv("DYNIMG_LIBRARY_QUALITY", "60")
	t.Setenv("DYNIMG_LOG_FILE", "/tmp/dynamicimage.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "/var/www/uploads", cfg.Disks.Local.BasePath)
	assert.Equal(t, "http://example.org/wp-content/uploads", cfg.Disks.Local.BaseURL)
	assert.Equal(t, 60, cfg.Library.Quality)
	assert.Equal(t, []SizeConfig{{Name: "square", Width: 200, Height: 200, Crop: true}}, cfg.Library.Sizes)
	assert.True(t, cfg.Image.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/dynamicimage.log", cfg.Log.File)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "database:\n  driver: sqlite\n"},
		{"missing dsn", "database:\n  driver: mysql\n"},
		{"quality out of range", "library:\n  quality: 101\n"},
		{"s3 without bucket", "disks:\n  s3:\n    enabled: true\n"},
		{"default s3 disabled", "disks:\n  default: s3\n"},
		{"unnamed size", "library:\n  sizes:\n    - width: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	k := keys(reflect.TypeOf(Config{}), "")
	assert.Contains(t, k, "database.driver")
	assert.Contains(t, k, "disks.s3.use_path_style")
	assert.Contains(t, k, "log.max_age_days")
	assert.NotContains(t, k, "library.sizes")
}
