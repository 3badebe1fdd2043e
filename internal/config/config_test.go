package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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

	assert.Equal(t, DefaultSizes, cfg.Pipeline.Sizes)
	assert.Equal(t, "webp", cfg.Pipeline.Codec)
	assert.Equal(t, 85, cfg.Pipeline.Quality)
	assert.Equal(t, int64(100), cfg.Pipeline.MinFileSize)
	assert.Equal(t, MetadataJSON, cfg.Metadata.Backend)
	assert.Equal(t, "./data/images.json", cfg.Metadata.Output)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  sizes: [320, 640]
  codec: jpeg
  quality: 70
storage:
  backend: s3
  bucket: media
  region: eu-west-1
  public_url: https://cdn.example/
server:
  read_timeout: 5s
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []int{320, 640}, cfg.Pipeline.Sizes)
	assert.Equal(t, "jpeg", cfg.Pipeline.Codec)
	assert.Equal(t, 70, cfg.Pipeline.Quality)
	assert.Equal(t, StorageS3, cfg.Storage.Backend)
	assert.Equal(t, "media", cfg.Storage.Bucket)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  quality: 70\n")
	t.Setenv("PIPELINE_QUALITY", "90")
	t.Setenv("PIPELINE_SIZES", "100, 200")
	t.Setenv("METADATA_OUTPUT", "/tmp/out.json")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Pipeline.Quality)
	assert.Equal(t, []int{100, 200}, cfg.Pipeline.Sizes)
	assert.Equal(t, "/tmp/out.json", cfg.Metadata.Output)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "pipeline: [oops"))
		assert.Error(t, err)
	})
	t.Run("malformed sizes env", func(t *testing.T) {
		t.Setenv("PIPELINE_SIZES", "320,abc")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sizes", func(c *Config) { c.Pipeline.Sizes = nil }},
		{"negative size", func(c *Config) { c.Pipeline.Sizes = []int{320, -1} }},
		{"quality too high", func(c *Config) { c.Pipeline.Quality = 101 }},
		{"quality zero", func(c *Config) { c.Pipeline.Quality = 0 }},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = StorageS3 }},
		{"unknown metadata", func(c *Config) { c.Metadata.Backend = "redis" }},
		{"json without output", func(c *Config) { c.Metadata.Output = "" }},
		{"no brokers", func(c *Config) { c.Kafka.Brokers = nil }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseSizes(t *testing.T) {
	sizes, err := ParseSizes("320,480, 640 ,")
	require.NoError(t, err)
	assert.Equal(t, []int{320, 480, 640}, sizes)

	for _, bad := range []string{"", ",", "320,abc", "320,-1", "0"} {
		_, err := ParseSizes(bad)
		assert.Error(t, err, bad)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "images", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=images sslmode=disable", d.PostgresDSN())
	assert.Equal(t, "postgres://u:p@db:5432/images?sslmode=disable", d.MigrateURL())
}
