package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Metadata MetadataConfig `yaml:"metadata"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type PipelineConfig struct {
	Sizes       []int  `yaml:"sizes"`
	Codec       string `yaml:"codec"`
	Quality     int    `yaml:"quality"`
	MinFileSize int64  `yaml:"min_file_size"`
	// WorkDir keeps encoded files after a run. Empty means a temporary
	// directory per run.
	WorkDir     string `yaml:"work_dir"`
	Placeholder bool   `yaml:"placeholder"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend"` // local or s3
	BasePath  string `yaml:"base_path"`
	PublicURL string `yaml:"public_url"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
}

type MetadataConfig struct {
	Backend  string         `yaml:"backend"` // json or postgres
	Output   string         `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	StorageLocal     = "local"
	StorageS3        = "s3"
	MetadataJSON     = "json"
	MetadataPostgres = "postgres"
)

// DefaultSizes are the candidate widths used when none are configured.
var DefaultSizes = []int{320, 480, 640, 768, 960, 1024, 1366, 1600, 1920}

func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Sizes:       append([]int(nil), DefaultSizes...),
			Codec:       "webp",
			Quality:     85,
			MinFileSize: 100,
			Placeholder: true,
		},
		Storage: StorageConfig{
			Backend:  StorageLocal,
			BasePath: "./storage",
			Region:   "us-east-1",
		},
		Metadata: MetadataConfig{
			Backend: MetadataJSON,
			Output:  "./data/images.json",
			Database: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "postgres",
				DBName:   "responsiveimages",
				SSLMode:  "disable",
			},
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			Topic:         "responsive-images",
			ConsumerGroup: "responsive-images-group",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, the
// YAML file at path (skipped when path is empty) and environment overrides,
// in that order.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if value := os.Getenv("PIPELINE_SIZES"); value != "" {
		sizes, err := ParseSizes(value)
		if err != nil {
			return fmt.Errorf("PIPELINE_SIZES: %w", err)
		}
		c.Pipeline.Sizes = sizes
	}
	c.Pipeline.Codec = getEnv("PIPELINE_CODEC", c.Pipeline.Codec)
	c.Pipeline.Quality = getEnvInt("PIPELINE_QUALITY", c.Pipeline.Quality)
	c.Pipeline.MinFileSize = getEnvInt64("PIPELINE_MIN_FILE_SIZE", c.Pipeline.MinFileSize)
	c.Pipeline.WorkDir = getEnv("PIPELINE_WORK_DIR", c.Pipeline.WorkDir)
	c.Pipeline.Placeholder = getEnvBool("PIPELINE_PLACEHOLDER", c.Pipeline.Placeholder)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.BasePath = getEnv("STORAGE_BASE_PATH", c.Storage.BasePath)
	c.Storage.PublicURL = getEnv("WEB_PREFIX", c.Storage.PublicURL)
	c.Storage.Bucket = getEnv("S3_BUCKET", c.Storage.Bucket)
	c.Storage.Region = getEnv("AWS_REGION", c.Storage.Region)
	c.Storage.Endpoint = getEnv("S3_ENDPOINT", c.Storage.Endpoint)

	c.Metadata.Backend = getEnv("METADATA_BACKEND", c.Metadata.Backend)
	c.Metadata.Output = getEnv("METADATA_OUTPUT", c.Metadata.Output)
	c.Metadata.Database.Host = getEnv("DB_HOST", c.Metadata.Database.Host)
	c.Metadata.Database.Port = getEnvInt("DB_PORT", c.Metadata.Database.Port)
	c.Metadata.Database.User = getEnv("DB_USER", c.Metadata.Database.User)
	c.Metadata.Database.Password = getEnv("DB_PASSWORD", c.Metadata.Database.Password)
	c.Metadata.Database.DBName = getEnv("DB_NAME", c.Metadata.Database.DBName)
	c.Metadata.Database.SSLMode = getEnv("DB_SSLMODE", c.Metadata.Database.SSLMode)

	c.Kafka.Brokers = getEnvSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) Validate() error {
	if len(c.Pipeline.Sizes) == 0 {
		return fmt.Errorf("pipeline sizes are required")
	}
	for _, size := range c.Pipeline.Sizes {
		if size <= 0 {
			return fmt.Errorf("pipeline size %d must be positive", size)
		}
	}
	if c.Pipeline.Quality < 1 || c.Pipeline.Quality > 100 {
		return fmt.Errorf("pipeline quality %d must be between 1 and 100", c.Pipeline.Quality)
	}
	if c.Pipeline.MinFileSize < 0 {
		return fmt.Errorf("pipeline min file size must not be negative")
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.BasePath == "" {
			return fmt.Errorf("storage base path is required")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 backend")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("storage region is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Metadata.Backend {
	case MetadataJSON:
		if c.Metadata.Output == "" {
			return fmt.Errorf("metadata output is required for the json backend")
		}
	case MetadataPostgres:
		if c.Metadata.Database.Host == "" || c.Metadata.Database.DBName == "" {
			return fmt.Errorf("database host and name are required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown metadata backend %q", c.Metadata.Backend)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	return nil
}

// PostgresDSN is the keyword/value connection string used by pgx.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MigrateURL is the URL form used by golang-migrate.
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ParseSizes parses a comma separated list of widths such as "320,480".
func ParseSizes(value string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", part, err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("invalid size %d: must be positive", size)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return sizes, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
