// internal/config/config.go
package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverS3     = "s3"
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Upload  UploadConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MetricsEnabled bool
}

// StorageConfig selects and configures the object store driver.
type StorageConfig struct {
	Driver     string
	Region     string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Endpoint   string // S3-compatible endpoint, e.g. "localhost:9000"; empty means AWS
	UseSSL     bool
	PublicBase string // browser-accessible base URL; derived from bucket and region when empty
}

type UploadConfig struct {
	StagingDir     string
	MaxFileSize    int64
	MaxFiles       int
	ChunkSize      int
	StagingMaxAge  time.Duration
	FormFieldName  string
	MaxMemoryBytes int64
}

var (
	once     sync.Once
	instance *Config
)

// Load reads configuration once from a .env file (if present) and the
// environment.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		SetDefaults(v)
		v.AutomaticEnv()

		instance = FromViper(v)
	})

	return instance
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "")
	v.SetDefault("PORT", "5000")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_READ_TIMEOUT", 60)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("STORAGE_DRIVER", DriverS3)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET_NAME", "")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PUBLIC_BASE", "")

	v.SetDefault("UPLOAD_STAGING_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_MAX_FILES", 10)
	v.SetDefault("UPLOAD_CHUNK_SIZE", 3)
	v.SetDefault("UPLOAD_STAGING_MAX_AGE", time.Hour)
	v.SetDefault("UPLOAD_FORM_FIELD", "images")
	v.SetDefault("UPLOAD_MAX_MEMORY", 8*1024*1024)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	port := v.GetString("SERVER_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		},
		Storage: StorageConfig{
			Driver:     v.GetString("STORAGE_DRIVER"),
			Region:     v.GetString("AWS_REGION"),
			AccessKey:  v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey:  v.GetString("AWS_SECRET_ACCESS_KEY"),
			Bucket:     v.GetString("S3_BUCKET_NAME"),
			Endpoint:   v.GetString("STORAGE_ENDPOINT"),
			UseSSL:     v.GetBool("STORAGE_USE_SSL"),
			PublicBase: v.GetString("STORAGE_PUBLIC_BASE"),
		},
		Upload: UploadConfig{
			StagingDir:     v.GetString("UPLOAD_STAGING_DIR"),
			MaxFileSize:    v.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			MaxFiles:       v.GetInt("UPLOAD_MAX_FILES"),
			ChunkSize:      v.GetInt("UPLOAD_CHUNK_SIZE"),
			StagingMaxAge:  v.GetDuration("UPLOAD_STAGING_MAX_AGE"),
			FormFieldName:  v.GetString("UPLOAD_FORM_FIELD"),
			MaxMemoryBytes: v.GetInt64("UPLOAD_MAX_MEMORY"),
		},
	}

	if cfg.Upload.MaxFiles <= 0 {
		cfg.Upload.MaxFiles = 10
	}
	if cfg.Upload.ChunkSize <= 0 {
		cfg.Upload.ChunkSize = 3
	}
	if cfg.Upload.MaxFileSize <= 0 {
		cfg.Upload.MaxFileSize = 5 * 1024 * 1024
	}

	return cfg
}

// IsRelease returns true when gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// MaxRequestBytes bounds the size of an upload request body.
func (u UploadConfig) MaxRequestBytes() int64 {
	return int64(u.MaxFiles)*u.MaxFileSize + 1<<20
}
