package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(newTestViper())

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, DriverS3, cfg.Storage.Driver)
	assert.Equal(t, "uploads", cfg.Upload.StagingDir)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, 3, cfg.Upload.ChunkSize)
	assert.Equal(t, "images", cfg.Upload.FormFieldName)
	assert.Equal(t, time.Hour, cfg.Upload.StagingMaxAge)
	assert.True(t, cfg.Server.MetricsEnabled)
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("STORAGE_USE_SSL", "false")
	t.Setenv("S3_BUCKET_NAME", "photos")
	t.Setenv("UPLOAD_STAGING_MAX_AGE", "30m")

	cfg := FromViper(newTestViper())

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, DriverMinio, cfg.Storage.Driver)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, "photos", cfg.Storage.Bucket)
	assert.Equal(t, 30*time.Minute, cfg.Upload.StagingMaxAge)
}

func TestServerPortTakesPrecedenceOverPort(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("SERVER_PORT", "9090")

	cfg := FromViper(newTestViper())
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestInvalidUploadLimitsFallBack(t *testing.T) {
	v := newTestViper()
	v.Set("UPLOAD_MAX_FILES", 0)
	v.Set("UPLOAD_CHUNK_SIZE", -1)
	v.Set("UPLOAD_MAX_FILE_SIZE", 0)

	cfg := FromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, 3, cfg.Upload.ChunkSize)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, int64(10*5*1024*1024+1<<20), cfg.Upload.MaxRequestBytes())
}
