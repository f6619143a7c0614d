package jonoondb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/codec"
)

func TestApplyOptionsDefaults(t *testing.T) {
	o := applyOptions(nil)
	assert.Equal(t, codec.Default, o.codec)
	assert.True(t, o.synchronous)
	assert.False(t, o.createIfMissing)
	assert.Equal(t, int64(blobstore.DefaultMaxDataFileSize), o.maxDataFileSize)
	assert.Equal(t, blobstore.CompressionNone, o.compression)
	assert.Equal(t, 8, o.getConcurrency)

	o = applyOptions([]Option{WithCodec(nil), WithLogger(nil), WithMetricsCollector(nil), nil})
	assert.Equal(t, codec.Default, o.codec)
	assert.NotNil(t, o.logger)
	assert.IsType(t, NoopMetricsCollector{}, o.metricsCollector)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jonoondb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
createIfMissing: true
codec: json
storage:
  maxDataFileSize: 4096
  compression: zstd
  synchronous: false
  unmapInterval: 30s
logging:
  level: debug
  format: json
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.CreateIfMissing)
	assert.Equal(t, "json", cfg.Codec)
	assert.Equal(t, int64(4096), cfg.Storage.MaxDataFileSize)
	assert.Equal(t, "zstd", cfg.Storage.Compression)
	assert.False(t, cfg.Storage.Synchronous)
	assert.Equal(t, 30*time.Second, cfg.Storage.UnmapInterval)
	assert.Equal(t, blobstore.DefaultReaderCacheSize, cfg.Storage.ReaderCacheSize, "unset keys keep defaults")

	optFns, err := cfg.Options()
	require.NoError(t, err)
	o := applyOptions(optFns)
	assert.Equal(t, "json", o.codec.Name())
	assert.Equal(t, blobstore.CompressionZSTD, o.compression)
	assert.Equal(t, int64(4096), o.maxDataFileSize)
	assert.False(t, o.synchronous)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JONOONDB_CREATE_IF_MISSING", "true")
	t.Setenv("JONOONDB_COMPRESSION", "lz4")
	t.Setenv("JONOONDB_MAX_DATA_FILE_SIZE", "1024")
	t.Setenv("JONOONDB_READER_CACHE_SIZE", "5")
	t.Setenv("JONOONDB_UNMAP_INTERVAL", "1m")
	t.Setenv("JONOONDB_SYNCHRONOUS", "not-a-bool")
	t.Setenv("JONOONDB_GET_CONCURRENCY", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.CreateIfMissing)
	assert.Equal(t, "lz4", cfg.Storage.Compression)
	assert.Equal(t, int64(1024), cfg.Storage.MaxDataFileSize)
	assert.Equal(t, 5, cfg.Storage.ReaderCacheSize)
	assert.Equal(t, time.Minute, cfg.Storage.UnmapInterval)
	assert.True(t, cfg.Storage.Synchronous, "malformed values are ignored")
	assert.Equal(t, 3, cfg.Storage.GetConcurrency)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, 3, applyOptions(opts).getConcurrency)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [1, 2"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConfigOptionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"codec", func(c *Config) { c.Codec = "msgpack" }},
		{"compression", func(c *Config) { c.Storage.Compression = "brotli" }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := cfg.Options()
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}
