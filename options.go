package jonoondb

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/codec"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	fileSystem       fs.FileSystem
	createIfMissing  bool
	maxDataFileSize  int64
	compression      blobstore.Compression
	synchronous      bool
	readerCacheSize  int
	unmapInterval    time.Duration
	getConcurrency   int
}

// Option configures Open.
type Option func(*options)

// WithCodec configures the codec used for the manifest body.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCreateIfMissing creates the database folder and manifest when they do
// not exist. Without it opening a missing database returns ErrNotFound.
func WithCreateIfMissing(create bool) Option {
	return func(o *options) {
		o.createIfMissing = create
	}
}

// WithMaxDataFileSize sets the size every data file is pre-allocated to.
// A document larger than this can never be stored.
func WithMaxDataFileSize(size int64) Option {
	return func(o *options) {
		o.maxDataFileSize = size
	}
}

// WithCompression selects the codec applied to documents of collections
// created afterwards. Existing collections keep the codec they were created
// with.
func WithCompression(c blobstore.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSynchronous controls whether every insert waits for its data to reach
// disk. When false flushes are scheduled and return immediately.
func WithSynchronous(sync bool) Option {
	return func(o *options) {
		o.synchronous = sync
	}
}

// WithReaderCacheSize bounds how many read mappings of data files survive a
// maintenance pass.
func WithReaderCacheSize(n int) Option {
	return func(o *options) {
		o.readerCacheSize = n
	}
}

// WithUnmapInterval starts a background loop that unmaps least recently used
// data files every d. Zero disables the loop.
func WithUnmapInterval(d time.Duration) Option {
	return func(o *options) {
		o.unmapInterval = d
	}
}

// WithGetConcurrency bounds the parallel reads of GetMany.
func WithGetConcurrency(n int) Option {
	return func(o *options) {
		o.getConcurrency = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &jonoondb.BasicMetricsCollector{}
//	db, _ := jonoondb.Open(ctx, dir, "shop", jonoondb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertDocuments, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// withFileSystem routes metadata writes through fsys. Used to inject faults.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fileSystem:       fs.Default,
		maxDataFileSize:  blobstore.DefaultMaxDataFileSize,
		compression:      blobstore.CompressionNone,
		synchronous:      true,
		readerCacheSize:  blobstore.DefaultReaderCacheSize,
		getConcurrency:   8,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Config is the file form of the options, loaded with LoadConfig.
type Config struct {
	CreateIfMissing bool          `yaml:"createIfMissing"`
	Codec           string        `yaml:"codec"`
	Storage         StorageConfig `yaml:"storage"`
	Logging         LoggingConfig `yaml:"logging"`
}

// StorageConfig controls data files and their mappings.
type StorageConfig struct {
	MaxDataFileSize int64         `yaml:"maxDataFileSize"`
	Compression     string        `yaml:"compression"`
	Synchronous     bool          `yaml:"synchronous"`
	ReaderCacheSize int           `yaml:"readerCacheSize"`
	UnmapInterval   time.Duration `yaml:"unmapInterval"`
	GetConcurrency  int           `yaml:"getConcurrency"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration Open uses without options.
func DefaultConfig() *Config {
	return &Config{
		Codec: codec.Default.Name(),
		Storage: StorageConfig{
			MaxDataFileSize: blobstore.DefaultMaxDataFileSize,
			Compression:     blobstore.CompressionNone.String(),
			Synchronous:     true,
			ReaderCacheSize: blobstore.DefaultReaderCacheSize,
			GetConcurrency:  8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML config file (if provided) and applies
// JONOONDB_* environment-variable overrides on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing config file %s: %w", ErrInvalidArgument, path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JONOONDB_CREATE_IF_MISSING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CreateIfMissing = b
		}
	}
	if v := os.Getenv("JONOONDB_CODEC"); v != "" {
		cfg.Codec = v
	}
	if v := os.Getenv("JONOONDB_MAX_DATA_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.MaxDataFileSize = n
		}
	}
	if v := os.Getenv("JONOONDB_COMPRESSION"); v != "" {
		cfg.Storage.Compression = v
	}
	if v := os.Getenv("JONOONDB_SYNCHRONOUS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Synchronous = b
		}
	}
	if v := os.Getenv("JONOONDB_READER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.ReaderCacheSize = n
		}
	}
	if v := os.Getenv("JONOONDB_GET_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.GetConcurrency = n
		}
	}
	if v := os.Getenv("JONOONDB_UNMAP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.UnmapInterval = d
		}
	}
	if v := os.Getenv("JONOONDB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JONOONDB_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Options converts the configuration into options for Open. Options passed
// to Open after these take precedence.
func (c *Config) Options() ([]Option, error) {
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: codec %q", ErrInvalidArgument, c.Codec)
	}
	compression, err := blobstore.ParseCompression(c.Storage.Compression)
	if err != nil {
		return nil, translateError(err)
	}
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("%w: log format %q", ErrInvalidArgument, c.Logging.Format)
	}

	return []Option{
		WithCreateIfMissing(c.CreateIfMissing),
		WithCodec(cd),
		WithMaxDataFileSize(c.Storage.MaxDataFileSize),
		WithCompression(compression),
		WithSynchronous(c.Storage.Synchronous),
		WithReaderCacheSize(c.Storage.ReaderCacheSize),
		WithUnmapInterval(c.Storage.UnmapInterval),
		WithGetConcurrency(c.Storage.GetConcurrency),
		WithLogger(newLogger(os.Stderr, format, level)),
	}, nil
}
