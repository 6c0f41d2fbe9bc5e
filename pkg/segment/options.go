package segment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/segreader/internal/options"
	"github.com/arloliu/segreader/pkg/errs"
)

const (
	// DefaultBatchSize is the row count used by Scan when the caller does
	// not specify one.
	DefaultBatchSize = 8192

	defaultChunkCacheSize = 1
)

// Options configures a SegmentReader.
type Options struct {
	logger         *zap.SugaredLogger
	batchSize      int
	chunkCacheSize int
}

// Option configures a SegmentReader via the functional-options pattern.
type Option = options.Option[*Options]

// WithLogger sets the structured logger used for open/parse/materialize
// events. A nil logger (or omitting this option) falls back to a no-op
// logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return options.NoError(func(o *Options) { o.logger = logger })
}

// WithBatchSize sets the default batch size used by Scan when the caller
// does not override it per call. Non-positive sizes are rejected.
func WithBatchSize(size int) Option {
	return options.New(func(o *Options) error {
		if size <= 0 {
			return fmt.Errorf("%w: batch size must be positive, got %d", errs.ErrInvalidOption, size)
		}
		o.batchSize = size

		return nil
	})
}

// WithChunkCacheSize sets the number of most-recently-decoded RAW chunks
// kept per column. The format only requires caching the single most recent
// chunk. Each RAW column gets its own chunk reader and cache, which
// ReadColumn fills in document order.
func WithChunkCacheSize(size int) Option {
	return options.New(func(o *Options) error {
		if size <= 0 {
			return fmt.Errorf("%w: chunk cache size must be positive, got %d", errs.ErrInvalidOption, size)
		}
		o.chunkCacheSize = size

		return nil
	})
}

func resolveOptions(opts []Option) (*Options, error) {
	o := &Options{
		logger:         zap.NewNop().Sugar(),
		batchSize:      DefaultBatchSize,
		chunkCacheSize: defaultChunkCacheSize,
	}
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}

	return o, nil
}
