package storagemodels

import (
	"time"
)

// PageOptions configures how the key-attribute adapter walks result pages.
type PageOptions struct {
	PageSize       int           // Items requested per service call (default: 100)
	MaxQueries     int           // Safety bound on service calls per statement (default: 100)
	TokenTTL       time.Duration // Lifetime of cached continuation tokens (default: 180s)
	DeleteBatch    int           // Keys discovered per delete round (default: 25)
	MaxKeyAttempts int           // Key candidates tried per insert (default: 10)
	ChunkSize      int           // Maximum bytes per stored attribute value (default: 1024)
}

// PageOption is a functional option for configuring pagination
type PageOption func(*PageOptions)

// DefaultPageOptions returns default pagination options
func DefaultPageOptions() PageOptions {
	return PageOptions{
		PageSize:       100,
		MaxQueries:     100,
		TokenTTL:       180 * time.Second,
		DeleteBatch:    25,
		MaxKeyAttempts: 10,
		ChunkSize:      1024,
	}
}

// WithPageSize sets the page size requested per service call
func WithPageSize(size int) PageOption {
	return func(opts *PageOptions) {
		opts.PageSize = size
	}
}

// WithMaxQueries sets the maximum number of service calls per statement
func WithMaxQueries(n int) PageOption {
	return func(opts *PageOptions) {
		opts.MaxQueries = n
	}
}

// WithTokenTTL sets how long continuation tokens stay cached
func WithTokenTTL(ttl time.Duration) PageOption {
	return func(opts *PageOptions) {
		opts.TokenTTL = ttl
	}
}

// WithDeleteBatch sets how many keys a predicate delete discovers per round
func WithDeleteBatch(n int) PageOption {
	return func(opts *PageOptions) {
		opts.DeleteBatch = n
	}
}

// WithMaxKeyAttempts sets how many random keys an insert tries
func WithMaxKeyAttempts(n int) PageOption {
	return func(opts *PageOptions) {
		opts.MaxKeyAttempts = n
	}
}

// WithChunkSize sets the per-attribute value size limit
func WithChunkSize(n int) PageOption {
	return func(opts *PageOptions) {
		opts.ChunkSize = n
	}
}

// StreamOptions configures a record stream.
type StreamOptions struct {
	PageSize        int                  // Records read per query (default: 100)
	BufferSize      int                  // Channel buffer size (default: 10)
	ProgressHandler func(StreamProgress) // Called after each page
}

// StreamOption is a functional option for configuring streams
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		PageSize:   100,
		BufferSize: 10,
	}
}

// WithStreamPageSize sets how many records each query of a stream reads
func WithStreamPageSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithProgressHandler sets a callback for progress updates
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// StreamMeta locates one streamed record.
type StreamMeta struct {
	Index      int64     // Position of the record in the stream
	PageNumber int       // Page the record was read in, starting at 1
	Timestamp  time.Time // When the record was read
}

// StreamProgress reports the progress of a stream.
type StreamProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	StartTime      time.Time
	CurrentRate    float64 // Records per second
}
