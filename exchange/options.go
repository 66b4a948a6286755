package exchange

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ncbi/uttp/uttp"
)

const (
	DefaultReadBufferSize = 64 * 1024
	DefaultMaxMessageSize = 64 * 1024 * 1024
	DefaultMaxDepth       = 512
)

// LegacyBinaryKeys are the map keys whose values older peers treat as raw
// binary payloads. Pass them as Options.BinaryKeys to decode those fields as
// tree.Bytes.
var LegacyBinaryKeys = []string{"embedded_data", "raw_input", "raw_output"}

type Options struct {
	// FlushThreshold is the minimum size of a buffer handed to the
	// underlying writer.
	FlushThreshold int
	// MaxChunkSize splits longer strings into continued chunk parts. Zero
	// means FlushThreshold.
	MaxChunkSize int
	// ReadBufferSize is the size of each read from the underlying reader.
	ReadBufferSize int
	// MaxMessageSize limits the encoded size of a received message. Zero
	// disables the limit.
	MaxMessageSize int
	// MaxDepth limits how deeply lists and maps of a received message may
	// nest. Zero means DefaultMaxDepth.
	MaxDepth int
	// BinaryKeys lists map keys whose string values are kept as tree.Bytes.
	BinaryKeys []string
	// BinaryValues keeps every received string as tree.Bytes.
	BinaryValues bool
}

func DefaultOptions() Options {
	return Options{
		FlushThreshold: uttp.DefaultMinBufSize,
		MaxChunkSize:   uttp.DefaultMinBufSize,
		ReadBufferSize: DefaultReadBufferSize,
		MaxMessageSize: DefaultMaxMessageSize,
		MaxDepth:       DefaultMaxDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = uttp.DefaultMinBufSize
	}
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = o.FlushThreshold
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultReadBufferSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// binaryKeySet is only touched by the parser's goroutine.
func (o Options) binaryKeySet() mapset.Set[string] {
	return mapset.NewThreadUnsafeSet[string](o.BinaryKeys...)
}
