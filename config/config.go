package config

import (
	"io"
	"time"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/transport"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
	Codec     CodecConfig  `mapstructure:"codec"`
	Server    ServerConfig `mapstructure:"server"`
}

type CodecConfig struct {
	FlushThreshold int      `mapstructure:"flush_threshold"`
	MaxChunkSize   int      `mapstructure:"max_chunk_size"`
	ReadBufferSize int      `mapstructure:"read_buffer_size"`
	MaxMessageSize int      `mapstructure:"max_message_size"`
	MaxDepth       int      `mapstructure:"max_depth"`
	BinaryKeys     []string `mapstructure:"binary_keys"`
	BinaryValues   bool     `mapstructure:"binary_values"`
}

type ServerConfig struct {
	Host                string  `mapstructure:"host"`
	Port                int     `mapstructure:"port"`
	MaxPeers            int     `mapstructure:"max_peers"`
	IdleTimeoutMS       int     `mapstructure:"idle_timeout_ms"`
	ConnectionTimeoutMS int     `mapstructure:"connection_timeout_ms"`
	RecvRateLimit       float64 `mapstructure:"recv_rate_limit"`
	RecvRateLimitBurst  int     `mapstructure:"recv_rate_limit_burst"`
}

func (c CodecConfig) ExchangeOptions() exchange.Options {
	return exchange.Options{
		FlushThreshold: c.FlushThreshold,
		MaxChunkSize:   c.MaxChunkSize,
		ReadBufferSize: c.ReadBufferSize,
		MaxMessageSize: c.MaxMessageSize,
		MaxDepth:       c.MaxDepth,
		BinaryKeys:     c.BinaryKeys,
		BinaryValues:   c.BinaryValues,
	}
}

// PeerOpts combines the codec settings with the server's per-connection
// limits.
func (c *Config) PeerOpts() transport.PeerOpts {
	return transport.PeerOpts{
		Exchange:           c.Codec.ExchangeOptions(),
		RecvRateLimit:      c.Server.RecvRateLimit,
		RecvRateLimitBurst: c.Server.RecvRateLimitBurst,
		IdleTimeout:        ConvertDuration(c.Server.IdleTimeoutMS, time.Millisecond),
	}
}

func ReadConfig(r io.Reader) (*Config, error) {
	decoder := toml.NewDecoder(r)
	decoder.SetTagName("mapstructure")
	config := &Config{}
	if err := decoder.Decode(config); err != nil {
		return nil, errors.Wrap(err, "error decoding config file")
	}
	return config, nil
}

func ConvertDuration(base int, unit time.Duration) time.Duration {
	return time.Duration(base) * unit
}
