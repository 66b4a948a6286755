package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"text/template"

	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/log"
	"github.com/ncbi/uttp/transport"
	"github.com/ncbi/uttp/uttp"
	"github.com/pkg/errors"
)

const ConfigFilename = "config.toml"

var DefaultConfig = Config{
	LogLevel:  log.LevelInfo.String(),
	LogFormat: log.FormatText,
	Codec: CodecConfig{
		FlushThreshold: uttp.DefaultMinBufSize,
		MaxChunkSize:   uttp.DefaultMinBufSize,
		ReadBufferSize: exchange.DefaultReadBufferSize,
		MaxMessageSize: exchange.DefaultMaxMessageSize,
		MaxDepth:       exchange.DefaultMaxDepth,
		BinaryKeys:     []string{},
		BinaryValues:   false,
	},
	Server: ServerConfig{
		Host:                "127.0.0.1",
		Port:                9110,
		MaxPeers:            64,
		IdleTimeoutMS:       int(transport.DefaultIdleTimeout.Milliseconds()),
		ConnectionTimeoutMS: int(transport.DefaultDialTimeout.Milliseconds()),
		RecvRateLimit:       transport.DefaultRecvRateLimit,
		RecvRateLimitBurst:  transport.DefaultRecvRateLimitBurst,
	},
}

const defaultConfigTemplateText = `# uttp Config File

# Sets the log level. Can be one of the following values:
# - error
# - warn
# - info
# - debug
# - trace
log_level = "{{.LogLevel}}"

# Sets the log format. Can be "text" or "json".
log_format = "{{.LogFormat}}"

# Configures how messages are encoded and decoded.
[codec]
  # Sets the minimum size of a buffer handed to the connection. Smaller
  # values lower latency, larger ones reduce the number of writes.
  flush_threshold = {{.Codec.FlushThreshold}}
  # Strings longer than this are sent as several chunk parts.
  max_chunk_size = {{.Codec.MaxChunkSize}}
  # Sets how many bytes are read from the connection at once.
  read_buffer_size = {{.Codec.ReadBufferSize}}
  # Sets the largest message that will be accepted. Set to 0 to
  # disable the limit.
  max_message_size = {{.Codec.MaxMessageSize}}
  # Sets how deeply lists and maps of a received message may nest.
  max_depth = {{.Codec.MaxDepth}}
  # Lists map keys whose values are kept as raw bytes instead of text.
  # Older peers use ["embedded_data", "raw_input", "raw_output"].
  binary_keys = [{{range $i, $k := .Codec.BinaryKeys}}{{if $i}}, {{end}}"{{$k}}"{{end}}]
  # Keeps every received string as raw bytes.
  binary_values = {{.Codec.BinaryValues}}

# Configures the behavior of uttp serve.
[server]
  # Sets how long to wait when dialing a remote server.
  connection_timeout_ms = {{.Server.ConnectionTimeoutMS}}
  # Sets the IP the server should listen on.
  host = "{{.Server.Host}}"
  # Disconnects clients that send nothing for this long.
  idle_timeout_ms = {{.Server.IdleTimeoutMS}}
  # Sets the maximum number of concurrent clients. All additional
  # clients are rejected once this number is reached.
  max_peers = {{.Server.MaxPeers}}
  # Sets the port the server should listen on.
  port = {{.Server.Port}}
  # Sets how many messages per second are read from each client.
  recv_rate_limit = {{printf "%.1f" .Server.RecvRateLimit}}
  recv_rate_limit_burst = {{.Server.RecvRateLimitBurst}}
`

var defaultConfigTemplate *template.Template

func GenerateDefaultConfigFile() []byte {
	buf := new(bytes.Buffer)
	if err := defaultConfigTemplate.Execute(buf, DefaultConfig); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ReadConfigFile(homeDir string) (*Config, error) {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDONLY, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file for reading")
	}
	defer f.Close()
	cfg, err := ReadConfig(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	return cfg, nil
}

func WriteDefaultConfigFile(homeDir string) error {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "error opening config file for writing")
	}
	defer f.Close()
	rd := bytes.NewReader(GenerateDefaultConfigFile())
	if _, err := io.Copy(f, rd); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	return nil
}

func init() {
	tmpl := template.New("defaultConfig")
	t, err := tmpl.Parse(defaultConfigTemplateText)
	if err != nil {
		panic(err)
	}
	defaultConfigTemplate = t
}
