package cli

const (
	FlagHome     = "home"
	FlagLogLevel = "log-level"
	FlagFormat   = "format"
)

const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
	FormatYAML = "yaml"
)
