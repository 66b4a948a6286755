package cmd

import (
	"os"

	"github.com/ncbi/uttp/cli"
	"github.com/ncbi/uttp/exchange"
	"github.com/ncbi/uttp/tree"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var encodeFormat string

var encodeCmd = &cobra.Command{
	Use:   "encode [input]",
	Short: "Encodes a JSON, YAML or CBOR document as a UTTP message on stdout.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := readTree(args, encodeFormat)
		if err != nil {
			return err
		}
		enc := exchange.NewEncoder(os.Stdout, configured.Codec.ExchangeOptions())
		return enc.Encode(n)
	},
}

// readTree reads the document given as an argument or on stdin.
func readTree(args []string, format string) (tree.Node, error) {
	data, err := cli.ReadInput(args, os.Stdin, os.Stderr)
	if err != nil {
		return nil, errors.Wrap(err, "error reading input")
	}
	switch format {
	case cli.FormatJSON:
		return cli.DecodeJSON(data)
	case cli.FormatCBOR:
		return cli.DecodeCBOR(data)
	case cli.FormatYAML:
		return cli.DecodeYAML(data)
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}

func init() {
	encodeCmd.Flags().StringVar(&encodeFormat, cli.FlagFormat, cli.FormatJSON, "Input format: json, yaml or cbor")
	rootCmd.AddCommand(encodeCmd)
}
