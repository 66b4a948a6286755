package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/ncbi/uttp/cli"
	"github.com/ncbi/uttp/exchange"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	decodeFormat string
	decodeDigest bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decodes one UTTP message from stdin.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "error reading input")
		}
		p := exchange.NewParser(configured.Codec.ExchangeOptions())
		n, complete, err := p.Feed(data)
		if err != nil {
			return err
		}
		if !complete {
			return errors.Errorf("incomplete message after %d bytes", p.Offset())
		}

		if decodeDigest {
			h, err := exchange.Digest(n)
			if err != nil {
				return err
			}
			fmt.Println(h)
			return nil
		}

		switch decodeFormat {
		case cli.FormatJSON:
			return cli.EncodeJSON(os.Stdout, n)
		case cli.FormatYAML:
			return cli.EncodeYAML(os.Stdout, n)
		case cli.FormatCBOR:
			out, err := cli.EncodeCBOR(n)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		default:
			return errors.Errorf("unknown format %q", decodeFormat)
		}
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeFormat, cli.FlagFormat, cli.FormatJSON, "Output format: json, yaml or cbor")
	decodeCmd.Flags().BoolVar(&decodeDigest, "digest", false, "Print the BLAKE2b digest of the message instead")
	rootCmd.AddCommand(decodeCmd)
}
