package cmd

import (
	"os"

	"github.com/ncbi/uttp/cli"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var tokensBufSize int

var tokensCmd = &cobra.Command{
	Use:   "tokens [input]",
	Short: "Prints the token stream of a UTTP message as a table.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cli.ReadInput(args, os.Stdin, os.Stderr)
		if err != nil {
			return errors.Wrap(err, "error reading input")
		}
		return cli.WriteTokenTable(os.Stdout, data, tokensBufSize)
	},
}

func init() {
	tokensCmd.Flags().IntVar(&tokensBufSize, "buf-size", 0, "Feed the tokenizer this many bytes at a time (0 for all at once)")
	rootCmd.AddCommand(tokensCmd)
}
