package cmd

import (
	"context"
	"os"
	"time"

	"github.com/ncbi/uttp/cli"
	"github.com/ncbi/uttp/config"
	"github.com/ncbi/uttp/transport"
	"github.com/spf13/cobra"
)

var sendFormat string

var sendCmd = &cobra.Command{
	Use:   "send <addr> [input]",
	Short: "Sends one message to a server and prints the reply as JSON.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := readTree(args[1:], sendFormat)
		if err != nil {
			return err
		}

		timeout := config.ConvertDuration(configured.Server.ConnectionTimeoutMS, time.Millisecond)
		if timeout <= 0 {
			timeout = transport.DefaultDialTimeout
		}
		dialCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		peer, err := transport.Dial(dialCtx, args[0], configured.PeerOpts())
		if err != nil {
			return err
		}
		defer peer.Close()

		if err := peer.Send(n); err != nil {
			return err
		}
		reply, err := peer.Receive()
		if err != nil {
			return err
		}
		return cli.EncodeJSON(os.Stdout, reply)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendFormat, cli.FlagFormat, cli.FormatJSON, "Input format: json, yaml or cbor")
	rootCmd.AddCommand(sendCmd)
}
