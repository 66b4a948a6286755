package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncbi/uttp/log"
	"github.com/ncbi/uttp/transport"
	"github.com/ncbi/uttp/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs a server that echoes every message back to the client.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configured.Server
		if cmd.Flags().Changed("host") {
			cfg.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		lgr := log.WithModule("main")
		lgr.Info("starting uttp", "git_commit", version.GitCommit, "git_tag", version.GitTag)

		lis := transport.NewListener(transport.ListenerOpts{
			Host:     cfg.Host,
			Port:     cfg.Port,
			MaxPeers: cfg.MaxPeers,
			PeerOpts: configured.PeerOpts(),
			Handler:  transport.EchoHandler(),
		})

		g, ctx := errgroup.WithContext(context.Background())
		g.Go(lis.Start)
		g.Go(func() error {
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigs)
			select {
			case sig := <-sigs:
				lgr.Info("shutting down", "signal", sig.String())
			case <-ctx.Done():
			}
			return lis.Stop()
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on, overrides the config file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on, overrides the config file")
	rootCmd.AddCommand(serveCmd)
}
