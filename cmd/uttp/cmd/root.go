package cmd

import (
	"fmt"
	"os"

	"github.com/ncbi/uttp/cli"
	"github.com/ncbi/uttp/config"
	"github.com/ncbi/uttp/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var configured *config.Config

var rootCmd = &cobra.Command{
	Use:          "uttp",
	Short:        "Encode, decode and exchange UTTP messages.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.CalledAs() == "init" || cmd.CalledAs() == "version" {
			return nil
		}
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return errors.Wrap(err, "error loading config")
		}
		if cmd.Flags().Changed(cli.FlagLogLevel) {
			cfg.LogLevel, _ = cmd.Flags().GetString(cli.FlagLogLevel)
		}
		level, err := log.NewLevel(cfg.LogLevel)
		if err != nil {
			return errors.Wrap(err, "error parsing log level")
		}
		log.SetLevel(level)
		if err := log.SetFormat(cfg.LogFormat); err != nil {
			return errors.Wrap(err, "error parsing log format")
		}
		configured = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String(cli.FlagHome, config.DefaultHomeDir, "Home directory for the config file.")
	rootCmd.PersistentFlags().String(cli.FlagLogLevel, config.DefaultConfig.LogLevel, "Log level, overrides the config file.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
