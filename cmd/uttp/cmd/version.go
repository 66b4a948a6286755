package cmd

import (
	"fmt"

	"github.com/ncbi/uttp/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("uttp %s (%s)\n", version.GitTag, version.GitCommit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
