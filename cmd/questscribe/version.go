package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/questscribe"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of questscribe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "questscribe version %s\n", strings.TrimSpace(questscribe.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
