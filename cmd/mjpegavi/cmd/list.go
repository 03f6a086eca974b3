package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records of an MJPEG AVI file",
	Run: func(cmd *cobra.Command, _ []string) {
		err := cmd.Help()
		if err != nil {
			die("failed to run help command: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
