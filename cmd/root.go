package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tokenwheel",
	Short: "Token Wheel - next-token probability wheel service",
	Long:  "A service that turns a language model's next-token distribution into a probability wheel for sampling tokens one spin at a time.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(spinCmd)
}
