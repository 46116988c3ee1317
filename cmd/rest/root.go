package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd runs the relay when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Realtime sync relay for the collaborative whiteboard",
	Long: `relay keeps the whiteboard's sticky notes in memory, mirrors them to an
optional durable backing and pushes every change to all connected clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
