package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	bearer string
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "warlord-cli",
	Short: "A CLI to interact with the warlord-swiss server",
	Long: `A command-line interface for running Swiss tournaments against the
warlord-swiss API: create events, register warbands, pair rounds and report results.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&bearer, "token", os.Getenv("WARLORD_TOKEN"), "Session token sent as a bearer token")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Ask the server to preview instead of write")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
