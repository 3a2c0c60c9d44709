// Package main provides the homefit CLI: local scoring and explanation
// of listings against preferences, and the match API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "homefit",
	Short: "Housing match scoring and serving",
	Long:  "homefit scores housing listings against a renter's preferences, explains each match, and serves paginated, filtered match results over HTTP.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
