package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pinkdots/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "pinkdots",
	Short:         "Repair autofocus pink dots in raw sensor images",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return rootCmd.Execute()
}
