package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/techytcm/QR-CODE-GENARATOR/internal/config"
)

// Cfg is the loaded configuration, available to all Cobra commands.
var Cfg *config.Config

// RootCmd is the base command for the CLI application.
// The subcommands (run-server, generate, stats, migrate, cleanup) register
// themselves via their own init() functions to avoid import cycles.
var RootCmd = &cobra.Command{
	Use:   "qrservice",
	Short: "A QR code generation and analytics service",
	Long: `A QR code service that renders QR codes from text, stores them with
metadata, tracks scan/download/copy analytics, and exposes aggregate
statistics over HTTP and the CLI.`,
}

// Execute is the main entry point for the Cobra application.
// It is called from main.go and handles command execution and errors.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load configuration before any command runs
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration. Missing config files are
// tolerated; defaults cover every key.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
