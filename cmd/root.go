// Package cmd provides the command-line interface for Loupe with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. LOUPE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (LOUPE_SERVER_PORT, etc.)
//	4. Configuration files (.loupe.yml) - lowest priority
//
// Environment Variables:
//
//	LOUPE_CONFIG_FILE: Path to custom configuration file
//	LOUPE_SERVER_PORT: Override server port
//	LOUPE_SERVER_HOST: Override server host
//	LOUPE_PREVIEW_AUTO_RELOAD: Enable/disable live reload
//	And more following the LOUPE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loupe",
	Short: "A workspace preview server with live reload",
	Long: `Loupe serves a local workspace as a live, navigable preview: every file
in the workspace is routed under a reserved preview namespace, with raw
serving for pages and assets and synthesized viewers for JSON, markdown,
React components, and source code.

Key Features:
  • Workspace scanning into a virtual file map
  • Preview routing with per-kind synthesized viewers
  • WebSocket-based live reload on file changes
  • Session tracking (selection and open tabs)
  • Friendly 200 not-found pages inside the preview surface

Quick Start:
  loupe init                      Initialize a new project
  loupe serve                     Start the preview server
  loupe preview index.html        Preview a specific file
  loupe list                      List all workspace files

Command Aliases (for faster typing):
  init (i), serve (s), preview (p), list (l)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .loupe.yml, can also use LOUPE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. LOUPE_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .loupe.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LOUPE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".loupe")
	}

	viper.SetEnvPrefix("LOUPE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file degrades to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
