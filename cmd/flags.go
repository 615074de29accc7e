package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port           int
	Host           string
	DisableBrowser bool

	// Output flags
	OutputFormat string
	Verbose      bool
	Quiet        bool
}

var supportedOutputFormats = []string{"table", "json", "yaml"}

// AddStandardFlags adds the named flag groups to a command.
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 3030, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().BoolVar(&flags.DisableBrowser, "no-open", false, "Don't open browser automatically")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress output")
}

// ValidateFlags checks flag combinations for consistency.
func (f *StandardFlags) ValidateFlags() error {
	if f.Verbose && f.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	if f.OutputFormat != "" {
		valid := false
		for _, format := range supportedOutputFormats {
			if f.OutputFormat == format {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unsupported output format %q (supported: table, json, yaml)", f.OutputFormat)
		}
	}

	return nil
}

// lookupFlag is a small helper for tests and validation hooks.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	return cmd.Flags().Lookup(name)
}
