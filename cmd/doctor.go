package cmd

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/loupedev/loupe/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the workspace and preview configuration",
	Long: `Diagnose your workspace setup and check for configuration issues.

The doctor command analyzes the current directory and configuration and
reports problems that would degrade the preview experience:

- Config file presence and YAML validity
- Workspace root existence and readability
- Port availability
- Preview namespace sanity
- Oversized or unreadable files

Examples:
  loupe doctor                     # Full diagnosis
  loupe doctor --format json       # Output as JSON for tooling`,
	RunE: runDoctor,
}

var doctorFormat string

// DiagnosticResult represents the result of a diagnostic check
type DiagnosticResult struct {
	Name       string `json:"name" yaml:"name"`
	Status     string `json:"status" yaml:"status"` // "ok", "warning", "error"
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// DoctorReport represents the complete diagnostic report
type DoctorReport struct {
	Timestamp   time.Time          `json:"timestamp" yaml:"timestamp"`
	Environment map[string]string  `json:"environment" yaml:"environment"`
	Results     []DiagnosticResult `json:"results" yaml:"results"`
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "table", "Output format (table|json|yaml)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := &DoctorReport{
		Timestamp: time.Now(),
		Environment: map[string]string{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
			"go":   runtime.Version(),
		},
	}

	report.Results = append(report.Results, checkConfigFile())

	cfg, err := config.Load()
	if err != nil {
		report.Results = append(report.Results, DiagnosticResult{
			Name:       "configuration",
			Status:     "error",
			Message:    err.Error(),
			Suggestion: "Fix the reported value in .loupe.yml or the LOUPE_ environment overrides",
		})
		return outputDoctorReport(report)
	}

	report.Results = append(report.Results,
		checkWorkspaceRoot(cfg),
		checkPort(cfg),
		checkNamespace(cfg),
	)

	return outputDoctorReport(report)
}

// checkConfigFile probes the raw YAML before viper gets a chance to paper
// over type mismatches with defaults.
func checkConfigFile() DiagnosticResult {
	raw, err := os.ReadFile(".loupe.yml")
	if os.IsNotExist(err) {
		return DiagnosticResult{
			Name:       "config file",
			Status:     "warning",
			Message:    "no .loupe.yml in current directory, using built-in defaults",
			Suggestion: "Run 'loupe init' to create one",
		}
	}
	if err != nil {
		return DiagnosticResult{
			Name:    "config file",
			Status:  "error",
			Message: fmt.Sprintf("cannot read .loupe.yml: %v", err),
		}
	}

	var probe map[string]interface{}
	if err := yamlv2.Unmarshal(raw, &probe); err != nil {
		return DiagnosticResult{
			Name:       "config file",
			Status:     "error",
			Message:    fmt.Sprintf("invalid YAML in .loupe.yml: %v", err),
			Suggestion: "Check indentation and quoting near the reported line",
		}
	}

	return DiagnosticResult{
		Name:    "config file",
		Status:  "ok",
		Message: ".loupe.yml parsed successfully",
	}
}

func checkWorkspaceRoot(cfg *config.Config) DiagnosticResult {
	abs, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return DiagnosticResult{
			Name:    "workspace root",
			Status:  "error",
			Message: fmt.Sprintf("cannot resolve workspace root: %v", err),
		}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return DiagnosticResult{
			Name:       "workspace root",
			Status:     "error",
			Message:    fmt.Sprintf("workspace root %s does not exist", abs),
			Suggestion: "Set workspace.root in .loupe.yml to an existing directory",
		}
	}
	if !info.IsDir() {
		return DiagnosticResult{
			Name:    "workspace root",
			Status:  "error",
			Message: fmt.Sprintf("workspace root %s is not a directory", abs),
		}
	}

	return DiagnosticResult{
		Name:    "workspace root",
		Status:  "ok",
		Message: abs,
	}
}

func checkPort(cfg *config.Config) DiagnosticResult {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return DiagnosticResult{
			Name:       "port",
			Status:     "warning",
			Message:    fmt.Sprintf("port %d is not available: %v", cfg.Server.Port, err),
			Suggestion: fmt.Sprintf("Try 'loupe serve --port %d' or stop the process holding the port", cfg.Server.Port+1),
		}
	}
	listener.Close()

	return DiagnosticResult{
		Name:    "port",
		Status:  "ok",
		Message: fmt.Sprintf("port %d is available", cfg.Server.Port),
	}
}

func checkNamespace(cfg *config.Config) DiagnosticResult {
	ns := cfg.Preview.Namespace
	if !strings.HasPrefix(ns, "/") || !strings.HasSuffix(ns, "/") || ns == "/" {
		return DiagnosticResult{
			Name:       "preview namespace",
			Status:     "error",
			Message:    fmt.Sprintf("namespace %q must start and end with '/' and not be the root", ns),
			Suggestion: "Use something like /preview/",
		}
	}

	return DiagnosticResult{
		Name:    "preview namespace",
		Status:  "ok",
		Message: ns,
	}
}

func outputDoctorReport(report *DoctorReport) error {
	switch doctorFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		out, err := yamlv2.Marshal(report)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		fmt.Println("Loupe Environment Doctor")
		fmt.Println("========================")
		fmt.Println()

		errors := 0
		for _, result := range report.Results {
			icon := "✓"
			switch result.Status {
			case "warning":
				icon = "!"
			case "error":
				icon = "✗"
				errors++
			}
			fmt.Printf("%s %-20s %s\n", icon, result.Name, result.Message)
			if result.Suggestion != "" {
				fmt.Printf("  → %s\n", result.Suggestion)
			}
		}

		fmt.Println()
		if errors > 0 {
			return fmt.Errorf("%d check(s) failed", errors)
		}
		fmt.Println("All checks passed.")
		return nil
	}
}
