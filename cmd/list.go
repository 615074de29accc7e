package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/registry"
	"github.com/loupedev/loupe/internal/router"
	"github.com/loupedev/loupe/internal/scanner"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all files in the workspace mapping",
	Long: `List the files a scan of the workspace would register, with their
preview kind, MIME type, and size.

Examples:
  loupe list                       # List files in table format
  loupe list -o json               # Output as JSON
  loupe list -o yaml               # Output as YAML
  loupe list --kind markdown       # Only markdown files`,
	RunE: runList,
}

var (
	listFlags *StandardFlags
	listKind  string
)

// listedFile is the output row for one mapping entry.
type listedFile struct {
	Path string `json:"path" yaml:"path"`
	Kind string `json:"kind" yaml:"kind"`
	MIME string `json:"mime" yaml:"mime"`
	Size int64  `json:"size" yaml:"size"`
	Text bool   `json:"text" yaml:"text"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Only show files of this preview kind")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reg := registry.NewFileRegistry()
	workspaceScanner := scanner.NewWorkspaceScanner(reg, cfg.Workspace.ExcludePatterns, cfg.Workspace.TextExtensions)
	if err := workspaceScanner.ScanWorkspace(cfg.Workspace.Root); err != nil {
		return fmt.Errorf("failed to scan workspace: %w", err)
	}

	entries := reg.Snapshot()
	files := make([]listedFile, 0, len(entries))
	for _, entry := range entries {
		kind := router.Classify(entry.Path)
		row := listedFile{
			Path: entry.Path,
			Kind: kind.Kind.String(),
			MIME: kind.MIME,
			Size: entry.Size,
			Text: entry.Text,
		}
		if listKind != "" && row.Kind != listKind {
			continue
		}
		files = append(files, row)
	}

	if len(files) == 0 {
		fmt.Println("No files found.")
		return nil
	}

	if err := listFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	switch strings.ToLower(listFlags.OutputFormat) {
	case "json":
		return outputListJSON(files)
	case "yaml":
		return outputListYAML(files)
	default:
		return outputListTable(files)
	}
}

func outputListTable(files []listedFile) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tMIME\tSIZE")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", f.Path, f.Kind, f.MIME, f.Size)
	}
	return w.Flush()
}

func outputListJSON(files []listedFile) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(files)
}

func outputListYAML(files []listedFile) error {
	out, err := yaml.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
