package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loupedev/loupe/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Initialize a new loupe project",
	Long: `Initialize a new loupe project in the given directory (default: current).
Creates a .loupe.yml configuration file and, with --example, a small
sample workspace demonstrating each preview kind.

Examples:
  loupe init                       # Initialize current directory
  loupe init mysite                # Initialize ./mysite
  loupe init --example             # Also create sample files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initExample bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initExample, "example", false, "Create a sample workspace")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	configPath := filepath.Join(dir, ".loupe.yml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	cfg := config.Default()
	cfg.Workspace.TextExtensions = nil // omit so the built-in allow-list applies

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	fmt.Printf("Created %s\n", configPath)

	if initExample {
		if err := writeExampleWorkspace(dir); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	if dir != "." {
		fmt.Printf("  cd %s\n", dir)
	}
	fmt.Println("  loupe serve")
	return nil
}

var exampleFiles = map[string]string{
	"index.html": `<!DOCTYPE html>
<html>
<head>
    <title>Hello Loupe</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>Hello from Loupe</h1>
    <p>Edit this file and watch the preview reload.</p>
</body>
</html>
`,
	"style.css": `body {
    font-family: system-ui, sans-serif;
    max-width: 640px;
    margin: 2rem auto;
}
`,
	"readme.md": `# Sample workspace

Markdown files render with syntax highlighting:

` + "```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```" + `
`,
	"data.json": `{
    "name": "loupe",
    "kinds": ["html", "json", "markdown", "react", "source"]
}
`,
	"App.jsx": `function App() {
    return <h1>Hello from React</h1>;
}
`,
}

func writeExampleWorkspace(dir string) error {
	for name, content := range exampleFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists)\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Created %s\n", path)
	}
	return nil
}
