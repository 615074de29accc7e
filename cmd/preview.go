package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/server"
)

var previewCmd = &cobra.Command{
	Use:     "preview <path>",
	Aliases: []string{"p"},
	Short:   "Preview a specific workspace file",
	Long: `Start the preview server and navigate connected surfaces straight to
the given workspace-relative path. The path does not have to exist yet:
previewing a missing file shows the friendly not-found page until the
file appears.

Examples:
  loupe preview index.html                 # Preview a page
  loupe preview docs/readme.md             # Preview rendered markdown
  loupe preview src/App.jsx                # Preview a React component
  loupe preview data/config.json           # Preview highlighted JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runPreviewCommand,
}

var previewFlags *StandardFlags

func init() {
	rootCmd.AddCommand(previewCmd)

	previewFlags = AddStandardFlags(previewCmd, "server")
}

func runPreviewCommand(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = previewFlags.Port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = previewFlags.Host
	}
	if previewFlags.DisableBrowser {
		cfg.Server.Open = false
	}

	logger := newLogger(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			log.Printf("Error during server shutdown: %v", shutdownErr)
		}
		cancel()
	}()

	// Navigate once the surface can connect; the server broadcasts the
	// preview URL to every websocket client.
	srv.Session().Select(path)

	fmt.Printf("Previewing %s at http://%s:%d\n", path, cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
