package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/logging"
	"github.com/loupedev/loupe/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve [directory]",
	Aliases: []string{"s"},
	Short:   "Start the preview server with live reload",
	Long: `Start the preview server with live reload capability.
Scans the workspace, watches for file changes, and serves every file
under the preview namespace with per-kind viewers.

Examples:
  loupe serve                      # Serve the current directory
  loupe serve ./site               # Serve a specific directory
  loupe serve --port 4000          # Serve on a custom port`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	AddStandardFlags(serveCmd, "server")
	serveCmd.Flags().Bool("no-reload", false, "Disable live reload on file changes")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.no-open", serveCmd.Flags().Lookup("no-open"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(args) > 0 {
		cfg.Workspace.Root = args[0]
	}
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		cfg.Preview.AutoReload = false
	}

	logger := newLogger(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Create context that cancels on interrupt
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

	fmt.Printf("Starting Loupe preview server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Workspace: %s\n", cfg.Workspace.Root)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}
