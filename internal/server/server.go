// Package server hosts the preview surface: it owns the project session,
// drives scans and syncs, runs the live-reload websocket hub, and mounts
// the preview router under its reserved namespace.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/logging"
	"github.com/loupedev/loupe/internal/registry"
	"github.com/loupedev/loupe/internal/router"
	"github.com/loupedev/loupe/internal/scanner"
	"github.com/loupedev/loupe/internal/watcher"
)

// PreviewServer serves the workspace preview with live reload
type PreviewServer struct {
	config  *config.Config
	logger  logging.Logger
	session *registry.ProjectSession
	scanner *scanner.WorkspaceScanner
	watcher *watcher.FileWatcher
	router  *router.PreviewRouter
	syncer  *Syncer

	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *client
	unregister   chan *websocket.Conn

	shutdownOnce sync.Once
}

// UpdateMessage represents a message pushed to preview surfaces
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a preview server for the configured workspace.
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	root, err := filepath.Abs(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	session := registry.NewProjectSession(root)
	workspaceScanner := scanner.NewWorkspaceScanner(
		session.Files(),
		cfg.Workspace.ExcludePatterns,
		cfg.Workspace.TextExtensions,
	)

	fileWatcher, err := watcher.NewFileWatcher(300*time.Millisecond, logger)
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	previewRouter := router.NewPreviewRouter(cfg.Preview.Namespace, logger)
	syncer := NewSyncer(
		session.Files(),
		previewRouter,
		cfg.Preview.ControllerWait,
		cfg.Preview.AckWait,
		logger,
	)

	return &PreviewServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		session:    session,
		scanner:    workspaceScanner,
		watcher:    fileWatcher,
		router:     previewRouter,
		syncer:     syncer,
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client, 16),
		unregister: make(chan *websocket.Conn, 16),
	}, nil
}

// Session returns the server's project session.
func (s *PreviewServer) Session() *registry.ProjectSession {
	return s.session
}

// Start opens the workspace, starts the router loop, watcher, and
// websocket hub, and serves HTTP until the listener closes.
func (s *PreviewServer) Start(ctx context.Context) error {
	go s.router.Run(ctx)

	if err := s.scanner.ScanWorkspace(s.session.Root()); err != nil {
		return fmt.Errorf("initial workspace scan: %w", err)
	}
	s.logger.Info(ctx, "workspace opened",
		"root", s.session.Root(),
		"files", s.session.Files().Count())

	s.syncer.Sync(ctx)

	s.setupFileWatcher(ctx)

	go s.runWebSocketHub(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	httpServer := s.httpServer
	s.serverMutex.Unlock()

	if s.config.Server.Open {
		go s.openBrowser(fmt.Sprintf("http://%s", addr))
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Handler builds the full HTTP handler: the preview namespace, the
// websocket endpoint, the host API, and the server-scope assets.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.router.Namespace(), s.router)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.HandleFunc("/assets/", s.handleAssets)
	mux.HandleFunc("/", s.handleIndex)

	return s.addMiddleware(mux)
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddFilter(watcher.NoNodeModulesFilter)
	s.watcher.AddFilter(watcher.NoTempFilter)

	s.watcher.AddHandler(func(events []watcher.ChangeEvent) error {
		return s.handleFileChange(ctx, events)
	})

	if err := s.watcher.AddRecursive(s.session.Root()); err != nil {
		s.logger.Warn(ctx, err, "failed to watch workspace", "root", s.session.Root())
		return
	}

	s.watcher.Start(ctx)
}

// handleFileChange rescans changed paths, re-syncs the router, and tells
// connected surfaces to reload. Scans are serialized by the watcher's
// single dispatch goroutine, so a refresh never exposes a partial tree.
func (s *PreviewServer) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())
		if err := s.scanner.ScanFile(s.session.Root(), event.Path); err != nil {
			s.logger.Warn(ctx, err, "rescan failed", "path", event.Path)
		}
	}

	s.syncer.Sync(ctx)

	if s.config.Preview.AutoReload {
		s.broadcastMessage(UpdateMessage{Type: "full_reload", Timestamp: time.Now()})
	}

	return nil
}

// RenderPreview syncs the mapping and navigates connected preview surfaces
// to the path. The returned URL carries the cache-busting timestamp.
func (s *PreviewServer) RenderPreview(ctx context.Context, path string) string {
	previewURL := s.syncer.RenderPreview(ctx, path)
	s.session.Select(path)
	s.broadcastMessage(UpdateMessage{
		Type:      "preview_navigate",
		Target:    previewURL,
		Timestamp: time.Now(),
	})
	return previewURL
}

func (s *PreviewServer) broadcastMessage(msg UpdateMessage) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		jsonData = []byte(`{"type":"full_reload"}`)
	}

	select {
	case s.broadcast <- jsonData:
	default:
		// Hub not draining; surfaces will catch up on the next change.
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if s.config.Server.Environment == "development" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}

func (s *PreviewServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *PreviewServer) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond) // Give the listener time to bind

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to open browser")
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down")

		if s.watcher != nil {
			s.watcher.Stop()
		}

		s.clientsMutex.Lock()
		for conn, c := range s.clients {
			close(c.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		httpServer := s.httpServer
		s.serverMutex.RUnlock()

		if httpServer != nil {
			shutdownErr = httpServer.Shutdown(ctx)
		}
	})

	return shutdownErr
}
