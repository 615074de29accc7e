package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/loupedev/loupe/internal/logging"
	"github.com/loupedev/loupe/internal/registry"
	"github.com/loupedev/loupe/internal/router"
)

// Syncer pushes the registry's mapping to the preview router before a
// render. Only one sync is ever outstanding: callers are serialized, and
// each send is awaited before the next, so a later sync always supersedes
// an earlier one.
//
// Both waits degrade silently. A preview that renders stale or missing
// content is the accepted outcome of a missed handshake; nothing here
// returns an error to the caller.
type Syncer struct {
	registry       *registry.FileRegistry
	router         *router.PreviewRouter
	controllerWait time.Duration
	ackWait        time.Duration
	logger         logging.Logger
	mutex          sync.Mutex
}

// NewSyncer wires a registry to a router with the given bounded waits.
func NewSyncer(reg *registry.FileRegistry, rt *router.PreviewRouter, controllerWait, ackWait time.Duration, logger logging.Logger) *Syncer {
	if controllerWait <= 0 {
		controllerWait = time.Second
	}
	if ackWait <= 0 {
		ackWait = 2 * time.Second
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Syncer{
		registry:       reg,
		router:         rt,
		controllerWait: controllerWait,
		ackWait:        ackWait,
		logger:         logger.WithComponent("sync"),
	}
}

// Sync sends the full current mapping to the router and waits for the
// acknowledgement. It resolves regardless of whether the router was
// reachable or the acknowledgement arrived in time.
func (s *Syncer) Sync(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	select {
	case <-s.router.Active():
	case <-time.After(s.controllerWait):
		s.logger.Debug(ctx, "router not active, skipping sync")
		return
	case <-ctx.Done():
		return
	}

	ack := make(chan struct{})
	entries := s.registry.Snapshot()
	s.router.SetFiles(router.SetFilesMessage{Entries: entries, Ack: ack})

	select {
	case <-ack:
		s.logger.Debug(ctx, "sync acknowledged", "files", len(entries))
	case <-time.After(s.ackWait):
		s.logger.Debug(ctx, "sync acknowledgement timed out", "files", len(entries))
	case <-ctx.Done():
	}
}

// RenderPreview syncs and returns the preview navigation URL for a path.
// The path does not have to exist; previewing a missing path renders the
// router's not-found page rather than failing here.
func (s *Syncer) RenderPreview(ctx context.Context, path string) string {
	s.Sync(ctx)
	return s.PreviewURL(path)
}

// PreviewURL builds <namespace>/<urlencoded-path>?t=<millis>. The
// timestamp query parameter exists solely to defeat caching in the preview
// surface; its presence is also what marks the request as a direct preview.
func (s *Syncer) PreviewURL(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return fmt.Sprintf("%s%s?t=%d",
		s.router.Namespace(),
		strings.Join(segments, "/"),
		time.Now().UnixMilli())
}
