// Package router implements the preview router: a mirrored copy of the
// workspace's path→content map behind a reserved URL namespace. Every
// request under the namespace is answered from the mirror, never from disk
// or the network. The mirror is a disposable cache, replaced wholesale on
// each sync message and discarded with the process.
package router

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/loupedev/loupe/internal/logging"
	"github.com/loupedev/loupe/internal/registry"
	"github.com/yuin/goldmark"
)

// DefaultNamespace is the reserved URL prefix preview requests live under.
const DefaultNamespace = "/preview/"

// SetFilesMessage carries one full replacement of the mirrored mapping.
// Ack, when non-nil, is closed once the replacement has been applied.
type SetFilesMessage struct {
	Entries []registry.FileEntry
	Ack     chan struct{}
}

// snapshot is an immutable view of the mirrored mapping. Request handlers
// run on Go's multi-threaded runtime, so replacement uses an atomic pointer
// swap; a snapshot is never mutated after publication.
type snapshot struct {
	files map[string][]byte
}

// PreviewRouter answers preview requests from its mirrored mapping.
//
// Lifecycle: Uninitialized until Run starts the message loop, then Active
// with an empty mapping; each SetFilesMessage transitions the mapping to
// exactly the carried entries. The router may be stopped and a fresh one
// started at any time; nothing here is a system of record.
type PreviewRouter struct {
	namespace string
	messages  chan SetFilesMessage
	logger    logging.Logger
	markdown  goldmark.Markdown
	snap      atomic.Pointer[snapshot]

	activeOnce sync.Once
	active     chan struct{}
}

// NewPreviewRouter creates a router for the given namespace prefix. The
// prefix must start and end with a slash; DefaultNamespace is used when
// empty.
func NewPreviewRouter(namespace string, logger logging.Logger) *PreviewRouter {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &PreviewRouter{
		namespace: namespace,
		messages:  make(chan SetFilesMessage, 16),
		logger:    logger.WithComponent("router"),
		markdown:  newMarkdownRenderer(),
		active:    make(chan struct{}),
	}
}

// Namespace returns the reserved URL prefix.
func (pr *PreviewRouter) Namespace() string {
	return pr.namespace
}

// Active returns a channel closed once the message loop is running.
// Senders wait on it (bounded) before issuing a sync, mirroring the
// "controller became active" signal.
func (pr *PreviewRouter) Active() <-chan struct{} {
	return pr.active
}

// Run processes sync messages until ctx is cancelled. Messages are handled
// strictly in order; each replaces the entire mirrored mapping before the
// next is read, so a later sync always supersedes an earlier one.
func (pr *PreviewRouter) Run(ctx context.Context) {
	pr.activeOnce.Do(func() {
		pr.snap.Store(&snapshot{files: map[string][]byte{}})
		close(pr.active)
	})

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-pr.messages:
			pr.setFiles(msg)
		}
	}
}

// SetFiles enqueues a full mapping replacement. The send never blocks: if
// the loop is not consuming, the message is dropped and the preview simply
// stays stale, which is the documented degraded state.
func (pr *PreviewRouter) SetFiles(msg SetFilesMessage) {
	select {
	case pr.messages <- msg:
	default:
		pr.logger.Debug(context.Background(), "sync message dropped, router not consuming")
	}
}

func (pr *PreviewRouter) setFiles(msg SetFilesMessage) {
	files := make(map[string][]byte, len(msg.Entries))
	for _, entry := range msg.Entries {
		files[entry.Path] = entry.Content
	}

	pr.snap.Store(&snapshot{files: files})
	pr.logger.Debug(context.Background(), "mirrored mapping replaced", "files", len(files))

	if msg.Ack != nil {
		close(msg.Ack)
	}
}

// lookup consults the current snapshot. A nil snapshot (loop not yet
// started) behaves as an empty mapping.
func (pr *PreviewRouter) lookup(path string) ([]byte, bool) {
	snap := pr.snap.Load()
	if snap == nil {
		return nil, false
	}
	content, ok := snap.files[path]
	return content, ok
}

// Count returns the number of entries in the mirrored mapping.
func (pr *PreviewRouter) Count() int {
	snap := pr.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.files)
}
