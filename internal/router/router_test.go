package router

import (
	"context"
	"testing"
	"time"

	"github.com/loupedev/loupe/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startRouter runs the router loop and waits for it to become active.
func startRouter(t *testing.T, pr *PreviewRouter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go pr.Run(ctx)

	select {
	case <-pr.Active():
	case <-time.After(time.Second):
		t.Fatal("router did not become active")
	}
}

// syncFiles sends a SET_FILES message and waits for the acknowledgement.
func syncFiles(t *testing.T, pr *PreviewRouter, entries []registry.FileEntry) {
	t.Helper()
	ack := make(chan struct{})
	pr.SetFiles(SetFilesMessage{Entries: entries, Ack: ack})

	select {
	case <-ack:
	case <-time.After(time.Second):
		t.Fatal("sync was not acknowledged")
	}
}

func TestNewPreviewRouter_Defaults(t *testing.T) {
	pr := NewPreviewRouter("", nil)

	assert.Equal(t, DefaultNamespace, pr.Namespace())
	assert.Equal(t, 0, pr.Count())
}

func TestPreviewRouter_StartsEmpty(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	assert.Equal(t, 0, pr.Count())
	_, found := pr.lookup("index.html")
	assert.False(t, found)
}

func TestPreviewRouter_SetFilesAcknowledges(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	syncFiles(t, pr, []registry.FileEntry{
		{Path: "index.html", Content: []byte("<h1>Hi</h1>")},
	})

	content, found := pr.lookup("index.html")
	require.True(t, found)
	assert.Equal(t, []byte("<h1>Hi</h1>"), content)
}

func TestPreviewRouter_SyncIsIdempotent(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	entries := []registry.FileEntry{
		{Path: "a.txt", Content: []byte("1")},
		{Path: "b.txt", Content: []byte("2")},
	}

	syncFiles(t, pr, entries)
	syncFiles(t, pr, entries)

	assert.Equal(t, 2, pr.Count())
	content, found := pr.lookup("a.txt")
	require.True(t, found)
	assert.Equal(t, []byte("1"), content)
}

func TestPreviewRouter_SyncReplacesWholesale(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	syncFiles(t, pr, []registry.FileEntry{{Path: "a.txt", Content: []byte("1")}})
	syncFiles(t, pr, []registry.FileEntry{{Path: "b.txt", Content: []byte("2")}})

	// The old entry is no longer servable; the mapping is never merged.
	_, found := pr.lookup("a.txt")
	assert.False(t, found)

	content, found := pr.lookup("b.txt")
	require.True(t, found)
	assert.Equal(t, []byte("2"), content)
}

func TestPreviewRouter_EmptySyncClearsMapping(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	syncFiles(t, pr, []registry.FileEntry{{Path: "a.txt", Content: []byte("1")}})
	syncFiles(t, pr, nil)

	assert.Equal(t, 0, pr.Count())
}

func TestPreviewRouter_OrderedDelivery(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	startRouter(t, pr)

	// Awaited syncs land in order; the last one wins.
	for i := 0; i < 5; i++ {
		syncFiles(t, pr, []registry.FileEntry{
			{Path: "gen.txt", Content: []byte{byte('0' + i)}},
		})
	}

	content, found := pr.lookup("gen.txt")
	require.True(t, found)
	assert.Equal(t, []byte("4"), content)
}

func TestPreviewRouter_DropWhenNotConsuming(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)
	// Never started: fill the buffer, then confirm SetFiles does not block.
	for i := 0; i < 32; i++ {
		pr.SetFiles(SetFilesMessage{Entries: nil})
	}
}

func TestPreviewRouter_UninitializedLookup(t *testing.T) {
	pr := NewPreviewRouter("/preview/", nil)

	_, found := pr.lookup("anything")
	assert.False(t, found)
	assert.Equal(t, 0, pr.Count())
}
