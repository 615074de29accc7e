package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupedev/loupe/internal/registry"
	"github.com/loupedev/loupe/internal/router"
)

func newTestSyncer(t *testing.T, run bool) (*Syncer, *registry.FileRegistry, *router.PreviewRouter) {
	t.Helper()

	reg := registry.NewFileRegistry()
	rt := router.NewPreviewRouter("/preview/", nil)

	if run {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		go rt.Run(ctx)

		select {
		case <-rt.Active():
		case <-time.After(time.Second):
			t.Fatal("router never became active")
		}
	}

	return NewSyncer(reg, rt, 100*time.Millisecond, time.Second, nil), reg, rt
}

func TestSyncPushesMapping(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, true)

	reg.Register(&registry.FileEntry{Path: "index.html", Content: []byte("<p>hi</p>"), Text: true})
	reg.Register(&registry.FileEntry{Path: "app.css", Content: []byte("body{}"), Text: true})

	syncer.Sync(context.Background())

	assert.Equal(t, 2, rt.Count())
}

func TestSyncSkipsInactiveRouter(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, false)

	reg.Register(&registry.FileEntry{Path: "index.html", Content: []byte("x"), Text: true})

	start := time.Now()
	syncer.Sync(context.Background())

	// Bounded by controllerWait; a hang here is the failure mode.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, rt.Count())
}

func TestSyncCanceledContext(t *testing.T) {
	syncer, reg, _ := newTestSyncer(t, false)
	reg.Register(&registry.FileEntry{Path: "a.txt", Content: []byte("a"), Text: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		syncer.Sync(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("canceled sync did not return")
	}
}

func TestLaterSyncSupersedes(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, true)

	reg.Register(&registry.FileEntry{Path: "old.html", Content: []byte("old"), Text: true})
	syncer.Sync(context.Background())

	reg.ReplaceAll([]*registry.FileEntry{
		{Path: "new.html", Content: []byte("new"), Text: true},
	})
	syncer.Sync(context.Background())

	require.Equal(t, 1, rt.Count())

	req := newPreviewRequest(t, rt, "/preview/old.html?t=1")
	assert.Contains(t, req, "old.html")
	assert.Contains(t, req, "missing.svg")
}

func newPreviewRequest(t *testing.T, rt *router.PreviewRouter, target string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Body.String()
}

func TestPreviewURLShape(t *testing.T) {
	syncer, _, _ := newTestSyncer(t, false)

	u := syncer.PreviewURL("docs/readme.md")
	assert.True(t, strings.HasPrefix(u, "/preview/docs/readme.md?t="), u)

	ts := strings.TrimPrefix(u, "/preview/docs/readme.md?t=")
	assert.NotEmpty(t, ts)
	for _, ch := range ts {
		assert.True(t, ch >= '0' && ch <= '9', "timestamp must be numeric: %s", ts)
	}
}

func TestPreviewURLEscapesSegments(t *testing.T) {
	syncer, _, _ := newTestSyncer(t, false)

	u := syncer.PreviewURL("my docs/file name.html")
	assert.Contains(t, u, "/preview/my%20docs/file%20name.html?t=")
	// Segment separators survive escaping.
	assert.Equal(t, 2, strings.Count(strings.SplitN(u, "?", 2)[0], "/")-1)
}

func TestPreviewURLRoundTripsPercentNames(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, true)

	reg.Register(&registry.FileEntry{Path: "a%20b.txt", Content: []byte("literal percent"), Text: true})

	u := syncer.RenderPreview(context.Background(), "a%20b.txt")
	assert.Contains(t, u, "/preview/a%2520b.txt?t=")
	assert.Equal(t, "literal percent", newPreviewRequest(t, rt, u))
}

func TestRenderPreviewSyncsFirst(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, true)

	reg.Register(&registry.FileEntry{Path: "page.html", Content: []byte("<h1>ok</h1>"), Text: true})

	u := syncer.RenderPreview(context.Background(), "page.html")
	assert.True(t, strings.HasPrefix(u, "/preview/page.html?t="), u)
	assert.Equal(t, 1, rt.Count())
}

func TestConcurrentSyncsSerialize(t *testing.T) {
	syncer, reg, rt := newTestSyncer(t, true)

	for i := 0; i < 20; i++ {
		reg.Register(&registry.FileEntry{
			Path:    fmt.Sprintf("f%d.txt", i),
			Content: []byte("x"),
			Text:    true,
		})
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			syncer.Sync(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("sync deadlocked")
		}
	}

	assert.Equal(t, 20, rt.Count())
}
