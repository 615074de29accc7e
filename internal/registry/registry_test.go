package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFileRegistry(t *testing.T) {
	reg := NewFileRegistry()

	assert.NotNil(t, reg)
	assert.NotNil(t, reg.files)
	assert.Equal(t, 0, reg.Count())
}

func TestFileRegistry_Register(t *testing.T) {
	reg := NewFileRegistry()

	entry := &FileEntry{
		Path:    "index.html",
		Content: []byte("<h1>Hi</h1>"),
		Text:    true,
	}

	reg.Register(entry)

	retrieved, exists := reg.Get("index.html")
	assert.True(t, exists)
	assert.Equal(t, entry, retrieved)
	assert.Equal(t, 1, reg.Count())
}

func TestFileRegistry_Update(t *testing.T) {
	reg := NewFileRegistry()

	reg.Register(&FileEntry{Path: "app.js", Content: []byte("v1"), Text: true})
	reg.Register(&FileEntry{Path: "app.js", Content: []byte("v2"), Text: true})

	retrieved, exists := reg.Get("app.js")
	assert.True(t, exists)
	assert.Equal(t, []byte("v2"), retrieved.Content)
	assert.Equal(t, 1, reg.Count())
}

func TestFileRegistry_Remove(t *testing.T) {
	reg := NewFileRegistry()

	reg.Register(&FileEntry{Path: "style.css", Content: []byte("body{}"), Text: true})
	assert.Equal(t, 1, reg.Count())

	reg.Remove("style.css")

	_, exists := reg.Get("style.css")
	assert.False(t, exists)
	assert.Equal(t, 0, reg.Count())

	// Removing a missing path is a no-op.
	reg.Remove("style.css")
	assert.Equal(t, 0, reg.Count())
}

func TestFileRegistry_ReplaceAll(t *testing.T) {
	reg := NewFileRegistry()

	reg.Register(&FileEntry{Path: "a.txt", Content: []byte("1"), Text: true})

	reg.ReplaceAll([]*FileEntry{
		{Path: "b.txt", Content: []byte("2"), Text: true},
	})

	// Entries absent from the new set are gone, not merged.
	_, exists := reg.Get("a.txt")
	assert.False(t, exists)

	entry, exists := reg.Get("b.txt")
	assert.True(t, exists)
	assert.Equal(t, []byte("2"), entry.Content)
	assert.Equal(t, 1, reg.Count())
}

func TestFileRegistry_Snapshot_OrderedByPath(t *testing.T) {
	reg := NewFileRegistry()

	reg.Register(&FileEntry{Path: "z.txt", Content: []byte("z")})
	reg.Register(&FileEntry{Path: "a.txt", Content: []byte("a")})
	reg.Register(&FileEntry{Path: "m/n.txt", Content: []byte("n")})

	snap := reg.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, "a.txt", snap[0].Path)
	assert.Equal(t, "m/n.txt", snap[1].Path)
	assert.Equal(t, "z.txt", snap[2].Path)
}

func TestFileRegistry_Snapshot_Decoupled(t *testing.T) {
	reg := NewFileRegistry()
	reg.Register(&FileEntry{Path: "a.txt", Content: []byte("a")})

	snap := reg.Snapshot()
	reg.Remove("a.txt")

	// The snapshot is unaffected by later mutations.
	assert.Len(t, snap, 1)
	assert.Equal(t, "a.txt", snap[0].Path)
}

func TestFileRegistry_Watch(t *testing.T) {
	reg := NewFileRegistry()
	watcher := reg.Watch()

	go func() {
		time.Sleep(10 * time.Millisecond)
		reg.Register(&FileEntry{Path: "data.json", Content: []byte("{}")})
	}()

	select {
	case event := <-watcher:
		assert.Equal(t, EventTypeAdded, event.Type)
		assert.Equal(t, "data.json", event.Entry.Path)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected to receive file added event")
	}
}

func TestFileRegistry_UnWatch(t *testing.T) {
	reg := NewFileRegistry()

	watcher1 := reg.Watch()
	watcher2 := reg.Watch()
	assert.Len(t, reg.watchers, 2)

	reg.UnWatch(watcher1)
	assert.Len(t, reg.watchers, 1)

	select {
	case _, ok := <-watcher1:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(10 * time.Millisecond):
		t.Fatal("channel should be closed immediately")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		reg.Register(&FileEntry{Path: "x.txt"})
	}()

	select {
	case event := <-watcher2:
		assert.Equal(t, EventTypeAdded, event.Type)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("second watcher should still receive events")
	}
}

func TestFileRegistry_ReplaceAll_Events(t *testing.T) {
	reg := NewFileRegistry()
	reg.Register(&FileEntry{Path: "old.txt"})

	watcher := reg.Watch()

	reg.ReplaceAll([]*FileEntry{{Path: "new.txt"}})

	types := map[string]EventType{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-watcher:
			types[event.Entry.Path] = event.Type
		case <-time.After(100 * time.Millisecond):
			t.Fatal("expected two events from ReplaceAll")
		}
	}

	assert.Equal(t, EventTypeRemoved, types["old.txt"])
	assert.Equal(t, EventTypeAdded, types["new.txt"])
}

func TestFileRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewFileRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(index int) {
			reg.Register(&FileEntry{
				Path:    fmt.Sprintf("file%d.txt", index),
				Content: []byte("x"),
			})
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, 10, reg.Count())

	for i := 0; i < 10; i++ {
		go func(index int) {
			_, exists := reg.Get(fmt.Sprintf("file%d.txt", index))
			assert.True(t, exists)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "added", EventTypeAdded.String())
	assert.Equal(t, "updated", EventTypeUpdated.String())
	assert.Equal(t, "removed", EventTypeRemoved.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
