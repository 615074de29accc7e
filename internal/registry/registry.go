// Package registry owns the in-memory virtual file map for the open
// workspace. The registry is the source of truth for path→content pairs;
// the preview router keeps its own disposable copy that is replaced
// wholesale on every sync.
package registry

import (
	"sort"
	"sync"
	"time"
)

// FileEntry holds one path→content pair in the virtual file map.
// Paths are workspace-relative, forward-slash separated, and never carry a
// leading slash. Content is raw bytes; Text records whether the scanner
// classified the file as text via the extension allow-list.
type FileEntry struct {
	Path    string
	Content []byte
	Text    bool
	Size    int64
	ModTime time.Time
}

// FileEvent represents a change in the file registry
type FileEvent struct {
	Type      EventType
	Entry     *FileEntry
	Timestamp time.Time
}

// EventType represents the type of file event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileRegistry manages the virtual file map for the open workspace
type FileRegistry struct {
	files    map[string]*FileEntry
	mutex    sync.RWMutex
	watchers []chan FileEvent
}

// NewFileRegistry creates a new empty file registry
func NewFileRegistry() *FileRegistry {
	return &FileRegistry{
		files:    make(map[string]*FileEntry),
		watchers: make([]chan FileEvent, 0),
	}
}

// Register adds or updates an entry in the registry
func (r *FileRegistry) Register(entry *FileEntry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.files[entry.Path]; exists {
		eventType = EventTypeUpdated
	}

	r.files[entry.Path] = entry

	r.notify(FileEvent{
		Type:      eventType,
		Entry:     entry,
		Timestamp: time.Now(),
	})
}

// Get retrieves an entry by path
func (r *FileRegistry) Get(path string) (*FileEntry, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, exists := r.files[path]
	return entry, exists
}

// Remove removes an entry from the registry
func (r *FileRegistry) Remove(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.files[path]
	if !exists {
		return
	}

	delete(r.files, path)

	r.notify(FileEvent{
		Type:      EventTypeRemoved,
		Entry:     entry,
		Timestamp: time.Now(),
	})
}

// ReplaceAll replaces the entire mapping with exactly the given entries.
// Entries absent from the new set are no longer present afterwards.
func (r *FileRegistry) ReplaceAll(entries []*FileEntry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old := r.files
	r.files = make(map[string]*FileEntry, len(entries))
	for _, entry := range entries {
		r.files[entry.Path] = entry
	}

	now := time.Now()
	for path, entry := range old {
		if _, kept := r.files[path]; !kept {
			r.notify(FileEvent{Type: EventTypeRemoved, Entry: entry, Timestamp: now})
		}
	}
	for path, entry := range r.files {
		eventType := EventTypeAdded
		if _, existed := old[path]; existed {
			eventType = EventTypeUpdated
		}
		r.notify(FileEvent{Type: eventType, Entry: entry, Timestamp: now})
	}
}

// Snapshot returns a copy of all entries ordered by path. The returned
// slice is safe to hand to another goroutine; entry contents are shared
// but never mutated after registration.
func (r *FileRegistry) Snapshot() []FileEntry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]FileEntry, 0, len(r.files))
	for _, entry := range r.files {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// Count returns the number of registered entries
func (r *FileRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.files)
}

// Watch returns a channel that receives file events
func (r *FileRegistry) Watch() <-chan FileEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan FileEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *FileRegistry) UnWatch(ch <-chan FileEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify fans an event out to subscribers. Callers hold the write lock.
func (r *FileRegistry) notify(event FileEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
