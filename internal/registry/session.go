package registry

import "sync"

// ProjectSession owns the state of one open workspace: the virtual file
// map, the current selection, and the list of open tabs. It is constructed
// when a workspace is opened and discarded when it is closed; nothing in
// the session survives the process.
type ProjectSession struct {
	root  string
	files *FileRegistry

	mutex     sync.RWMutex
	selection string
	tabs      []string
}

// NewProjectSession creates a session rooted at the given workspace path.
func NewProjectSession(root string) *ProjectSession {
	return &ProjectSession{
		root:  root,
		files: NewFileRegistry(),
		tabs:  make([]string, 0),
	}
}

// Root returns the workspace root the session was opened on.
func (s *ProjectSession) Root() string {
	return s.root
}

// Files returns the session's file registry.
func (s *ProjectSession) Files() *FileRegistry {
	return s.files
}

// Select marks a path as the current selection. Selecting a path does not
// require it to exist in the mapping; a preview of a missing path is valid
// and renders the router's not-found page.
func (s *ProjectSession) Select(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.selection = path
}

// Selection returns the currently selected path, or "" if none.
func (s *ProjectSession) Selection() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.selection
}

// OpenTab adds a path to the open-tab list and selects it. Opening an
// already-open tab only moves the selection.
func (s *ProjectSession) OpenTab(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, tab := range s.tabs {
		if tab == path {
			s.selection = path
			return
		}
	}
	s.tabs = append(s.tabs, path)
	s.selection = path
}

// CloseTab removes a path from the open-tab list. If it was selected, the
// selection moves to the last remaining tab, or clears when none are left.
func (s *ProjectSession) CloseTab(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, tab := range s.tabs {
		if tab == path {
			s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
			break
		}
	}

	if s.selection == path {
		if len(s.tabs) > 0 {
			s.selection = s.tabs[len(s.tabs)-1]
		} else {
			s.selection = ""
		}
	}
}

// Tabs returns a copy of the open-tab list in open order.
func (s *ProjectSession) Tabs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tabs := make([]string, len(s.tabs))
	copy(tabs, s.tabs)
	return tabs
}
