// Package scanner builds the virtual file map from a workspace directory.
// Paths are stored workspace-relative with forward slashes and no leading
// slash; content is classified as text or binary by an extension allow-list
// at scan time, matching the contract the preview sync message carries.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loupedev/loupe/internal/registry"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxFileSize caps what the scanner loads into memory per file.
const maxFileSize = 8 << 20

// WorkspaceScanner scans a directory tree into a file registry
type WorkspaceScanner struct {
	registry *registry.FileRegistry
	excludes []string
	textExts map[string]bool
}

// DefaultTextExtensions is the allow-list deciding which files are decoded
// as UTF-8 text. Everything else travels as opaque bytes.
var DefaultTextExtensions = []string{
	"html", "htm", "css", "js", "jsx", "ts", "tsx", "json", "xml", "svg",
	"txt", "md", "markdown", "go", "py", "rs", "java", "c", "h", "cpp",
	"hpp", "rb", "php", "sh", "yaml", "yml", "toml", "sql", "kt", "swift",
	"cs", "csv", "env", "gitignore", "lock", "cfg", "ini",
}

// DefaultExcludePatterns are directory names skipped during a scan.
var DefaultExcludePatterns = []string{".git", "node_modules", "vendor", ".loupe"}

// NewWorkspaceScanner creates a scanner feeding the given registry.
// Nil or empty option slices fall back to the defaults.
func NewWorkspaceScanner(reg *registry.FileRegistry, excludes, textExts []string) *WorkspaceScanner {
	if len(excludes) == 0 {
		excludes = DefaultExcludePatterns
	}
	if len(textExts) == 0 {
		textExts = DefaultTextExtensions
	}

	extSet := make(map[string]bool, len(textExts))
	for _, ext := range textExts {
		extSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &WorkspaceScanner{
		registry: reg,
		excludes: excludes,
		textExts: extSet,
	}
}

// ScanWorkspace walks the workspace root and replaces the registry's
// mapping with exactly the files found. Unreadable files are skipped, not
// fatal; the scan is serialized so a refresh never exposes a partial tree.
func (s *WorkspaceScanner) ScanWorkspace(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", root)
	}

	var entries []*registry.FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable paths
		}

		if info.IsDir() {
			if path != root && s.excluded(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Size() > maxFileSize || !info.Mode().IsRegular() {
			return nil
		}

		entry, err := s.readEntry(root, path, info)
		if err != nil {
			return nil
		}

		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking workspace: %w", err)
	}

	s.registry.ReplaceAll(entries)
	return nil
}

// ScanFile re-reads a single file and updates its registry entry in place.
// A file that no longer exists is removed from the mapping.
func (s *WorkspaceScanner) ScanFile(root, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if rel, relErr := RelativePath(root, path); relErr == nil {
				s.registry.Remove(rel)
			}
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() || !info.Mode().IsRegular() || info.Size() > maxFileSize {
		return nil
	}

	entry, err := s.readEntry(root, path, info)
	if err != nil {
		return err
	}

	s.registry.Register(entry)
	return nil
}

// IsText reports whether the extension allow-list classifies a path as text.
func (s *WorkspaceScanner) IsText(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return s.textExts[ext]
}

// RelativePath converts an absolute file path into the workspace-relative,
// forward-slash key used throughout the mapping.
func RelativePath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relativizing %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("path %s is outside workspace root", path)
	}
	return rel, nil
}

func (s *WorkspaceScanner) excluded(name string) bool {
	for _, pattern := range s.excludes {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (s *WorkspaceScanner) readEntry(root, path string, info os.FileInfo) (*registry.FileEntry, error) {
	rel, err := RelativePath(root, path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := s.IsText(rel)
	if text {
		raw = decodeText(raw)
	}

	return &registry.FileEntry{
		Path:    rel,
		Content: raw,
		Text:    text,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// decodeText normalizes text content to UTF-8. Files carrying a UTF-16 or
// UTF-8 BOM are transcoded; plain bytes pass through unchanged.
func decodeText(raw []byte) []byte {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return raw
	}
	return out
}
