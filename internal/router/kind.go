package router

import (
	"path"
	"strings"
)

// FileKind is the closed set of preview categories. It is computed once per
// request from the path and matched exhaustively when synthesizing the
// response.
type FileKind int

const (
	KindHTML FileKind = iota
	KindJSON
	KindReactComponent
	KindMarkdown
	KindSourceCode
	KindImage
	KindStylesheet
	KindScript
	KindPlainText
	KindBinary
)

// String returns the string representation of the FileKind
func (k FileKind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindJSON:
		return "json"
	case KindReactComponent:
		return "react"
	case KindMarkdown:
		return "markdown"
	case KindSourceCode:
		return "source"
	case KindImage:
		return "image"
	case KindStylesheet:
		return "stylesheet"
	case KindScript:
		return "script"
	case KindPlainText:
		return "text"
	default:
		return "binary"
	}
}

// Kind pairs a FileKind with the detail the response synthesizer needs:
// the language label for source viewers and the MIME type for raw serving.
type Kind struct {
	Kind FileKind
	Lang string
	MIME string
}

// contentTypes is the exhaustive extension→MIME table. Anything absent
// falls back to text/plain, never an error.
var contentTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"ico":  "image/x-icon",
	"svg":  "image/svg+xml",
	"xml":  "application/xml",
	"txt":  "text/plain",
}

// sourceLangs is the fixed list of source-code extensions that get the
// monospace viewer on direct preview.
var sourceLangs = map[string]string{
	"go":    "Go",
	"py":    "Python",
	"rs":    "Rust",
	"java":  "Java",
	"c":     "C",
	"h":     "C",
	"cpp":   "C++",
	"hpp":   "C++",
	"ts":    "TypeScript",
	"rb":    "Ruby",
	"php":   "PHP",
	"sh":    "Shell",
	"yaml":  "YAML",
	"yml":   "YAML",
	"toml":  "TOML",
	"sql":   "SQL",
	"kt":    "Kotlin",
	"swift": "Swift",
	"cs":    "C#",
}

// ContentType resolves the MIME type for a path from the fixed table.
func ContentType(p string) string {
	if mime, ok := contentTypes[fileExt(p)]; ok {
		return mime
	}
	return "text/plain"
}

// Classify computes the preview kind for a path.
func Classify(p string) Kind {
	ext := fileExt(p)
	mime := ContentType(p)

	switch ext {
	case "html", "htm":
		return Kind{Kind: KindHTML, MIME: mime}
	case "json":
		return Kind{Kind: KindJSON, MIME: mime}
	case "jsx", "tsx":
		return Kind{Kind: KindReactComponent, MIME: mime}
	case "md", "markdown":
		return Kind{Kind: KindMarkdown, MIME: mime}
	case "css":
		return Kind{Kind: KindStylesheet, MIME: mime}
	case "js":
		return Kind{Kind: KindScript, MIME: mime}
	case "png", "jpg", "jpeg", "gif", "webp", "ico", "svg":
		return Kind{Kind: KindImage, MIME: mime}
	case "txt", "":
		return Kind{Kind: KindPlainText, MIME: mime}
	}

	if lang, ok := sourceLangs[ext]; ok {
		return Kind{Kind: KindSourceCode, Lang: lang, MIME: mime}
	}
	if strings.HasPrefix(mime, "text/") || mime == "application/xml" {
		return Kind{Kind: KindPlainText, MIME: mime}
	}
	return Kind{Kind: KindBinary, MIME: mime}
}

func fileExt(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
