package router

import (
	"net/http"
	"net/url"
	"strings"
)

// ServeHTTP answers one preview request from the mirrored mapping.
//
// The request path has the namespace prefix stripped and is URL-decoded
// exactly once, working from the escaped form so filenames containing
// literal percent sequences stay addressable; an empty remainder resolves
// to index.html. A request carrying the cache-busting `t` query parameter
// is a direct (top-level) preview, which is what decides whether JSON,
// markdown, React, and source files get a synthesized viewer instead of
// their raw bytes. Every response is HTTP 200, including the not-found
// page, so the embedded preview surface never shows a browser-native
// error.
func (pr *PreviewRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remainder := strings.TrimPrefix(r.URL.EscapedPath(), pr.namespace)
	remainder = strings.TrimPrefix(remainder, "/")

	decoded, err := url.PathUnescape(remainder)
	if err != nil {
		decoded = remainder
	}
	if decoded == "" {
		decoded = "index.html"
	}

	direct := r.URL.Query().Has("t")

	content, found := pr.lookup(decoded)
	if !found {
		writePage(w, "text/html", notFoundPage(decoded))
		return
	}

	kind := Classify(decoded)
	switch kind.Kind {
	case KindHTML:
		// Raw, no transformation.
		writePage(w, kind.MIME, content)

	case KindJSON:
		if direct {
			writePage(w, "text/html", jsonViewerPage(decoded, content))
			return
		}
		writePage(w, kind.MIME, content)

	case KindReactComponent:
		if direct {
			writePage(w, "text/html", reactViewerPage(decoded, content))
			return
		}
		writePage(w, kind.MIME, content)

	case KindMarkdown:
		if direct {
			writePage(w, "text/html", pr.markdownViewerPage(decoded, content))
			return
		}
		writePage(w, kind.MIME, content)

	case KindSourceCode:
		if direct {
			writePage(w, "text/html", sourceViewerPage(decoded, kind.Lang, content))
			return
		}
		writePage(w, kind.MIME, content)

	case KindImage, KindStylesheet, KindScript, KindPlainText, KindBinary:
		writePage(w, kind.MIME, content)

	default:
		writePage(w, "text/plain", content)
	}
}

func writePage(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
