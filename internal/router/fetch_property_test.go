//go:build property
// +build property

package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/loupedev/loupe/internal/registry"
)

// TestFetchProperties exercises the router's serving invariants over
// arbitrary paths and contents.
func TestFetchProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: every synced path serves exactly its stored content when
	// requested as a sub-resource, with a 200 status.
	properties.Property("raw serving fidelity", prop.ForAll(
		func(name string, content string) bool {
			if name == "" || strings.ContainsAny(name, "/\x00?#%") {
				return true // Skip paths the mapping would never contain
			}
			path := name + ".bin.dat"

			pr := NewPreviewRouter("/preview/", nil)
			pr.setFiles(SetFilesMessage{Entries: []registry.FileEntry{
				{Path: path, Content: []byte(content)},
			}})

			req := httptest.NewRequest(http.MethodGet, "/preview/"+url.PathEscape(path), nil)
			rec := httptest.NewRecorder()
			pr.ServeHTTP(rec, req)

			resp := rec.Result()
			defer resp.Body.Close()
			got, err := io.ReadAll(resp.Body)

			return err == nil &&
				resp.StatusCode == http.StatusOK &&
				string(got) == content
		},
		gen.AlphaString(),
		gen.AnyString(),
	))

	// Property: every absent path produces a 200 page whose body names the
	// path and never leaks raw content.
	properties.Property("not-found names the path", prop.ForAll(
		func(name string) bool {
			if name == "" || strings.ContainsAny(name, "/\x00?#%<>&") {
				return true
			}

			pr := NewPreviewRouter("/preview/", nil)
			pr.setFiles(SetFilesMessage{Entries: nil})

			req := httptest.NewRequest(http.MethodGet, "/preview/"+url.PathEscape(name), nil)
			rec := httptest.NewRecorder()
			pr.ServeHTTP(rec, req)

			resp := rec.Result()
			defer resp.Body.Close()
			got, err := io.ReadAll(resp.Body)

			return err == nil &&
				resp.StatusCode == http.StatusOK &&
				strings.Contains(string(got), name)
		},
		gen.AlphaString(),
	))

	// Property: classification is total and stable for any path.
	properties.Property("kind dispatch totality", prop.ForAll(
		func(path string) bool {
			k := Classify(path)
			if k.MIME == "" {
				return false
			}
			return k.Kind >= KindHTML && k.Kind <= KindBinary &&
				k == Classify(path)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
