package router

import (
	"fmt"
	"html"
	"strings"
)

// Synthesized preview documents. These are the wrappers the router serves
// for content that is not natively renderable inside the preview surface.
// All of them are complete standalone HTML pages served with status 200.

const viewerStyle = `
        body { font-family: system-ui, -apple-system, sans-serif; margin: 0; background: #f5f5f5; }
        .viewer { max-width: 960px; margin: 24px auto; background: white; border-radius: 8px;
                  box-shadow: 0 2px 10px rgba(0,0,0,0.1); overflow: hidden; }
        .viewer-header { display: flex; align-items: center; gap: 10px; padding: 12px 16px;
                         border-bottom: 1px solid #e5e5e5; background: #fafafa; }
        .viewer-path { font-size: 13px; color: #555; font-family: ui-monospace, monospace; }
        .badge { font-size: 11px; font-weight: bold; color: white; background: #007acc;
                 border-radius: 4px; padding: 2px 8px; letter-spacing: 0.5px; }
        pre { margin: 0; padding: 16px; overflow: auto; font-size: 13px;
              font-family: ui-monospace, 'Menlo', 'Monaco', monospace; line-height: 1.5; }
`

const jsonHighlightScript = `
        const src = document.getElementById('src');
        const pattern = /("(\\u[a-fA-F0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?|\b(true|false)\b|\bnull\b|-?\d+(\.\d+)?([eE][+\-]?\d+)?)/g;
        src.innerHTML = src.textContent.replace(pattern, function (match) {
            let cls = 'num';
            if (/^"/.test(match)) {
                cls = /:$/.test(match) ? 'key' : 'str';
            } else if (/true|false/.test(match)) {
                cls = 'bool';
            } else if (/null/.test(match)) {
                cls = 'null';
            }
            return '<span class="' + cls + '">' + match + '</span>';
        });
`

// jsonViewerPage wraps raw JSON in a document that highlights key, string,
// number, boolean, and null tokens client-side. Raw application/json is not
// human-browsable inline in most embedded surfaces, hence the wrapper.
func jsonViewerPage(path string, content []byte) []byte {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>%s
        .key { color: #92278f; } .str { color: #3ab54a; } .num { color: #25aae2; }
        .bool { color: #f98280; } .null { color: #f1592a; }
    </style>
</head>
<body>
    <div class="viewer">
        <div class="viewer-header"><span class="badge">JSON</span><span class="viewer-path">%s</span></div>
        <pre id="src">%s</pre>
    </div>
    <script>%s</script>
</body>
</html>`, html.EscapeString(path), viewerStyle, html.EscapeString(path),
		html.EscapeString(string(content)), jsonHighlightScript)

	return []byte(page)
}

// reactViewerPage loads React and the Babel standalone transpiler from a
// CDN, inlines the component source, and mounts App when the source defines
// one. An undefined App renders nothing but never errors.
func reactViewerPage(path string, content []byte) []byte {
	source := strings.ReplaceAll(string(content), "</script", `<\/script`)

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <script crossorigin src="https://unpkg.com/react@18/umd/react.development.js"></script>
    <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.development.js"></script>
    <script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>
    <style>body { font-family: system-ui, sans-serif; margin: 16px; }</style>
</head>
<body>
    <div id="root"></div>
    <script type="text/babel" data-presets="react,typescript" data-type="module">
%s
        if (typeof App !== 'undefined') {
            ReactDOM.createRoot(document.getElementById('root')).render(<App />);
        }
    </script>
</body>
</html>`, html.EscapeString(path), source)

	return []byte(page)
}

// sourceViewerPage presents source code in a monospace block with an
// extension badge. These files have no renderable form of their own.
func sourceViewerPage(path, lang string, content []byte) []byte {
	badge := strings.ToUpper(fileExt(path))
	if badge == "" {
		badge = "SRC"
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>%s</style>
</head>
<body>
    <div class="viewer">
        <div class="viewer-header"><span class="badge" title="%s">%s</span><span class="viewer-path">%s</span></div>
        <pre><code>%s</code></pre>
    </div>
</body>
</html>`, html.EscapeString(path), viewerStyle, html.EscapeString(lang), badge,
		html.EscapeString(path), html.EscapeString(string(content)))

	return []byte(page)
}

// notFoundPage names the missing path. It is served with status 200 so the
// preview surface never falls back to a browser-native error page, and its
// illustration lives under the server scope (/assets/), not the namespace,
// so it renders regardless of how deep the missing path was.
func notFoundPage(path string) []byte {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Not found</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #f5f5f5;
               display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
        .card { background: white; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);
                padding: 40px; text-align: center; max-width: 480px; }
        .card img { width: 120px; margin-bottom: 16px; }
        .path { font-family: ui-monospace, monospace; color: #c0392b; word-break: break-all; }
        p { color: #666; }
    </style>
</head>
<body>
    <div class="card">
        <img src="/assets/missing.svg" alt="">
        <h1>File not found</h1>
        <p>No file named <span class="path">%s</span> exists in the current preview.</p>
        <p>Save the file or re-run the preview to refresh.</p>
    </div>
</body>
</html>`, html.EscapeString(path))

	return []byte(page)
}
