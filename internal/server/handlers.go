package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/loupedev/loupe/internal/router"
)

// missingAssetSVG is served at /assets/missing.svg for not-found pages.
// It lives in the server scope so the preview namespace never has to
// resolve it against the mapping.
const missingAssetSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96" viewBox="0 0 96 96">
  <rect x="8" y="8" width="80" height="80" rx="8" fill="none" stroke="#94a3b8" stroke-width="4" stroke-dasharray="8 6"/>
  <line x1="30" y1="30" x2="66" y2="66" stroke="#94a3b8" stroke-width="4" stroke-linecap="round"/>
  <line x1="66" y1="30" x2="30" y2="66" stroke="#94a3b8" stroke-width="4" stroke-linecap="round"/>
</svg>`

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Loupe - Workspace Preview</title>
    <style>
        * { box-sizing: border-box; }
        body { font-family: system-ui, sans-serif; margin: 0; display: flex; height: 100vh; background: #f8fafc; }
        #sidebar { width: 280px; border-right: 1px solid #e2e8f0; background: #fff; display: flex; flex-direction: column; }
        #sidebar h1 { font-size: 16px; margin: 0; padding: 16px; border-bottom: 1px solid #e2e8f0; }
        #files { flex: 1; overflow-y: auto; margin: 0; padding: 8px 0; list-style: none; }
        #files li { padding: 6px 16px; font-size: 13px; cursor: pointer; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
        #files li:hover { background: #f1f5f9; }
        #files li.selected { background: #e0e7ff; color: #3730a3; }
        #main { flex: 1; display: flex; flex-direction: column; }
        #status { padding: 8px 16px; font-size: 12px; color: #64748b; border-bottom: 1px solid #e2e8f0; background: #fff; }
        #status.connected::before { content: '●'; color: #16a34a; margin-right: 6px; }
        #status.disconnected::before { content: '●'; color: #dc2626; margin-right: 6px; }
        #preview { flex: 1; border: none; background: #fff; }
    </style>
</head>
<body>
    <div id="sidebar">
        <h1>Loupe</h1>
        <ul id="files"></ul>
    </div>
    <div id="main">
        <div id="status" class="disconnected">Connecting...</div>
        <iframe id="preview" src="about:blank"></iframe>
    </div>
    <script>
        let ws = null;
        let reconnectDelay = 1000;
        const status = document.getElementById('status');
        const preview = document.getElementById('preview');
        const fileList = document.getElementById('files');

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onopen = () => {
                status.textContent = 'Connected';
                status.className = 'connected';
                reconnectDelay = 1000;
                loadFiles();
            };
            ws.onmessage = (event) => {
                const msg = JSON.parse(event.data);
                if (msg.type === 'full_reload') {
                    loadFiles();
                    if (preview.src && preview.src !== 'about:blank') {
                        const url = new URL(preview.src);
                        url.searchParams.set('t', Date.now());
                        preview.src = url.toString();
                    }
                } else if (msg.type === 'preview_navigate') {
                    preview.src = msg.target;
                }
            };
            ws.onclose = () => {
                status.textContent = 'Disconnected - retrying...';
                status.className = 'disconnected';
                setTimeout(connect, reconnectDelay);
                reconnectDelay = Math.min(reconnectDelay * 2, 10000);
            };
        }

        let autoOpened = false;

        async function loadFiles() {
            const resp = await fetch('/api/files');
            const data = await resp.json();
            if (!autoOpened && data.selection) {
                autoOpened = true;
                openPreview(data.selection);
            }
            fileList.innerHTML = '';
            for (const f of data.files) {
                const li = document.createElement('li');
                li.textContent = f.path;
                li.title = f.path;
                if (f.path === data.selection) li.className = 'selected';
                li.onclick = () => openPreview(f.path);
                fileList.appendChild(li);
            }
        }

        async function openPreview(path) {
            const resp = await fetch('/api/preview', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({path: path})
            });
            const data = await resp.json();
            preview.src = data.url;
            loadFiles();
        }

        connect();
    </script>
</body>
</html>`

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"files":     s.session.Files().Count(),
		"synced":    s.router.Count(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type fileInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
	Text bool   `json:"text"`
}

func (s *PreviewServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Files().Snapshot()
	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		files = append(files, fileInfo{
			Path: entry.Path,
			Kind: router.Classify(entry.Path).Kind.String(),
			Size: entry.Size,
			Text: entry.Text,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"files":     files,
		"selection": s.session.Selection(),
		"tabs":      s.session.Tabs(),
	})
}

type sessionRequest struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

// handleSession exposes the project session: GET returns the current
// state, POST mutates the selection or the open tab set.
func (s *PreviewServer) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeSessionState(w)
	case http.MethodPost:
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		switch req.Action {
		case "select":
			s.session.Select(req.Path)
		case "open":
			s.session.OpenTab(req.Path)
		case "close":
			s.session.CloseTab(req.Path)
		default:
			http.Error(w, `{"error":"unknown action"}`, http.StatusBadRequest)
			return
		}
		s.writeSessionState(w)
	default:
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *PreviewServer) writeSessionState(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"root":      s.session.Root(),
		"selection": s.session.Selection(),
		"tabs":      s.session.Tabs(),
	})
}

type previewRequest struct {
	Path string `json:"path"`
}

// handlePreview syncs the mapping and returns a fresh preview URL,
// pushing a navigate message to connected surfaces as a side effect.
func (s *PreviewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, `{"error":"path is required"}`, http.StatusBadRequest)
		return
	}

	previewURL := s.RenderPreview(r.Context(), req.Path)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": previewURL})
}

func (s *PreviewServer) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/assets/missing.svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fmt.Fprint(w, missingAssetSVG)
	default:
		http.NotFound(w, r)
	}
}
