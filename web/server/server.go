package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

// Server exposes a browser preview: the client opens a websocket, the
// server renders a scene and streams progress snapshots as tiles finish.
type Server struct {
	port     int
	upgrader websocket.Upgrader
}

// NewServer creates a preview server on the given port
func NewServer(port int) *Server {
	return &Server{
		port: port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
		},
	}
}

// Start registers the routes and serves until the listener fails
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleRenderSocket)

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("preview server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

// handleRenderSocket upgrades to a websocket and runs one render session
func (s *Server) handleRenderSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	query := r.URL.Query()
	request := RenderRequest{
		Scene:   query.Get("scene"),
		Width:   queryInt(query.Get("width"), 400),
		Height:  queryInt(query.Get("height"), 400),
		Samples: queryInt(query.Get("spp"), 32),
		Depth:   queryInt(query.Get("depth"), 8),
	}

	if err := runRenderSession(r.Context(), conn, request); err != nil {
		log.Printf("render session ended: %v", err)
	}
}

func queryInt(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>Path Tracer Preview</title></head>
<body style="background:#111;color:#ddd;font-family:monospace">
<h3>Path Tracer Preview</h3>
<div>
  <select id="scene">
    <option value="cornell">cornell</option>
    <option value="sphere">sphere</option>
  </select>
  <button onclick="start()">Render</button>
  <span id="status"></span>
</div>
<img id="preview" width="400" height="400" style="image-rendering:pixelated;margin-top:8px">
<script>
function start() {
  const scene = document.getElementById('scene').value;
  const ws = new WebSocket('ws://' + location.host + '/ws?scene=' + scene);
  ws.onmessage = (ev) => {
    const msg = JSON.parse(ev.data);
    if (msg.imageData) {
      document.getElementById('preview').src = 'data:image/png;base64,' + msg.imageData;
    }
    document.getElementById('status').textContent =
      msg.tilesDone + '/' + msg.tilesTotal + ' tiles, ' + msg.elapsedMs + 'ms';
  };
}
</script>
</body>
</html>`
