package httpserver

import (
	"net/http"
)

// mountWeb serves the embedded browser client: the page at "/" and its
// scripts and styles under /static/.
func (s *Server) mountWeb() {
	if s.opts.Web == nil {
		s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"service":   "memorygrid",
				"endpoints": []string{"/health", "POST /api/session", "GET /api/state", "POST /api/select", "POST /api/key", "GET /api/ws", "GET /api/stats"},
			})
		})
		return
	}

	files := http.FileServer(http.FS(s.opts.Web))
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, s.opts.Web, "index.html")
	})
	s.r.Handle("/static/*", http.StripPrefix("/static/", files))
}
