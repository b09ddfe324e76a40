// internal/httpserver/server.go
//
// HTTP server wiring for the Memory Grid backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, access log, CORS,
//     timeouts on the JSON API).
//   - Browser client: "/" and "/static/*" from the embedded web assets.
//   - Game API: session creation, state, cell selection, key presses.
//   - Live channel: /api/ws pushes every state change and accepts input.
//   - Run journal stats when SQLite is enabled.
//
// Notes:
//   - Every API request is bound to a session through a signed cookie; a
//     missing or invalid cookie starts a new session.
//   - All game timing runs server side; clients only draw the Page they get.

package httpserver

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/robalobadob/memorygrid/internal/clock"
	"github.com/robalobadob/memorygrid/internal/journal"
	"github.com/robalobadob/memorygrid/internal/quiz"
	"github.com/robalobadob/memorygrid/internal/store"
	"github.com/robalobadob/memorygrid/internal/view"
	"github.com/robalobadob/memorygrid/internal/words"
)

// Options configures a Server.
type Options struct {
	Store          store.Store
	Words          *words.Sequence
	Journal        *journal.Store // nil disables /api/stats data
	Web            fs.FS          // browser client; nil serves no page
	Secret         string         // HS256 key for the session cookie
	CookieName     string
	SecureCookies  bool
	AllowedOrigins []string
	Clock          clock.Clock
	Rand           func() *rand.Rand // per-session RNG; nil seeds randomly
	Logger         zerolog.Logger
}

// Server bundles router, session registry and journal.
type Server struct {
	r        *chi.Mux
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.CookieName == "" {
		opts.CookieName = "memorygrid_session"
	}
	s := &Server{r: chi.NewRouter(), opts: opts, log: opts.Logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// --- browser client ---
	s.mountWeb()

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// --- JSON API ---
	s.r.Group(func(r chi.Router) {
		r.Use(s.accessLog())
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Post("/api/session", s.handleNewSession)
		r.Get("/debug/words", s.handleWordStats)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/api/state", s.handleState)
			r.Post("/api/select", s.handleSelect)
			r.Post("/api/key", s.handleKey)
			r.Get("/api/stats", s.handleStats)
		})
	})

	// Long-lived; kept out of the timeout and access-log wrappers.
	s.r.With(s.withSession).Get("/api/ws", s.handleWS)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler exposes the router (used by main and tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// writeError writes a small JSON error body.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// ------------------------------ GAME ---------------------------------------

type sessionRes struct {
	SessionID string    `json:"sessionId"`
	Page      view.Page `json:"page"`
}

// handleNewSession drops the caller's current session, if any, and starts
// a new one at the first word.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if old := s.sessionFromCookie(r); old != "" {
		_ = s.opts.Store.Delete(r.Context(), old)
	}
	sess, err := s.startSession(w, r)
	if err != nil {
		s.log.Error().Err(err).Msg("start session")
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	writeJSON(w, sessionRes{SessionID: sess.ID, Page: view.Build(sess.Snapshot())})
}

// handleState returns the current Page.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Touch()
	writeJSON(w, view.Build(sess.Snapshot()))
}

type selectReq struct {
	Cell *int `json:"cell"`
}

type selectRes struct {
	Outcome quiz.Outcome `json:"outcome"`
	Page    view.Page    `json:"page"`
}

// handleSelect applies a pick of a logical grid cell.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := sessionFrom(r.Context())
	outcome, snap, err := sess.Select(*req.Cell)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, selectRes{Outcome: outcome, Page: view.Build(snap)})
}

type keyReq struct {
	Key string `json:"key"`
}

type keyRes struct {
	Handled bool         `json:"handled"`
	Outcome quiz.Outcome `json:"outcome,omitempty"`
	Page    view.Page    `json:"page"`
}

// handleKey applies a key press; keys other than "1".."9" are ignored.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := sessionFrom(r.Context())
	outcome, snap, handled, err := sess.Key(req.Key)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, keyRes{Handled: handled, Outcome: outcome, Page: view.Build(snap)})
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrInvalidCell):
		writeError(w, http.StatusBadRequest, "invalid_cell")
	default:
		s.log.Error().Err(err).Msg("apply selection")
		writeError(w, http.StatusConflict, "session_closed")
	}
}

// ------------------------------ STATS --------------------------------------

type statsRes struct {
	Enabled bool             `json:"enabled"`
	Mine    *journal.Summary `json:"mine,omitempty"`
	All     *journal.Summary `json:"all,omitempty"`
	Recent  []journal.Run    `json:"recent,omitempty"`
}

// handleStats reports the caller's run history and global totals.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Journal == nil {
		writeJSON(w, statsRes{Enabled: false})
		return
	}
	sess := sessionFrom(r.Context())
	now := s.opts.Clock.Now()

	mine, err := s.opts.Journal.Summary(r.Context(), sess.ID, now)
	if err != nil {
		s.log.Error().Err(err).Msg("journal summary")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	all, err := s.opts.Journal.Summary(r.Context(), "", now)
	if err != nil {
		s.log.Error().Err(err).Msg("journal summary")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	recent, err := s.opts.Journal.Recent(r.Context(), sess.ID, 10)
	if err != nil {
		s.log.Error().Err(err).Msg("journal recent")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, statsRes{Enabled: true, Mine: &mine, All: &all, Recent: recent})
}

// handleWordStats reports the size of the word sequence.
func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	tokens, distinct := s.opts.Words.Stats()
	writeJSON(w, map[string]int{"tokens": tokens, "distinct": distinct})
}
