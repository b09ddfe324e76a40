// internal/httpserver/middleware.go
//
// Session binding and access logging.
//
// The session cookie is an HS256 JWT whose "sid" claim names a live
// session in the store. The token only proves the server issued the id;
// the session itself lives in memory and disappears on restart, in which
// case the request silently starts a new one.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/memorygrid/internal/session"
)

const cookieTTL = 30 * 24 * time.Hour

type ctxSessionKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(ctxSessionKey{}).(*session.Session)
	return s
}

// withSession resolves the caller's session, starting one if needed.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if id := s.sessionFromCookie(r); id != "" {
			sess, _ = s.opts.Store.Get(r.Context(), id)
		}
		if sess == nil {
			var err error
			sess, err = s.startSession(w, r)
			if err != nil {
				s.log.Error().Err(err).Msg("start session")
				writeError(w, http.StatusInternalServerError, "session_failed")
				return
			}
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// startSession creates and registers a session and sets its cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	opts := session.Options{
		Clock:  s.opts.Clock,
		Logger: s.log,
	}
	if s.opts.Rand != nil {
		opts.Rand = s.opts.Rand()
	}
	if s.opts.Journal != nil {
		opts.Recorder = s.opts.Journal
	}
	sess, err := session.New(uuid.NewString(), s.opts.Words, opts)
	if err != nil {
		return nil, err
	}
	if err := s.opts.Store.Save(r.Context(), sess); err != nil {
		sess.Close()
		return nil, err
	}
	tok, exp, err := s.signSession(sess.ID)
	if err != nil {
		_ = s.opts.Store.Delete(r.Context(), sess.ID)
		return nil, err
	}
	s.setSessionCookie(w, tok, exp)
	s.log.Info().Str("session", sess.ID).Msg("session started")
	return sess, nil
}

// signSession creates the cookie token for a session id.
func (s *Server) signSession(id string) (string, time.Time, error) {
	now := s.opts.Clock.Now()
	exp := now.Add(cookieTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.Secret))
	return ss, exp, err
}

// sessionFromCookie returns the session id carried by a valid cookie.
func (s *Server) sessionFromCookie(r *http.Request) string {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	id, err := s.parseSession(c.Value)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("rejected session cookie")
		return ""
	}
	return id
}

var errNoSessionID = errors.New("token has no session id")

func (s *Server) parseSession(token string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Clock.Now))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	id, _ := claims["sid"].(string)
	if id == "" {
		return "", errNoSessionID
	}
	return id, nil
}

// setSessionCookie writes the session cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// checkOrigin accepts same-host websocket upgrades and configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// accessLog attaches the server logger to the request and logs one line
// per request.
func (s *Server) accessLog() func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(s.log)
	access := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})
	return func(next http.Handler) http.Handler {
		return withLogger(access(next))
	}
}
