// internal/httpserver/ws.go
//
// Live channel for the browser client.
//
// The server pushes {"type":"state","page":...} after every state change,
// including the ones produced by timers (flash end, reveal, reset,
// celebration end). The client sends {"cell":n} for clicks and
// {"key":"5"} for key presses. The session subscription lives exactly as
// long as the connection.

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/memorygrid/internal/quiz"
	"github.com/robalobadob/memorygrid/internal/session"
	"github.com/robalobadob/memorygrid/internal/view"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 512
)

type wsInput struct {
	Cell *int   `json:"cell,omitempty"`
	Key  string `json:"key,omitempty"`
}

type wsOutput struct {
	Type string    `json:"type"`
	Page view.Page `json:"page"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	// The hijacked handshake only carries the headers passed here, so a
	// cookie from a freshly started session must be forwarded.
	var hdr http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		hdr = http.Header{"Set-Cookie": cookies}
	}
	conn, err := s.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("session", sess.ID).Logger()
	log.Debug().Msg("websocket connected")
	defer log.Debug().Msg("websocket closed")

	sub := sess.Subscribe(8)
	defer sub.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.wsWrite(conn, sub)
	}()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in wsInput
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read")
			}
			break
		}
		if err := applyInput(sess, in); err != nil && !errors.Is(err, quiz.ErrInvalidCell) {
			log.Warn().Err(err).Msg("websocket input")
			break
		}
	}

	sub.Close()
	<-writerDone
}

// applyInput routes one client message to the session.
func applyInput(sess *session.Session, in wsInput) error {
	switch {
	case in.Cell != nil:
		_, _, err := sess.Select(*in.Cell)
		return err
	case in.Key != "":
		_, _, _, err := sess.Key(in.Key)
		return err
	}
	return nil
}

// wsWrite forwards snapshots until the subscription closes or a write
// fails. It is the only goroutine writing to conn.
func (s *Server) wsWrite(conn *websocket.Conn, sub *session.Subscription) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	defer conn.Close() // unblocks the reader after a write error

	for {
		select {
		case snap, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(wsOutput{Type: "state", Page: view.Build(snap)}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
