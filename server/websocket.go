package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"modcalc/host"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The form is served on the same host.
		return r.Header.Get("Origin") == "" || sameOrigin(r)
	},
}

// clientMessage is an event from the form page
type clientMessage struct {
	Type    string `json:"type"`              // "select" or "input"
	Variant string `json:"variant,omitempty"` // select
	Field   string `json:"field,omitempty"`   // input
	Value   string `json:"value"`             // input
}

// serverMessage is pushed to the form page; state fields are inlined
type serverMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	*host.Snapshot
	Error string `json:"error,omitempty"`
}

func stateMessage(sess *host.Session) serverMessage {
	snap := sess.Snapshot()
	return serverMessage{Type: "state", SessionID: sess.ID(), Snapshot: &snap}
}

// handleWebSocket runs one form session. Events are read and applied one at
// a time, and the new state is written before the next read.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	sess := s.newSession(s.opts.DefaultVariant)
	s.metrics.sessionsActive.Inc()
	defer s.metrics.sessionsActive.Dec()
	log.Printf("Form session %s opened from %s", sess.ID(), r.RemoteAddr)
	defer log.Printf("Form session %s closed", sess.ID())

	if err := send(conn, stateMessage(sess)); err != nil {
		log.Printf("Form session %s: write failed: %v", sess.ID(), err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("Form session %s: read failed: %v", sess.ID(), err)
			}
			return
		}

		reply := s.apply(sess, data)
		if err := send(conn, reply); err != nil {
			log.Printf("Form session %s: write failed: %v", sess.ID(), err)
			return
		}
	}
}

// apply decodes one event, applies it to the session and returns the reply.
func (s *Server) apply(sess *host.Session, data []byte) serverMessage {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.metrics.event("malformed")
		return serverMessage{Type: "error", SessionID: sess.ID(), Error: fmt.Sprintf("malformed message: %v", err)}
	}

	var err error
	switch msg.Type {
	case "select":
		s.metrics.event(msg.Type)
		err = sess.Select(msg.Variant)
	case "input":
		s.metrics.event(msg.Type)
		err = sess.Set(msg.Field, msg.Value)
	default:
		s.metrics.event("unknown")
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		return serverMessage{Type: "error", SessionID: sess.ID(), Error: err.Error()}
	}
	return stateMessage(sess)
}

func send(conn *websocket.Conn, msg serverMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
