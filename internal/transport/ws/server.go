package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"blueprints.ai/internal/protocol"
	"blueprints.ai/internal/registry"
	"blueprints.ai/internal/tuning"
)

// Server serves the live placement preview. All sessions share one
// controller; access to it is serialized by mu.
type Server struct {
	mu   sync.Mutex
	ctrl *registry.Controller

	cfg tuning.Server
	log *log.Logger

	nextID   atomic.Int64
	sessions atomic.Int64

	upgrader websocket.Upgrader
}

func NewServer(ctrl *registry.Controller, cfg tuning.Server, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 64
	}
	if cfg.WriteTimeoutMs <= 0 {
		cfg.WriteTimeoutMs = 5000
	}
	s := &Server{
		ctrl: ctrl,
		cfg:  cfg,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// Sessions is the number of connected clients.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

// WithController runs fn while holding the controller lock.
func (s *Server) WithController(fn func(c *registry.Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ctrl)
}

func (s *Server) writeTimeout() time.Duration {
	return time.Duration(s.cfg.WriteTimeoutMs) * time.Millisecond
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if s.cfg.MaxMessageBytes > 0 {
			conn.SetReadLimit(s.cfg.MaxMessageBytes)
		}

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		defer s.sessions.Add(-1)
		s.log.Printf("session %s connected (%s)", sess.id, sess.client)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			var ping <-chan time.Time
			if s.cfg.PingIntervalMs > 0 {
				t := time.NewTicker(time.Duration(s.cfg.PingIntervalMs) * time.Millisecond)
				defer t.Stop()
				ping = t.C
			}
			for {
				select {
				case <-ctx.Done():
					return
				case <-ping:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout())); err != nil {
						cancel()
						_ = conn.Close() // unblocks the reader
						return
					}
				case b, ok := <-sess.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Reader loop.
		readTimeout := 60 * time.Second
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.mu.Lock()
			replies := sess.handle(s.ctrl, msg)
			s.mu.Unlock()
			for _, v := range replies {
				if !sess.send(v) {
					s.log.Printf("session %s: send queue full, dropping", sess.id)
				}
			}
		}
		<-done
		s.log.Printf("session %s closed", sess.id)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, protocol.ErrorMsg{Type: protocol.TypeError, Code: protocol.ErrProtoVersion, Message: "want " + protocol.Version}, s.writeTimeout())
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	sess := &session{
		id:     fmt.Sprintf("S%d", s.nextID.Add(1)),
		client: hello.ClientName,
		out:    make(chan []byte, s.cfg.SendQueue),
	}
	s.mu.Lock()
	welcome := welcomeFor(s.ctrl, sess.id)
	s.mu.Unlock()

	s.sessions.Add(1)
	if err := writeJSON(conn, welcome, s.writeTimeout()); err != nil {
		s.sessions.Add(-1)
		return nil
	}
	return sess
}

func writeJSON(conn *websocket.Conn, v any, timeout time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
