// Package ws pushes live events to browsers over websockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"campusdrop/internal/auth"
	"campusdrop/internal/logx"
	"campusdrop/internal/transport/pubsub"
)

// Timings of the connection.
const (
	DefaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	maxFrame            = 4 << 10
)

// Client frame actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Reply acknowledges a ClientFrame.
type Reply struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handler upgrades GET /ws.
type Handler struct {
	verifier     auth.Verifier
	dir          Directory
	broker       *pubsub.Broker
	logger       logx.Logger
	connections  prometheus.Gauge
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// Option configures a Handler.
type Option func(*Handler)

// WithPingInterval overrides DefaultPingInterval.
func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) { h.pingInterval = d }
}

// WithConnectionsGauge tracks open connections.
func WithConnectionsGauge(g prometheus.Gauge) Option {
	return func(h *Handler) { h.connections = g }
}

// NewHandler creates a new Handler.
func NewHandler(v auth.Verifier, dir Directory, broker *pubsub.Broker, logger logx.Logger, opts ...Option) *Handler {
	h := &Handler{
		verifier:     v,
		dir:          dir,
		broker:       broker,
		logger:       logger,
		pingInterval: DefaultPingInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ServeHTTP authenticates before upgrading, so a bad token is a plain 401.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := auth.TokenFromRequest(r)
	actorID, err := h.verifier.Parse(raw)
	if raw == "" || err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws: upgrade failed", logx.Err(err))
		return
	}
	if h.connections != nil {
		h.connections.Inc()
		defer h.connections.Dec()
	}

	s := &session{
		h:       h,
		conn:    conn,
		actorID: actorID,
		sub:     h.broker.NewSubscription(),
		replies: make(chan Reply, 8),
		written: make(chan struct{}),
		logger:  h.logger.With(logx.UUID("actor_id", actorID)),
	}
	s.run(r.Context())
}

type session struct {
	h       *Handler
	conn    *websocket.Conn
	actorID uuid.UUID
	sub     *pubsub.Subscription
	replies chan Reply
	written chan struct{}
	logger  logx.Logger
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	go func() {
		defer close(s.written)
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	cancel()
	topics := len(s.sub.Topics())
	s.sub.Close()
	<-s.written
	_ = s.conn.Close()
	s.logger.Debug("ws: closed", logx.Int("topics", topics))
}

func (s *session) readLoop(ctx context.Context) {
	deadline := 2 * s.h.pingInterval
	s.conn.SetReadLimit(maxFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		var f ClientFrame
		if err := s.conn.ReadJSON(&f); err != nil {
			var (
				syntax *json.SyntaxError
				typ    *json.UnmarshalTypeError
			)
			// an empty frame decodes to io.ErrUnexpectedEOF
			if errors.As(err, &syntax) || errors.As(err, &typ) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.reply(ctx, Reply{Type: "error", Error: "invalid frame"})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("ws: read", logx.Err(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
		s.reply(ctx, s.handle(ctx, f))
	}
}

func (s *session) handle(ctx context.Context, f ClientFrame) Reply {
	switch f.Action {
	case ActionSubscribe:
		if err := Authorize(ctx, s.h.dir, s.actorID, f.Topic); err != nil {
			s.logger.Info("ws: subscribe denied", logx.String("topic", f.Topic), logx.Err(err))
			return Reply{Type: "error", Topic: f.Topic, Error: "subscription denied"}
		}
		s.sub.Subscribe(f.Topic)
		s.logger.Debug("ws: subscribed",
			logx.String("topic", f.Topic),
			logx.Int("subscribers", s.h.broker.Subscribers(f.Topic)),
		)
		return Reply{Type: "subscribed", Topic: f.Topic}
	case ActionUnsubscribe:
		s.sub.Unsubscribe(f.Topic)
		return Reply{Type: "unsubscribed", Topic: f.Topic}
	default:
		return Reply{Type: "error", Error: "unknown action"}
	}
}

func (s *session) reply(ctx context.Context, r Reply) {
	select {
	case s.replies <- r:
	case <-s.written:
	case <-ctx.Done():
	}
}

// writeLoop is the only writer of conn.
func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.h.pingInterval)
	defer ticker.Stop()

	for {
		var v any
		select {
		case <-ctx.Done():
			return
		case r := <-s.replies:
			v = r
		case m, ok := <-s.sub.C():
			if !ok {
				return
			}
			v = m
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("ws: ping failed", logx.Err(err))
				_ = s.conn.Close()
				return
			}
			continue
		}
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(v); err != nil {
			s.logger.Debug("ws: write failed", logx.Err(err))
			_ = s.conn.Close()
			return
		}
	}
}
