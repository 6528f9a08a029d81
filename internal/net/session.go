package net

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"Drawboard/internal/board"
	"Drawboard/internal/metrics"
	"Drawboard/internal/protocol"
	"Drawboard/internal/render"
	"Drawboard/internal/state"
)

type Settings struct {
	// Heartbeat is how often the keep-alive frame is sent while connected.
	Heartbeat        time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// EventBuffer bounds the queue of events waiting for the session
	// goroutine.
	EventBuffer int
	Board       board.Options
}

func DefaultSettings() Settings {
	return Settings{
		Heartbeat:        30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		EventBuffer:      64,
		Board:            board.DefaultOptions(),
	}
}

type inbound struct {
	messageType int
	data        []byte
	err         error
}

// Session is one join of a drawing board. Run owns the connection and the
// Board: every board mutation, every write and the heartbeat happen on the
// Run goroutine. Other goroutines reach the board only through Post.
type Session struct {
	id       string
	url      string
	settings Settings
	board    *board.Board
	conn     *Conn

	// While a snapshot is being decoded, later messages wait in held so
	// they apply on top of the new base.
	decoding bool
	held     []inbound

	events    chan func(*board.Board)
	inbound   chan inbound
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	runOnce   sync.Once

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSession prepares a session for serverURL. hooks.Send is replaced by the
// session's own writer; the other hooks are passed to the board and run on the
// session goroutine.
func NewSession(serverURL string, settings Settings, tools *state.ToolSettings, hooks board.Hooks, m *metrics.Metrics, logger *slog.Logger) (*Session, error) {
	wsURL, err := NormalizeURL(serverURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if settings.EventBuffer <= 0 {
		settings.EventBuffer = DefaultSettings().EventBuffer
	}

	id := uuid.NewString()
	logger = logger.With("session_id", id)

	s := &Session{
		id:       id,
		url:      wsURL,
		settings: settings,
		events:   make(chan func(*board.Board), settings.EventBuffer),
		inbound:  make(chan inbound, settings.EventBuffer),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		metrics:  m,
		logger:   logger,
	}
	hooks.Send = s.send
	s.board = board.New(settings.Board, tools, hooks, m, logger)
	return s, nil
}

func (s *Session) ID() string  { return s.id }
func (s *Session) URL() string { return s.url }

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Post queues fn to run on the session goroutine. It reports false if the
// session has already ended.
func (s *Session) Post(fn func(*board.Board)) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) PointerDown(p state.Point) {
	s.Post(func(b *board.Board) { b.PointerDown(p) })
}

func (s *Session) PointerMove(p state.Point) {
	s.Post(func(b *board.Board) { b.PointerMove(p) })
}

func (s *Session) PointerUp(p state.Point) {
	s.Post(func(b *board.Board) { b.PointerUp(p) })
}

func (s *Session) DragEnd() {
	s.Post(func(b *board.Board) { b.DragEnd() })
}

// Close asks Run to send a close frame and return. It does not wait.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Run connects and processes events until the connection fails, ctx is done
// or Close is called. It returns nil when the session was closed locally. The
// board is torn down when Run returns. Run may only be called once.
func (s *Session) Run(ctx context.Context) error {
	err := fmt.Errorf("session %s already ran", s.id)
	s.runOnce.Do(func() {
		err = s.run(ctx)
	})
	return err
}

func (s *Session) run(ctx context.Context) error {
	defer close(s.done)
	defer s.board.Teardown()

	s.board.HandleLifecycle(state.Connecting)
	s.logger.Info("Connecting", "url", s.url)

	conn, err := Dial(ctx, s.url, s.settings)
	if err != nil {
		s.logger.Error("Failed to connect", "url", s.url, "error", err)
		s.board.HandleLifecycle(state.Disconnected)
		return err
	}
	s.conn = conn
	s.board.HandleLifecycle(state.Connected)
	s.logger.Info("Connected", "url", s.url)

	go s.readLoop(conn)

	heartbeat := time.NewTicker(s.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case <-s.closing:
			s.shutdown()
			return nil
		case <-heartbeat.C:
			if err := s.send(protocol.EncodeHeartbeat()); err != nil {
				s.logger.Error("Failed to send heartbeat", "error", err)
				return s.fail(err)
			}
			s.metrics.IncFramesSent(metrics.FrameHeartbeat)
		case in := <-s.inbound:
			if in.err != nil {
				return s.fail(in.err)
			}
			s.handleInbound(in)
		case fn := <-s.events:
			fn(s.board)
		}
	}
}

func (s *Session) heartbeatInterval() time.Duration {
	if s.settings.Heartbeat > 0 {
		return s.settings.Heartbeat
	}
	return DefaultSettings().Heartbeat
}

func (s *Session) readLoop(conn *Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		select {
		case s.inbound <- inbound{messageType: messageType, data: data, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) handleInbound(in inbound) {
	if s.decoding {
		s.held = append(s.held, in)
		return
	}
	switch in.messageType {
	case websocket.TextMessage:
		s.logger.Debug("Received frames", "bytes", len(in.data))
		s.board.HandleText(string(in.data))
	case websocket.BinaryMessage:
		if !s.board.TakeSnapshotSlot() {
			s.logger.Warn("Ignoring unexpected binary message", "bytes", len(in.data))
			return
		}
		s.decoding = true
		go s.decodeSnapshot(in.data)
	}
}

// decodeSnapshot runs off the session goroutine and posts its result back.
func (s *Session) decodeSnapshot(data []byte) {
	img, err := render.DecodeSnapshot(data)
	s.Post(func(b *board.Board) {
		b.HandleSnapshot(img, err)
		s.releaseHeld()
	})
}

func (s *Session) releaseHeld() {
	s.decoding = false
	held := s.held
	s.held = nil
	for i, in := range held {
		s.handleInbound(in)
		if s.decoding {
			// Another snapshot; the rest waits for it.
			s.held = held[i+1:]
			return
		}
	}
}

func (s *Session) send(frame string) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.WriteText(frame); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *Session) fail(err error) error {
	if isNormalClose(err) {
		s.logger.Info("Server closed the connection", "reason", err)
	} else {
		s.logger.Error("Connection lost", "error", err)
	}
	_ = s.conn.ws.Close()
	s.conn = nil
	s.board.HandleLifecycle(state.Disconnected)
	return fmt.Errorf("connection to %s: %w", s.url, err)
}

func (s *Session) shutdown() {
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("Close", "error", err)
	}
	s.conn = nil
	s.board.HandleLifecycle(state.Closed)
	s.logger.Info("Left board")
}

// Snapshot returns a copy of the working layer, base plus pending operations.
// It blocks until the session goroutine answers or ctx is done.
func (s *Session) Snapshot(ctx context.Context) (image.Image, error) {
	reply := make(chan image.Image, 1)
	if !s.Post(func(b *board.Board) { reply <- b.WorkingImage() }) {
		return nil, ErrNotConnected
	}
	select {
	case img := <-reply:
		return img, nil
	case <-s.done:
		select {
		case img := <-reply:
			return img, nil
		default:
			return nil, ErrNotConnected
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
