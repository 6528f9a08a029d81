// Package board holds the client-side state of one joined drawing board: the
// rasters, the pending queue, the ack watermark and the room. A Board is not
// safe for concurrent use; a net.Session drives it from a single goroutine.
package board

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"Drawboard/internal/metrics"
	"Drawboard/internal/protocol"
	"Drawboard/internal/reconcile"
	"Drawboard/internal/render"
	"Drawboard/internal/state"
)

var ErrNotReady = errors.New("board: not connected or snapshot not received")

// Hooks connect a Board to its surroundings. Every hook is optional and is
// called on the goroutine that drives the Board.
type Hooks struct {
	// Send writes one frame to the server.
	Send func(frame string) error
	// Display receives a private copy of the display layer after each redraw.
	Display func(img image.Image)
	// Visibility reports whether the drawing surface should be shown.
	Visibility func(visible bool)
	// Alert surfaces a server error message to the user.
	Alert func(text string)
	// Room reports presence or connection changes.
	Room func(room state.Room)
	// Batch reports every applied draw batch.
	Batch func(res reconcile.Result)
}

type Options struct {
	Render render.Options
}

func DefaultOptions() Options {
	return Options{Render: render.DefaultOptions()}
}

type Board struct {
	queue   *state.PendingQueue
	engine  *reconcile.Engine
	comp    *render.Compositor
	tools   *state.ToolSettings
	gesture state.Gesture
	room    state.Room

	awaitingSnapshot bool

	hooks   Hooks
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a board. tools is shared with whatever edits the active tool;
// nil gives the board its own default tool. m may be nil.
func New(opts Options, tools *state.ToolSettings, hooks Hooks, m *metrics.Metrics, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	if tools == nil {
		tools = state.NewToolSettings(state.DefaultTool())
	}
	comp := render.NewCompositor(opts.Render, logger)
	queue := state.NewPendingQueue()
	return &Board{
		queue:   queue,
		engine:  reconcile.NewEngine(comp, queue, logger),
		comp:    comp,
		tools:   tools,
		hooks:   hooks,
		metrics: m,
		logger:  logger,
	}
}

// HandleText processes one inbound text message, which may carry several
// frames.
func (b *Board) HandleText(text string) {
	msgs, err := protocol.DecodeText(text)
	if err != nil {
		b.logger.Warn("Skipping undecodable frames", "error", err)
		b.metrics.AddParseErrors(countJoined(err))
	}
	for _, msg := range msgs {
		b.HandleMessage(msg)
	}
}

// HandleMessage processes one decoded server frame.
func (b *Board) HandleMessage(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.DrawBatch:
		res := b.engine.ApplyBatch(m)
		b.metrics.ObserveBatch(res.Applied, res.Failed, res.Skipped, res.Pruned)
		b.metrics.SetWatermark(b.engine.Watermark())
		b.refresh()
		if b.hooks.Batch != nil {
			b.hooks.Batch(res)
		}
	case protocol.SnapshotHeader:
		b.room.Participants = m.Participants
		b.awaitingSnapshot = true
		b.logger.Debug("Snapshot announced", "participants", m.Participants)
		b.roomChanged()
	case protocol.PresenceChange:
		b.room.ApplyPresence(m.Delta)
		b.roomChanged()
	case protocol.ServerError:
		b.logger.Warn("Server reported an error", "message", m.Text)
		b.metrics.IncServerErrors()
		if b.hooks.Alert != nil {
			b.hooks.Alert(m.Text)
		}
	default:
		b.logger.Warn("Ignoring unexpected message", "type", msg.Type().String())
	}
}

// ExpectingSnapshot reports whether a snapshot header arrived and its image
// has not been taken yet. The next binary message is that image.
func (b *Board) ExpectingSnapshot() bool {
	return b.awaitingSnapshot
}

// TakeSnapshotSlot marks the announced image as received. It reports false if
// no snapshot was announced, in which case the binary message is stray.
func (b *Board) TakeSnapshotSlot() bool {
	if !b.awaitingSnapshot {
		return false
	}
	b.awaitingSnapshot = false
	return true
}

// HandleSnapshot installs a decoded canvas image as the new base. A decode
// error leaves the board as it was.
func (b *Board) HandleSnapshot(img image.Image, decodeErr error) {
	b.metrics.ObserveSnapshot(decodeErr)
	if decodeErr != nil {
		b.logger.Error("Failed to decode snapshot", "error", decodeErr)
		return
	}
	if err := b.comp.LoadSnapshot(img); err != nil {
		b.logger.Error("Failed to load snapshot", "error", err)
		return
	}
	w, h := b.comp.Size()
	b.logger.Info("Snapshot loaded", "width", w, "height", h, "participants", b.room.Participants)
	b.refresh()
	b.visibilityChanged()
}

// HandleLifecycle records a connection state change. Leaving Connected hides
// the surface and drops any gesture in progress; pending operations stay.
func (b *Board) HandleLifecycle(s state.ConnState) {
	if b.room.State == s {
		return
	}
	b.room.State = s
	if s != state.Connected {
		b.gesture.Cancel()
		if b.comp.Visible() {
			b.comp.SetVisible(false)
			b.visibilityChanged()
		}
	}
	b.roomChanged()
}

// Ready reports whether local drawing is accepted.
func (b *Board) Ready() bool {
	return b.room.State == state.Connected && b.comp.Visible()
}

// Submit queues op, sends it and redraws. The operation stays pending even if
// the send fails.
func (b *Board) Submit(op state.DrawOperation) (uint64, error) {
	if !b.Ready() {
		return 0, ErrNotReady
	}
	id := b.queue.Enqueue(op)
	b.metrics.SetPending(b.queue.Len())

	var sendErr error
	if b.hooks.Send != nil {
		sendErr = b.hooks.Send(protocol.EncodeSubmission(id, op))
		if sendErr != nil {
			b.logger.Error("Failed to send operation", "id", id, "error", sendErr)
		} else {
			b.metrics.IncFramesSent(metrics.FrameSubmission)
		}
	}
	b.refresh()
	return id, sendErr
}

func (b *Board) PointerDown(p state.Point) {
	if !b.Ready() {
		return
	}
	b.apply(b.gesture.Begin(p, b.tools.Snapshot()))
}

func (b *Board) PointerMove(p state.Point) {
	if !b.Ready() {
		return
	}
	b.apply(b.gesture.Move(p))
}

func (b *Board) PointerUp(p state.Point) {
	if !b.Ready() {
		return
	}
	b.apply(b.gesture.End(p))
}

// DragEnd finishes a gesture whose final position is unknown.
func (b *Board) DragEnd() {
	if !b.Ready() {
		return
	}
	b.apply(b.gesture.EndAtLast())
}

func (b *Board) apply(res state.GestureResult) {
	for _, op := range res.Submit {
		_, _ = b.Submit(op)
	}
	if res.Preview == nil {
		return
	}
	if err := b.comp.Preview(b.queue, *res.Preview); err != nil {
		b.logger.Warn("Failed to draw preview", "error", err)
		return
	}
	b.publish()
}

func (b *Board) refresh() {
	start := time.Now()
	if err := b.comp.Redraw(b.queue); err != nil {
		b.logger.Error("Redraw failed", "error", err)
		return
	}
	b.metrics.ObserveRedraw(time.Since(start))
	b.publish()
}

func (b *Board) publish() {
	if b.hooks.Display != nil {
		b.hooks.Display(b.comp.DisplayImage())
	}
}

func (b *Board) roomChanged() {
	b.metrics.SetParticipants(b.room.Participants)
	if b.hooks.Room != nil {
		b.hooks.Room(b.room)
	}
}

func (b *Board) visibilityChanged() {
	if b.hooks.Visibility != nil {
		b.hooks.Visibility(b.comp.Visible())
	}
}

func (b *Board) Room() state.Room { return b.room }

func (b *Board) Tools() *state.ToolSettings { return b.tools }

func (b *Board) Watermark() uint64 { return b.engine.Watermark() }

// Pending returns a copy of the pending queue.
func (b *Board) Pending() []state.PendingEntry { return b.queue.Entries() }

func (b *Board) Compositor() *render.Compositor { return b.comp }

// WorkingImage returns a copy of base plus pending operations, without any
// preview.
func (b *Board) WorkingImage() *image.RGBA {
	return b.comp.Working().Image()
}

// Teardown releases the rasters. The board must not be used afterwards.
func (b *Board) Teardown() {
	b.gesture.Cancel()
	_ = b.comp.Close()
}

func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
