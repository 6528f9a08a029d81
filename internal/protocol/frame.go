// Package protocol implements the drawboard wire format.
//
// Text frames carry one type character followed by a payload. Several frames
// may share one websocket message, separated by ';'. The server sends:
//
//	0<message>   error, shown to the user
//	1<batch>     draw batch: entries separated by '|', each
//	             "ackId,tool,r,g,b,a,thickness,x1,y1,x2,y2"
//	2<count>     participant count; the next binary message is the canvas image
//	3+ / 3-      a participant joined / left
//
// The client sends "1<id>|tool,r,g,b,a,thickness,x1,y1,x2,y2" per operation
// and "0" as a keep-alive.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FrameType is the leading character of a text frame.
type FrameType byte

// Server to client.
const (
	FrameError    FrameType = '0'
	FrameDraw     FrameType = '1'
	FrameSnapshot FrameType = '2'
	FramePresence FrameType = '3'
)

// Client to server.
const (
	FrameHeartbeat  FrameType = '0'
	FrameSubmission FrameType = '1'
)

const (
	FrameSeparator = ";"
	EntrySeparator = "|"
	FieldSeparator = ","
)

func (ft FrameType) String() string {
	switch ft {
	case FrameError:
		return "Error"
	case FrameDraw:
		return "Draw"
	case FrameSnapshot:
		return "Snapshot"
	case FramePresence:
		return "Presence"
	default:
		return fmt.Sprintf("Unknown(%q)", byte(ft))
	}
}

var (
	ErrEmptyFrame     = errors.New("protocol: empty frame")
	ErrUnknownFrame   = errors.New("protocol: unknown frame type")
	ErrMalformedFrame = errors.New("protocol: malformed frame")
	ErrMalformedEntry = errors.New("protocol: malformed draw entry")
)

// Message is one decoded server frame.
type Message interface {
	Type() FrameType
}

// ServerError is a human readable, non-fatal error from the server.
type ServerError struct {
	Text string
}

func (ServerError) Type() FrameType { return FrameError }

func (e ServerError) Error() string { return "server: " + e.Text }

// DrawBatch is an ordered batch of confirmed operations. Entries that failed
// to parse are left out of Entries and reported in Invalid; they never spoil
// the rest of the batch.
type DrawBatch struct {
	Entries []BatchEntry
	Invalid []error
}

func (DrawBatch) Type() FrameType { return FrameDraw }

// SnapshotHeader announces the participant count. The canvas image follows
// as the next binary message.
type SnapshotHeader struct {
	Participants int
}

func (SnapshotHeader) Type() FrameType { return FrameSnapshot }

// PresenceChange adjusts the participant count by Delta (+1 or -1).
type PresenceChange struct {
	Delta int
}

func (PresenceChange) Type() FrameType { return FramePresence }

// DecodeText decodes every frame of one text message. Frames that cannot be
// decoded are skipped; their errors are joined into the returned error while
// the good frames are still returned, in order.
func DecodeText(text string) ([]Message, error) {
	var (
		msgs []Message
		errs []error
	)
	for _, raw := range strings.Split(text, FrameSeparator) {
		if raw == "" {
			continue
		}
		msg, err := DecodeFrame(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, errors.Join(errs...)
}

// DecodeFrame decodes a single server frame.
func DecodeFrame(raw string) (Message, error) {
	if raw == "" {
		return nil, ErrEmptyFrame
	}
	payload := raw[1:]

	switch FrameType(raw[0]) {
	case FrameError:
		return ServerError{Text: payload}, nil
	case FrameDraw:
		entries, invalid := ParseBatch(payload)
		return DrawBatch{Entries: entries, Invalid: invalid}, nil
	case FrameSnapshot:
		n, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: participant count %q", ErrMalformedFrame, payload)
		}
		return SnapshotHeader{Participants: n}, nil
	case FramePresence:
		switch payload {
		case "+":
			return PresenceChange{Delta: 1}, nil
		case "-":
			return PresenceChange{Delta: -1}, nil
		}
		return nil, fmt.Errorf("%w: presence %q", ErrMalformedFrame, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, raw[0])
	}
}

// EncodeError, EncodeSnapshotHeader, EncodePresence and EncodeBatch produce
// server frames. The client never sends them; they exist for tools and tests
// that play the server side.

func EncodeError(text string) string {
	return string(FrameError) + text
}

func EncodeSnapshotHeader(participants int) string {
	return string(FrameSnapshot) + strconv.Itoa(participants)
}

func EncodePresence(joined bool) string {
	if joined {
		return string(FramePresence) + "+"
	}
	return string(FramePresence) + "-"
}

func EncodeBatch(entries []BatchEntry) string {
	var b strings.Builder
	b.WriteByte(byte(FrameDraw))
	for i, e := range entries {
		if i > 0 {
			b.WriteString(EntrySeparator)
		}
		b.WriteString(strconv.FormatUint(e.AckID, 10))
		b.WriteString(FieldSeparator)
		b.WriteString(FormatOperation(e.Op))
	}
	return b.String()
}

// JoinFrames packs several frames into one text message.
func JoinFrames(frames ...string) string {
	return strings.Join(frames, FrameSeparator)
}
