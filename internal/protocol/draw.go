package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"Drawboard/internal/state"
)

const (
	opFieldCount    = 10
	entryFieldCount = opFieldCount + 1

	maxThickness = 100.0
)

// BatchEntry is one confirmed operation of a draw batch. AckID is the highest
// id of ours the server had processed when it queued the entry; it may repeat
// within a batch and the operation may come from any participant.
type BatchEntry struct {
	AckID uint64
	Op    state.DrawOperation
}

// ClientMessage is a decoded client frame: either a heartbeat or a submission.
type ClientMessage struct {
	Heartbeat bool
	ID        uint64
	Op        state.DrawOperation
}

// ParseBatch parses the payload of a draw frame. Malformed entries are
// skipped and returned as errors; well-formed entries keep batch order.
func ParseBatch(payload string) ([]BatchEntry, []error) {
	var (
		entries []BatchEntry
		errs    []error
	)
	for i, raw := range strings.Split(payload, EntrySeparator) {
		e, err := ParseEntry(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

// ParseEntry parses "ackId,tool,r,g,b,a,thickness,x1,y1,x2,y2".
func ParseEntry(raw string) (BatchEntry, error) {
	fields := strings.Split(raw, FieldSeparator)
	if len(fields) != entryFieldCount {
		return BatchEntry{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedEntry, entryFieldCount, len(fields))
	}
	ack, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return BatchEntry{}, fmt.Errorf("%w: invalid ack id %q", ErrMalformedEntry, fields[0])
	}
	op, err := parseOperationFields(fields[1:])
	if err != nil {
		return BatchEntry{}, err
	}
	return BatchEntry{AckID: ack, Op: op}, nil
}

// ParseOperation parses "tool,r,g,b,a,thickness,x1,y1,x2,y2".
func ParseOperation(raw string) (state.DrawOperation, error) {
	fields := strings.Split(raw, FieldSeparator)
	if len(fields) != opFieldCount {
		return state.DrawOperation{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedEntry, opFieldCount, len(fields))
	}
	return parseOperationFields(fields)
}

func parseOperationFields(f []string) (state.DrawOperation, error) {
	var op state.DrawOperation

	kind, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil || !state.ToolKind(kind).Valid() {
		return op, fmt.Errorf("%w: invalid tool %q", ErrMalformedEntry, f[0])
	}
	op.Tool = state.ToolKind(kind)

	var rgba [4]uint8
	for i := range rgba {
		v, err := strconv.ParseUint(strings.TrimSpace(f[1+i]), 10, 8)
		if err != nil {
			return op, fmt.Errorf("%w: invalid color component %q", ErrMalformedEntry, f[1+i])
		}
		rgba[i] = uint8(v)
	}
	op.Color = state.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}

	op.Thickness, err = parseFloat(f[5])
	if err != nil || op.Thickness < 0 || op.Thickness > maxThickness {
		return op, fmt.Errorf("%w: thickness %q out of range", ErrMalformedEntry, f[5])
	}

	var xy [4]float64
	for i := range xy {
		xy[i], err = parseFloat(f[6+i])
		if err != nil {
			return op, fmt.Errorf("%w: invalid coordinate %q", ErrMalformedEntry, f[6+i])
		}
	}
	op.Start = state.Point{X: xy[0], Y: xy[1]}
	op.End = state.Point{X: xy[2], Y: xy[3]}

	return op, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

// FormatOperation writes "tool,r,g,b,a,thickness,x1,y1,x2,y2".
func FormatOperation(op state.DrawOperation) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(op.Tool)))
	for _, c := range [...]uint8{op.Color.R, op.Color.G, op.Color.B, op.Color.A} {
		b.WriteString(FieldSeparator)
		b.WriteString(strconv.Itoa(int(c)))
	}
	for _, v := range [...]float64{op.Thickness, op.Start.X, op.Start.Y, op.End.X, op.End.Y} {
		b.WriteString(FieldSeparator)
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}

// EncodeSubmission produces the outbound frame for a locally submitted
// operation: "1<id>|<operation>".
func EncodeSubmission(id uint64, op state.DrawOperation) string {
	return string(FrameSubmission) + strconv.FormatUint(id, 10) + EntrySeparator + FormatOperation(op)
}

// EncodeHeartbeat produces the keep-alive frame.
func EncodeHeartbeat() string {
	return string(FrameHeartbeat)
}

// DecodeClient decodes a client frame. Used by the server side of tests.
func DecodeClient(raw string) (ClientMessage, error) {
	if raw == "" {
		return ClientMessage{}, ErrEmptyFrame
	}
	switch FrameType(raw[0]) {
	case FrameHeartbeat:
		return ClientMessage{Heartbeat: true}, nil
	case FrameSubmission:
		idPart, opPart, ok := strings.Cut(raw[1:], EntrySeparator)
		if !ok {
			return ClientMessage{}, fmt.Errorf("%w: missing %q", ErrMalformedFrame, EntrySeparator)
		}
		id, err := strconv.ParseUint(idPart, 10, 64)
		if err != nil {
			return ClientMessage{}, fmt.Errorf("%w: invalid id %q", ErrMalformedFrame, idPart)
		}
		op, err := ParseOperation(opPart)
		if err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{ID: id, Op: op}, nil
	default:
		return ClientMessage{}, fmt.Errorf("%w: %q", ErrUnknownFrame, raw[0])
	}
}
