// Package reconcile folds server-confirmed draw batches into the local board:
// every confirmed operation goes onto the base raster and acknowledged
// submissions leave the pending queue.
package reconcile

import (
	"log/slog"

	"Drawboard/internal/protocol"
	"Drawboard/internal/state"
)

// BaseRasterizer draws confirmed operations onto the base layer.
type BaseRasterizer interface {
	ApplyConfirmed(op state.DrawOperation) error
}

// Result summarizes one applied batch.
type Result struct {
	Applied int    // entries drawn onto the base
	Failed  int    // entries the rasterizer rejected
	Skipped int    // malformed entries that never reached the rasterizer
	MaxAck  uint64 // highest ack id in the batch, 0 for an empty batch
	Pruned  int    // pending entries removed by this batch
}

// Engine applies draw batches. Like the queue it prunes, it belongs to a
// single goroutine.
type Engine struct {
	base      BaseRasterizer
	queue     *state.PendingQueue
	watermark uint64
	logger    *slog.Logger
}

func NewEngine(base BaseRasterizer, queue *state.PendingQueue, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{base: base, queue: queue, logger: logger}
}

// Watermark is the highest ack id seen so far. It never decreases.
func (e *Engine) Watermark() uint64 {
	return e.watermark
}

// ApplyBatch draws every entry of the batch onto the base in order, whoever
// authored it, then prunes the pending queue up to the batch's highest ack.
//
// The base is a raster, so a redelivered batch is drawn twice.
func (e *Engine) ApplyBatch(batch protocol.DrawBatch) Result {
	res := Result{Skipped: len(batch.Invalid)}
	for _, err := range batch.Invalid {
		e.logger.Warn("Skipping malformed draw entry", "error", err)
	}

	for _, entry := range batch.Entries {
		if err := e.base.ApplyConfirmed(entry.Op); err != nil {
			e.logger.Warn("Failed to rasterize confirmed operation", "ack", entry.AckID, "tool", entry.Op.Tool, "error", err)
			res.Failed++
		} else {
			res.Applied++
		}
		res.MaxAck = max(res.MaxAck, entry.AckID)
	}

	if res.MaxAck > e.watermark {
		res.Pruned = e.queue.PruneUpTo(res.MaxAck)
		e.watermark = res.MaxAck
	}

	e.logger.Debug("Applied draw batch",
		"applied", res.Applied,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"max_ack", res.MaxAck,
		"pruned", res.Pruned,
		"watermark", e.watermark,
		"pending", e.queue.Len(),
	)
	return res
}
