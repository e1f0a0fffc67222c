// Package upload sends a remapped table to a sink in fixed-size batches.
//
// Batches are independent: a rejected batch is counted as failed and the run
// moves on. Only errors the sink marks as fatal (unreachable or unauthorized)
// stop the run.
package upload

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/metrics"
	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

// DefaultBatchSize is the number of rows sent per Insert call.
const DefaultBatchSize = 1000

// metricsJob labels every metric emitted by this package.
const metricsJob = "upload"

// BatchError describes one rejected batch.
type BatchError struct {
	Batch    int    `json:"batch"`
	FirstRow int    `json:"first_row"`
	Rows     int    `json:"rows"`
	Error    string `json:"error"`
	Code     string `json:"code"`
	// Hint is the operator message for errors with a known cause.
	Hint string `json:"hint,omitempty"`
}

// Report summarizes an upload run.
type Report struct {
	Collection string        `json:"collection"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Batches    int           `json:"batches"`
	Errors     []BatchError  `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Uploader drives batch uploads to a Sink.
type Uploader struct {
	Sink sink.Sink
	// BatchSize defaults to DefaultBatchSize when zero or negative.
	BatchSize int
	// HashColumn, when set, adds an xxh3 hex digest of each row under this
	// column and sends it as the conflict column, so re-runs skip rows that
	// were already loaded.
	HashColumn string
}

// New returns an Uploader with default settings.
func New(s sink.Sink) *Uploader {
	return &Uploader{Sink: s, BatchSize: DefaultBatchSize}
}

// Upload sends every row of t to collection. The returned error is non-nil
// only for fatal sink errors and cancellation; per-batch rejections are
// reported in Report.Errors.
func (u *Uploader) Upload(ctx context.Context, t *core.Table, collection string) (rep Report, err error) {
	start := time.Now()
	log := logging.WithFields(ctx, "collection", collection)

	rep = Report{Collection: collection, Attempted: t.RowCount()}
	defer func() {
		rep.Duration = time.Since(start)
		metrics.RecordStep(metricsJob, "upload", err, rep.Duration)
		metrics.RecordRows(metricsJob, "uploaded", rep.Succeeded)
		metrics.RecordRows(metricsJob, "failed", rep.Failed)
		log.Info("upload finished",
			"attempted", rep.Attempted,
			"succeeded", rep.Succeeded,
			"failed", rep.Failed,
			"batches", rep.Batches,
			"duration", rep.Duration,
		)
	}()

	if err := t.Validate(); err != nil {
		return rep, fmt.Errorf("upload %s: %w", collection, err)
	}
	if err := u.Sink.Ping(ctx); err != nil {
		// Nothing is sent, so every row counts as failed.
		rep.Failed = rep.Attempted
		log.Error("sink not reachable", "error", err, "code", core.MapError(err).Code)
		return rep, fmt.Errorf("upload %s: %w", collection, err)
	}

	size := u.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	columns := t.Names()
	var conflict []string
	if u.HashColumn != "" {
		columns = append(columns, u.HashColumn)
		conflict = []string{u.HashColumn}
	}

	total := t.RowCount()
	for first, n := 0, 1; first < total; first, n = first+size, n+1 {
		if err := ctx.Err(); err != nil {
			rep.Failed += total - first
			log.Warn("upload cancelled", "remaining", total-first)
			return rep, err
		}
		last := min(first+size, total)

		b := sink.Batch{
			Columns:         columns,
			Rows:            u.rows(t, first, last),
			ConflictColumns: conflict,
		}
		rep.Batches++
		blog := log.With("batch", n, "rows", b.Len(), "first_row", first)

		if err := u.Sink.Insert(ctx, collection, b); err != nil {
			rep.Failed += b.Len()
			metrics.RecordBatch(metricsJob, "failure")

			msg := core.MapError(err)
			be := BatchError{
				Batch:    n,
				FirstRow: first,
				Rows:     b.Len(),
				Error:    err.Error(),
				Code:     msg.Code,
			}
			if core.IsUserFacing(err) {
				be.Hint = core.FormatUserError(err)
			}
			rep.Errors = append(rep.Errors, be)
			blog.Error("batch rejected", "error", err, "code", msg.Code, "hint", msg.Action)

			if sink.IsFatal(err) || ctx.Err() != nil {
				// Rows after this batch were never sent.
				rep.Failed += total - last
				return rep, fmt.Errorf("upload %s: batch %d: %w", collection, n, err)
			}
			continue
		}

		rep.Succeeded += b.Len()
		metrics.RecordBatch(metricsJob, "success")
		blog.Info("batch uploaded", "total", rep.Succeeded)
	}
	return rep, nil
}

// rows converts rows [first, last) to transport values. NaN, infinities and
// nulls become nil.
func (u *Uploader) rows(t *core.Table, first, last int) [][]any {
	out := make([][]any, 0, last-first)
	width := len(t.Columns)
	if u.HashColumn != "" {
		width++
	}
	for i := first; i < last; i++ {
		row := make([]any, 0, width)
		for _, c := range t.Columns {
			row = append(row, core.Scrub(c.Values[i]).Transport())
		}
		if u.HashColumn != "" {
			row = append(row, RowHash(t.Row(i)))
		}
		out = append(out, row)
	}
	return out
}

// RowHash is the hex xxh3 digest of the row's text cells joined by a unit
// separator. Nulls and empty strings hash the same.
func RowHash(values []core.Value) string {
	h := xxh3.New()
	for i, v := range values {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.WriteString(core.Scrub(v).Text())
	}
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}
