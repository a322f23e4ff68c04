package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/balance/internal/batch"
)

// maxBatchBytes bounds uploaded CSV bodies.
const maxBatchBytes = 32 << 20

// BatchDependencies scores CSV uploads.
type BatchDependencies interface {
	Batch(ctx context.Context, in io.Reader, out io.Writer, dropColumns ...string) (batch.Summary, error)
}

// BatchHandler handles POST /batch.
type BatchHandler struct {
	deps BatchDependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// HandleBatch handles POST /batch. The body is a CSV file; the response is
// the same rows with score, label, category and error columns appended.
// Repeated ?drop= parameters replace the default target columns.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var drop []string
	for _, v := range r.URL.Query()["drop"] {
		for _, col := range strings.Split(v, ",") {
			if col = strings.TrimSpace(col); col != "" {
				drop = append(drop, col)
			}
		}
	}

	var out bytes.Buffer
	sum, err := h.deps.Batch(r.Context(), http.MaxBytesReader(w, r.Body, maxBatchBytes), &out, drop...)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = WrapKind("api.batch", ErrTooLarge, err)
		}
		writeFailure(w, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/csv; charset=utf-8")
	hdr.Set("X-Batch-Rows", strconv.Itoa(sum.Rows))
	hdr.Set("X-Batch-Scored", strconv.Itoa(sum.Scored))
	hdr.Set("X-Batch-Failed", strconv.Itoa(sum.Failed))
	w.WriteHeader(http.StatusOK)
	_, _ = out.WriteTo(w)
}
