package sink

import (
	"context"

	"github.com/ALEYI17/InfraSight_bench/internal/store"
	"github.com/ALEYI17/InfraSight_bench/pkg/types"
)

// History records reports in the local run history. The sink owns the store.
type History struct {
	store *store.History
}

func NewHistory(h *store.History) *History {
	return &History{store: h}
}

func (h *History) Name() string { return "history" }

func (h *History) Send(_ context.Context, rep *types.Report) error {
	return h.store.Put(rep)
}

func (h *History) Close() error {
	return h.store.Close()
}
