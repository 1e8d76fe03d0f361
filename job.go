package main

import (
	"fmt"
	"log/slog"
)

// ItemStatus is the state of one path in a batch.
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusDone
	StatusFailed
	StatusSkipped
)

func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// BatchItem represents a single path handled by get or put
type BatchItem struct {
	Path   string
	Status ItemStatus
}

// Batch holds the items of one invocation, in argument order
type Batch struct {
	Op    string
	Items []BatchItem
}

func newBatch(op string, paths []string) *Batch {
	b := &Batch{Op: op}
	for _, p := range paths {
		b.Items = append(b.Items, BatchItem{Path: p, Status: StatusPending})
	}
	return b
}

func (b *Batch) set(i int, status ItemStatus) {
	b.Items[i].Status = status
	slog.Debug("item finished", "op", b.Op, "path", b.Items[i].Path, "status", status.String())
}

// Failed reports the items that did not complete. Skipped counts as failed.
func (b *Batch) Failed() []BatchItem {
	var failed []BatchItem
	for _, item := range b.Items {
		if item.Status == StatusFailed || item.Status == StatusSkipped {
			failed = append(failed, item)
		}
	}
	return failed
}

func (b *Batch) logSummary(logger *slog.Logger) {
	failed := b.Failed()
	if len(failed) == 0 {
		logger.Info("batch completed", "op", b.Op, "items", len(b.Items))
		return
	}
	paths := make([]string, 0, len(failed))
	for _, item := range failed {
		paths = append(paths, item.Path)
	}
	logger.Warn("batch completed with failures", "op", b.Op, "items", len(b.Items), "failed", paths)
}
