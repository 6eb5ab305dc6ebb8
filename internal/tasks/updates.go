package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCollection Phase = iota
	RebuildIndex
	ExportCollection
)

func (p Phase) String() string {
	switch p {
	case FetchCollection:
		return "fetch_collection"
	case RebuildIndex:
		return "rebuild_index"
	case ExportCollection:
		return "export_collection"
	default:
		return ""
	}
}

func fetchPageUpdate(page, fetched, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    fetched,
		Total:   count,
		Message: fmt.Sprintf("Fetched page %d (%d/%d titles)...", page, fetched, count),
	}
}

func rebuildUpdate(size int, applied bool) ProgressUpdate {
	msg := fmt.Sprintf("Membership rebuilt from %d titles", size)
	if !applied {
		msg = "Discarded listing from a previous session"
	}
	return ProgressUpdate{
		Phase:   RebuildIndex,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    applied,
	}
}

func exportWrittenUpdate(path string, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ Exported %d titles to %s", size, path),
		Data:    path,
	}
}
