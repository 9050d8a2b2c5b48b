package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadHistory Phase = iota
	RenderHistory
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case LoadHistory:
		return "load_history"
	case RenderHistory:
		return "render_history"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func loadHistoryUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadHistory,
		Step:    step,
		Total:   total,
		Message: "Loading listening history...",
	}
}

func renderUpdate(step, total, records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RenderHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Rendering %d records...", records),
	}
}

func writtenUpdate(step, total int, path string, records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ Wrote %d records to %s", records, path),
		Data:    path,
	}
}
