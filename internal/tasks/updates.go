package tasks

import (
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
)

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
	ResolveInputs Phase = iota
	AddTracks
	ImportComplete
)

func (p Phase) String() string {
	switch p {
	case ResolveInputs:
		return "resolve_inputs"
	case AddTracks:
		return "add_tracks"
	case ImportComplete:
		return "import_complete"
	default:
		return ""
	}
}

func resolvingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveInputs,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d inputs...", total),
	}
}

func resolvedUpdate(step, total int, item ItemResult) ProgressUpdate {
	if item.Error != nil {
		return ProgressUpdate{
			Phase:   ResolveInputs,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ line %d: %v", step, total, item.Line, item.Error),
		}
	}
	return ProgressUpdate{
		Phase:   ResolveInputs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, item.Track.Artist(), item.Track.Title()),
		Data:    item.Track,
	}
}

func addedUpdate(step, total int, t models.Track, added bool) ProgressUpdate {
	status := "✓"
	if !added {
		status = "="
	}
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, status, t.Artist(), t.Title()),
		Data:    t,
	}
}

func completeUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportComplete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Imported %d tracks (%d duplicates, %d failed)", result.Added, result.Duplicates, result.Failed),
		Data:    result,
	}
}
