package tasks

import (
	"fmt"

	"github.com/desertthunder/snaptunes/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	Extract Phase = iota
	Match
	Select
	Create
	Done
)

func (p Phase) String() string {
	switch p {
	case Extract:
		return "extract"
	case Match:
		return "match"
	case Select:
		return "select"
	case Create:
		return "create"
	case Done:
		return "done"
	default:
		return ""
	}
}

func extractingUpdate(length int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Extracting songs from text (%d characters)...", length),
	}
}

func extractedUpdate(result models.ExtractionResult) ProgressUpdate {
	msg := fmt.Sprintf("Found %d songs", len(result.Songs))
	if result.PlaylistTitle != "" {
		msg += fmt.Sprintf(" (suggested title: %s)", result.PlaylistTitle)
	}
	return ProgressUpdate{Phase: Extract, Step: 1, Total: 1, Message: msg, Data: result}
}

func matchingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Match,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching Spotify for %d songs...", total),
	}
}

func matchedUpdate(summary MatchSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Match,
		Step:    summary.Total,
		Total:   summary.Total,
		Message: fmt.Sprintf("Matched %d of %d songs", summary.Found, summary.Total),
		Data:    summary,
	}
}

func selectedUpdate(ids []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Select,
		Step:    len(ids),
		Total:   len(ids),
		Message: fmt.Sprintf("Selected %d tracks", len(ids)),
		Data:    ids,
	}
}

func creatingUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Create,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Creating playlist %q with %d tracks...", name, count),
	}
}

func createdUpdate(desc *models.PlaylistDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Create,
		Step:    desc.TracksAdded,
		Total:   desc.TracksAdded,
		Message: fmt.Sprintf("Playlist created: %s (%s)", desc.Name, desc.URL),
		Data:    desc,
	}
}

func partialUpdate(desc *models.PlaylistDescriptor, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Create,
		Step:    desc.TracksAdded,
		Total:   total,
		Message: fmt.Sprintf("Playlist created but only %d of %d tracks were added", desc.TracksAdded, total),
		Data:    desc,
	}
}

func doneUpdate(dryRun bool) ProgressUpdate {
	msg := "Done"
	if dryRun {
		msg = "Dry run complete, no playlist created"
	}
	return ProgressUpdate{Phase: Done, Step: 1, Total: 1, Message: msg}
}
