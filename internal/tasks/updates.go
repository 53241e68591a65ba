package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/dreamsprout/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within the operation
	Total   int    // Total steps in the operation
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Transcribe Phase = iota
	GenerateTitle
	GenerateStory
	GenerateImages
	Analyze
	DownloadImage
)

func (p Phase) String() string {
	switch p {
	case Transcribe:
		return "transcribe"
	case GenerateTitle:
		return "generate_title"
	case GenerateStory:
		return "generate_story"
	case GenerateImages:
		return "generate_images"
	case Analyze:
		return "analyze"
	case DownloadImage:
		return "download_image"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func transcribeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transcribe,
		Step:    step,
		Total:   total,
		Message: "Transcribing recording...",
	}
}

func titleUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateTitle,
		Step:    step,
		Total:   total,
		Message: "Generating a title...",
	}
}

func storyUpdate(step, total int, tone models.Tone) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateStory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing a %s story...", strings.ToLower(tone.Label())),
	}
}

func imagesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateImages,
		Step:    step,
		Total:   total,
		Message: "Illustrating scenes...",
	}
}

func analyzeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    step,
		Total:   total,
		Message: "Analyzing dream...",
	}
}

func downloadedUpdate(step, total int, res ImageResult) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   DownloadImage,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.URL, res.Err),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   DownloadImage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Path),
		Data:    res,
	}
}
