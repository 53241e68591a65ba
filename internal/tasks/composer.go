package tasks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/services"
	"github.com/desertthunder/dreamsprout/internal/shared"
)

// Mode selects what the composer generates from the dream text.
type Mode string

const (
	ModeStory    Mode = "story"
	ModeAnalysis Mode = "analysis"
	ModeNone     Mode = "none"
)

// ParseMode parses a [Mode]. An empty string is [ModeStory].
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeStory, nil
	case ModeStory, ModeAnalysis, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("%w: mode must be story, analysis or none, got %q", shared.ErrInvalidFlag, s)
	}
}

// ComposeInput is what the user supplied for a new dream.
type ComposeInput struct {
	Text     string
	Audio    []byte
	Filename string
	Title    string
	Mode     Mode
	Tone     models.Tone
	Length   models.Length
	Images   bool
	Token    string // optional; sent with analysis requests
}

func (in ComposeInput) inputMode() models.InputMode {
	if len(in.Audio) > 0 {
		return models.InputVoice
	}
	return models.InputText
}

// Composer turns raw dream input into a draft by calling the generation endpoints in order:
// transcription, title, then a story with optional images or an analysis.
type Composer struct {
	gen    services.Generator
	prefs  models.Preferences
	logger *log.Logger
}

// NewComposer creates a [Composer]. Tone, length and image defaults come from prefs.
func NewComposer(gen services.Generator, prefs models.Preferences, logger *log.Logger) *Composer {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Composer{gen: gen, prefs: prefs.Normalize(), logger: logger}
}

// steps counts the generation calls Compose will make for in.
func (c *Composer) steps(in ComposeInput) int {
	n := 0
	if in.inputMode() == models.InputVoice && strings.TrimSpace(in.Text) == "" {
		n++
	}
	if strings.TrimSpace(in.Title) == "" {
		n++
	}
	switch in.Mode {
	case ModeStory:
		n++
		if in.Images && c.prefs.GenerateImages {
			n++
		}
	case ModeAnalysis:
		n++
	}
	return n
}

// Compose runs the pipeline and returns a draft ready to save. Any generation failure aborts
// the run and no draft is returned. Progress is reported on progress when it is non-nil.
func (c *Composer) Compose(ctx context.Context, in ComposeInput, progress chan<- ProgressUpdate) (*models.Draft, error) {
	if in.Mode == "" {
		in.Mode = ModeStory
	}
	if in.Tone == "" {
		in.Tone = c.prefs.Tone
	}
	if in.Length == "" {
		in.Length = c.prefs.Length
	}

	total := c.steps(in)
	step := 0

	text := strings.TrimSpace(in.Text)
	if in.inputMode() == models.InputVoice && text == "" {
		step++
		sendProgress(progress, transcribeUpdate(step, total))
		transcribed, err := c.gen.Transcribe(ctx, bytes.NewReader(in.Audio), in.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to transcribe recording: %w", err)
		}
		text = strings.TrimSpace(transcribed)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: dream text is empty", shared.ErrInvalidInput)
	}

	draft := &models.Draft{
		Title:         strings.TrimSpace(in.Title),
		OriginalDream: text,
		Tone:          in.Tone,
		Length:        in.Length,
		InputMode:     in.inputMode(),
		Audio:         in.Audio,
	}

	if draft.Title == "" {
		step++
		sendProgress(progress, titleUpdate(step, total))
		title, err := c.gen.GenerateTitle(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate title: %w", err)
		}
		draft.Title = title
	}

	switch in.Mode {
	case ModeStory:
		step++
		sendProgress(progress, storyUpdate(step, total, in.Tone))
		story, err := c.gen.GenerateStory(ctx, text, in.Tone, in.Length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate story: %w", err)
		}
		draft.Story = story

		if in.Images && c.prefs.GenerateImages {
			step++
			sendProgress(progress, imagesUpdate(step, total))
			images, err := c.gen.GenerateImages(ctx, story, in.Tone, false)
			if err != nil {
				return nil, fmt.Errorf("failed to generate images: %w", err)
			}
			draft.Images = images
		}
	case ModeAnalysis:
		step++
		sendProgress(progress, analyzeUpdate(step, total))
		analysis, err := c.gen.AnalyzeDream(ctx, in.Token, text, "")
		if err != nil {
			return nil, fmt.Errorf("failed to analyze dream: %w", err)
		}
		draft.Analysis = analysis.Analysis
	case ModeNone:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidInput, in.Mode)
	}

	c.logger.Debug("dream composed", "mode", in.Mode, "steps", total, "images", len(draft.Images))
	return draft, nil
}
