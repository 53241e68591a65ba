package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the stored preferences.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	prefs := r.preferences(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(prefs, true)
	}

	r.writePlainHeader("Settings")
	r.writePlain("Tone:            %s\n", prefs.Tone.Label())
	r.writePlain("Length:          %s\n", prefs.Length)
	r.writePlain("Generate images: %t\n", prefs.GenerateImages)
	r.writePlain("Voice:           %s\n", prefs.Voice)
	r.writePlain("Speed:           %.2fx\n", prefs.Speed)
	r.writePlain("Autoplay:        %t\n", prefs.Autoplay)
	return nil
}

// SettingsSet changes the preferences named by the flags that were set.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	prefs := r.preferences(ctx)

	changed := 0
	if cmd.IsSet("tone") {
		tone, err := models.ParseTone(cmd.String("tone"))
		if err != nil {
			return err
		}
		prefs.Tone = tone
		changed++
	}
	if cmd.IsSet("length") {
		length, err := models.ParseLength(cmd.String("length"))
		if err != nil {
			return err
		}
		prefs.Length = length
		changed++
	}
	if cmd.IsSet("images") {
		prefs.GenerateImages = cmd.Bool("images")
		changed++
	}
	if cmd.IsSet("voice") {
		prefs.Voice = strings.TrimSpace(cmd.String("voice"))
		changed++
	}
	if cmd.IsSet("speed") {
		prefs.Speed = cmd.Float("speed")
		changed++
	}
	if cmd.IsSet("autoplay") {
		prefs.Autoplay = cmd.Bool("autoplay")
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("%w: nothing to change", shared.ErrMissingArgument)
	}

	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := r.prefs.Save(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return r.writePlain("✓ Settings saved\n")
}

// Stats prints journal counters for the current identity.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	stats, err := r.store.AccountStats(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Journal")
	r.writePlain("Dreams:     %d\n", stats.TotalDreams)
	r.writePlain("This month: %d\n", stats.DreamsThisMonth)
	r.writePlain("Favorites:  %d\n", stats.FavoriteDreams)
	if stats.AverageLucidity != nil {
		r.writePlain("Lucidity:   %.1f\n", *stats.AverageLucidity)
	}
	if len(stats.MostCommonTags) > 0 {
		tags := make([]string, len(stats.MostCommonTags))
		for i, t := range stats.MostCommonTags {
			tags[i] = fmt.Sprintf("%s (%d)", t.Tag, t.Count)
		}
		r.writePlain("Tags:       %s\n", strings.Join(tags, ", "))
	}
	return nil
}

// Clear deletes every dream stored on this device. Account dreams are not touched.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete every dream on this device", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}
	if err := r.router.ClearLocal(ctx); err != nil {
		return fmt.Errorf("failed to clear local dreams: %w", err)
	}
	r.logger.Info("local dreams cleared")
	return r.writePlain("✓ Local dreams cleared\n")
}

// Speak reads a dream's story, or --text, aloud into an audio file.
func (r *Runner) Speak(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(cmd.String("text"))
	if text == "" {
		d, err := r.find(ctx, cmd.StringArg("id"))
		if err != nil {
			return err
		}
		text = d.Story
		if text == "" {
			text = d.OriginalDream
		}
	} else if err := r.open(); err != nil {
		return err
	}

	prefs := r.preferences(ctx)
	voice := prefs.Voice
	if v := cmd.String("voice"); v != "" {
		voice = v
	}
	speed := prefs.Speed
	if cmd.IsSet("speed") {
		speed = cmd.Float("speed")
	}

	audio, err := r.client.TextToSpeech(ctx, text, voice, speed)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := os.WriteFile(output, audio, 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return r.writePlain("✓ Saved %d bytes of audio to %s\n", len(audio), output)
}
