package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/dreamsprout/internal/journal"
	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/desertthunder/dreamsprout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// DreamNew composes a dream from text or a recording and saves it.
func (r *Runner) DreamNew(ctx context.Context, cmd *cli.Command) error {
	text := cmd.String("text")
	audioPath := cmd.String("audio")
	if strings.TrimSpace(text) == "" && audioPath == "" {
		return fmt.Errorf("%w: either --text or --audio must be provided", shared.ErrMissingArgument)
	}

	mode, err := tasks.ParseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	in := tasks.ComposeInput{
		Text:   text,
		Title:  cmd.String("title"),
		Mode:   mode,
		Images: cmd.Bool("images"),
	}
	if v := cmd.String("tone"); v != "" {
		if in.Tone, err = models.ParseTone(v); err != nil {
			return err
		}
	}
	if v := cmd.String("length"); v != "" {
		if in.Length, err = models.ParseLength(v); err != nil {
			return err
		}
	}
	if audioPath != "" {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return fmt.Errorf("failed to read recording: %w", err)
		}
		in.Audio = data
		in.Filename = filepath.Base(audioPath)
	}

	if err := r.open(); err != nil {
		return err
	}
	if in.Token, err = r.token(ctx); err != nil {
		return err
	}

	composer := tasks.NewComposer(r.client, r.preferences(ctx), r.logger)
	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
		}
	}()

	draft, err := composer.Compose(ctx, in, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}
	draft.IsFavorite = cmd.Bool("favorite")

	saved, err := r.store.Create(ctx, *draft)
	if err != nil {
		return fmt.Errorf("failed to save dream: %w", err)
	}

	r.logger.Debug("dream saved", "id", saved.ID)
	r.writePlain("✓ Saved %q (%s)\n\n", saved.Title, saved.ID)
	return r.printDream(saved)
}

// DreamList prints the journal with optional filters.
func (r *Runner) DreamList(ctx context.Context, cmd *cli.Command) error {
	order, err := journal.ParseSortOrder(cmd.String("sort"))
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	favoritesOnly := cmd.Bool("favorites")
	if err := r.store.Refresh(ctx, favoritesOnly); err != nil {
		return err
	}
	dreams := r.store.Query(journal.Filter{
		Search:        cmd.String("search"),
		FavoritesOnly: favoritesOnly,
		Order:         order,
	})

	if cmd.Bool("json") {
		return r.writeJSON(dreams, true)
	}
	if len(dreams) == 0 {
		return r.writePlain("No dreams found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Dreams (%d)", len(dreams)))
	for _, d := range dreams {
		star := " "
		if d.IsFavorite {
			star = "★"
		}
		r.writePlain("%s %-14s %-13s %s\n", star, d.ID, d.Date, d.Title)
	}
	return nil
}

// find loads the journal and returns the dream with id.
func (r *Runner) find(ctx context.Context, id string) (models.Dream, error) {
	if id == "" {
		return models.Dream{}, fmt.Errorf("%w: dream id", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return models.Dream{}, err
	}
	if err := r.store.Refresh(ctx, false); err != nil {
		return models.Dream{}, err
	}
	d, ok := r.store.Get(id)
	if !ok {
		return models.Dream{}, fmt.Errorf("%w: %s", shared.ErrDreamNotFound, id)
	}
	return d, nil
}

// DreamShow prints one dream.
func (r *Runner) DreamShow(ctx context.Context, cmd *cli.Command) error {
	d, err := r.find(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(d, true)
	}
	return r.printDream(d)
}

func (r *Runner) printDream(d models.Dream) error {
	title := d.Title
	if d.IsFavorite {
		title = "★ " + title
	}
	r.writePlainHeader(title)
	r.writePlain("ID:    %s\n", d.ID)
	r.writePlain("Date:  %s\n", d.Date)
	if d.Tone != "" {
		r.writePlain("Tone:  %s (%s)\n", d.Tone.Label(), d.Length)
	}
	r.writePlain("Input: %s\n", d.InputMode)

	r.writePlainln("Dream:")
	r.writePlain("%s\n", d.OriginalDream)
	if d.Story != "" {
		r.writePlainln("Story:")
		r.writePlain("%s\n", d.Story)
	}
	if d.Analysis != "" {
		r.writePlainln("Analysis:")
		r.writePlain("%s\n", d.Analysis)
	}
	if len(d.Images) > 0 {
		r.writePlainln("Images:")
		for i, img := range d.Images {
			r.writePlain("%d. %s\n", i+1, img.URL)
		}
	}
	return nil
}

// DreamEdit applies the flags that were set as a partial update.
func (r *Runner) DreamEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")

	var patch models.DreamPatch
	if cmd.IsSet("title") {
		patch.Title = models.Ptr(cmd.String("title"))
	}
	if cmd.IsSet("text") {
		patch.OriginalDream = models.Ptr(strings.TrimSpace(cmd.String("text")))
	}
	if cmd.IsSet("story") {
		patch.Story = models.Ptr(cmd.String("story"))
	}
	if cmd.IsSet("analysis") {
		patch.Analysis = models.Ptr(cmd.String("analysis"))
	}
	if cmd.IsSet("tone") {
		tone, err := models.ParseTone(cmd.String("tone"))
		if err != nil {
			return err
		}
		patch.Tone = &tone
	}
	if cmd.IsSet("length") {
		length, err := models.ParseLength(cmd.String("length"))
		if err != nil {
			return err
		}
		patch.Length = &length
	}
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to change", shared.ErrMissingArgument)
	}

	if _, err := r.find(ctx, id); err != nil {
		return err
	}
	updated, err := r.store.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated %q\n", updated.Title)
}

// DreamFavorite toggles the favorite flag.
func (r *Runner) DreamFavorite(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if _, err := r.find(ctx, id); err != nil {
		return err
	}

	d, err := r.store.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case d == nil:
		return r.writePlain("Favorite unchanged\n")
	case d.IsFavorite:
		return r.writePlain("★ Added %q to favorites\n", d.Title)
	default:
		return r.writePlain("✓ Removed %q from favorites\n", d.Title)
	}
}

// DreamDelete removes a dream.
func (r *Runner) DreamDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	d, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %q\n", d.Title)
}
