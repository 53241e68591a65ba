package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/dreamsprout/internal/formatter"
	"github.com/desertthunder/dreamsprout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the journal in the requested format, optionally downloading images beside it.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
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
	dreams := r.store.Dreams()

	id, err := r.store.Identity(ctx)
	if err != nil {
		return err
	}
	owner := id.Email
	if owner == "" {
		owner = id.String()
	}
	export := formatter.NewJournalExport(owner, dreams, time.Now())

	output := cmd.String("output")
	if output == "" {
		output = "journal" + format.Ext()
	}

	if cmd.Bool("images") {
		dir := filepath.Join(filepath.Dir(output), strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))+"_images")
		progress := make(chan tasks.ProgressUpdate, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for u := range progress {
				r.logger.Info(u.Message)
			}
		}()

		res, err := tasks.DownloadImages(ctx, dreams, tasks.DownloadOpts{
			OutputDir:  dir,
			NumWorkers: int(cmd.Int("workers")),
			HTTPClient: r.httpClient,
		}, progress)
		close(progress)
		<-done
		if err != nil {
			return fmt.Errorf("failed to download images: %w", err)
		}

		export.Images = make(map[string][]string)
		for _, img := range res.Results {
			if img.Err != nil {
				continue
			}
			rel, err := filepath.Rel(filepath.Dir(output), img.Path)
			if err != nil {
				rel = img.Path
			}
			local := export.Images[img.DreamID]
			for len(local) <= img.Index {
				local = append(local, "")
			}
			local[img.Index] = filepath.ToSlash(rel)
			export.Images[img.DreamID] = local
		}
		r.writePlain("Images: %d downloaded, %d failed\n", res.Successful, res.Failed)
	}

	path, err := formatter.WriteExport(export, format, output)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d dreams to %s\n", export.Count, path)
}
