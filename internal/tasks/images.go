package tasks

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/desertthunder/dreamsprout/internal/models"
	"golang.org/x/time/rate"
)

// DownloadOpts configures [DownloadImages].
type DownloadOpts struct {
	OutputDir  string       // Directory the images are written to
	NumWorkers int          // Concurrent workers (default: 4, max: 10)
	RateLimit  float64      // Requests per second (default: 5)
	HTTPClient *http.Client // Defaults to http.DefaultClient
}

// ImageResult is the outcome of fetching one image.
type ImageResult struct {
	DreamID string
	Index   int
	URL     string
	Path    string
	Err     error
}

// DownloadResult summarizes a [DownloadImages] run.
type DownloadResult struct {
	Total      int
	Successful int
	Failed     int
	Results    []ImageResult // ordered by dream, then image index
}

type imageJob struct {
	dreamID string
	index   int
	url     string
}

// DownloadImages fetches every image of dreams into opts.OutputDir, named
// "<dream id>-<index><ext>". Individual failures are recorded in the result and do not stop
// the run; only a setup failure or a cancelled ctx returns an error.
func DownloadImages(ctx context.Context, dreams []models.Dream, opts DownloadOpts, prog chan<- ProgressUpdate) (*DownloadResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var queue []imageJob
	for _, d := range dreams {
		for i, img := range d.Images {
			if img.URL != "" {
				queue = append(queue, imageJob{dreamID: d.ID, index: i, url: img.URL})
			}
		}
	}

	result := &DownloadResult{Total: len(queue), Results: make([]ImageResult, 0, len(queue))}
	if len(queue) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan imageJob, len(queue))
	results := make(chan ImageResult, len(queue))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go downloadWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for _, job := range queue {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		if res.Err != nil {
			result.Failed++
		} else {
			result.Successful++
		}
		sendProgress(prog, downloadedUpdate(len(result.Results), result.Total, res))
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		a, b := result.Results[i], result.Results[j]
		if a.DreamID != b.DreamID {
			return a.DreamID < b.DreamID
		}
		return a.Index < b.Index
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func downloadWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan imageJob, results chan<- ImageResult, opts DownloadOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := ImageResult{DreamID: job.dreamID, Index: job.index, URL: job.url}
		res.Path, res.Err = downloadImage(ctx, opts.HTTPClient, job, opts.OutputDir)
		results <- res
	}
}

// downloadImage fetches one image and writes it to dir.
func downloadImage(ctx context.Context, client *http.Client, job imageJob, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	name := fmt.Sprintf("%s-%d%s", job.dreamID, job.index+1, imageExt(job.url, resp.Header.Get("Content-Type")))
	dest := filepath.Join(dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	return dest, nil
}

// imageExt picks a file extension from the content type, then the URL path, then ".png".
func imageExt(url, contentType string) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mt {
			case "image/png":
				return ".png"
			case "image/jpeg":
				return ".jpg"
			case "image/webp":
				return ".webp"
			case "image/gif":
				return ".gif"
			}
		}
	}
	if ext := path.Ext(stripQuery(url)); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".png"
}

func stripQuery(url string) string {
	for i, r := range url {
		if r == '?' || r == '#' {
			return url[:i]
		}
	}
	return url
}
