// package formatter provides functions to export the dream journal to various formats (JSON, YAML, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dreamsprout/internal/models"
	"github.com/desertthunder/dreamsprout/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported [Format].
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat parses a format name. An empty string is JSON; "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// JournalExport is a snapshot of the journal written by the exporters.
type JournalExport struct {
	ExportedAt time.Time      `json:"exportedAt" yaml:"exportedAt"`
	Owner      string         `json:"owner" yaml:"owner"`
	Count      int            `json:"count" yaml:"count"`
	Dreams     []models.Dream `json:"dreams" yaml:"dreams"`

	// Images maps a dream id to local copies of its images, in image order. Markdown links to
	// these instead of the remote URLs when present.
	Images map[string][]string `json:"-" yaml:"-"`
}

// NewJournalExport snapshots dreams for owner.
func NewJournalExport(owner string, dreams []models.Dream, now time.Time) *JournalExport {
	out := make([]models.Dream, len(dreams))
	for i, d := range dreams {
		d.Audio = nil
		out[i] = d
	}
	return &JournalExport{ExportedAt: now.UTC(), Owner: owner, Count: len(out), Dreams: out}
}

// ExportToJSON converts a JournalExport to indented JSON.
func ExportToJSON(export *JournalExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToYAML converts a JournalExport to YAML.
func ExportToYAML(export *JournalExport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts a JournalExport to CSV with columns: ID, Date, Title, Favorite, Tone, Length, Input, Dream, Story, Analysis, Images
func ExportToCSV(export *JournalExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Date", "Title", "Favorite", "Tone", "Length", "Input", "Dream", "Story", "Analysis", "Images"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range export.Dreams {
		urls := make([]string, 0, len(d.Images))
		for _, img := range d.Images {
			urls = append(urls, img.URL)
		}
		record := []string{
			d.ID,
			d.Date,
			d.Title,
			strconv.FormatBool(d.IsFavorite),
			string(d.Tone),
			string(d.Length),
			string(d.InputMode),
			d.OriginalDream,
			d.Story,
			d.Analysis,
			strings.Join(urls, " "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a JournalExport to a Markdown document with one section per dream.
func ExportToMarkdown(export *JournalExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Dream Journal\n\n")
	if export.Owner != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", export.Owner))
	}
	buf.WriteString(fmt.Sprintf("**Dreams**: %d\n", export.Count))
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format(time.RFC3339)))

	for _, d := range export.Dreams {
		star := ""
		if d.IsFavorite {
			star = " ★"
		}
		buf.WriteString(fmt.Sprintf("\n## %s%s\n\n", d.Title, star))
		buf.WriteString(fmt.Sprintf("*%s*", d.Date))
		if d.Tone != "" {
			buf.WriteString(fmt.Sprintf(" · %s", d.Tone.Label()))
		}
		buf.WriteString("\n\n")

		buf.WriteString("### Dream\n\n")
		buf.WriteString(quote(d.OriginalDream))

		if d.Story != "" {
			buf.WriteString("\n### Story\n\n")
			buf.WriteString(d.Story + "\n")
		}
		if d.Analysis != "" {
			buf.WriteString("\n### Analysis\n\n")
			buf.WriteString(d.Analysis + "\n")
		}

		if len(d.Images) > 0 {
			buf.WriteString("\n")
			local := export.Images[d.ID]
			for i, img := range d.Images {
				src := img.URL
				if i < len(local) && local[i] != "" {
					src = local[i]
				}
				alt := img.Description
				if alt == "" {
					alt = fmt.Sprintf("Scene %d", i+1)
				}
				buf.WriteString(fmt.Sprintf("![%s](%s)\n", alt, src))
			}
		}
	}

	return buf.Bytes(), nil
}

func quote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "> " + strings.Join(lines, "\n> ") + "\n"
}

// ExportToText converts a JournalExport to plain text format
func ExportToText(export *JournalExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Dreams: %d\n\n", export.Count))
	for i, d := range export.Dreams {
		fav := ""
		if d.IsFavorite {
			fav = " *"
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s)%s\n", i+1, d.Title, d.Date, fav))
		buf.WriteString(fmt.Sprintf("   %s\n", d.OriginalDream))
	}

	return buf.Bytes(), nil
}

// Export renders export in format.
func Export(export *JournalExport, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return ExportToYAML(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to journal{ext} in the current directory. Parent directories are created as needed.
func WriteExport(export *JournalExport, format Format, path string) (string, error) {
	if path == "" {
		path = "journal" + format.Ext()
	}

	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}
