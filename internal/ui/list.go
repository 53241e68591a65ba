package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/dreamsprout/internal/models"
)

var _ list.Item = dreamItem{}

// dreamItem wraps [models.Dream] to implement [list.Item].
type dreamItem struct {
	dream models.Dream
}

// FilterValue covers the title and the dream text so the list filter searches both.
func (i dreamItem) FilterValue() string { return i.dream.Title + " " + i.dream.OriginalDream }

func (i dreamItem) Title() string {
	if i.dream.IsFavorite {
		return "★ " + i.dream.Title
	}
	return i.dream.Title
}

func (i dreamItem) Description() string {
	parts := []string{i.dream.Date}
	if i.dream.Tone != "" {
		parts = append(parts, string(i.dream.Tone))
	}
	switch {
	case i.dream.Story != "":
		parts = append(parts, "story")
	case i.dream.Analysis != "":
		parts = append(parts, "analysis")
	}
	if n := len(i.dream.Images); n > 0 {
		parts = append(parts, fmt.Sprintf("%d images", n))
	}
	return strings.Join(parts, " • ") + " • " + snippet(i.dream.OriginalDream, 60)
}

// snippet returns the first line of s cut to n runes.
func snippet(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func toItems(dreams []models.Dream) []list.Item {
	items := make([]list.Item, len(dreams))
	for i, d := range dreams {
		items[i] = dreamItem{dream: d}
	}
	return items
}
