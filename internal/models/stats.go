package models

import "time"

// TagCount is one entry of [UserStats.MostCommonTags].
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// MoodCount is one entry of [UserStats.MoodDistribution].
type MoodCount struct {
	Mood  string `json:"mood" yaml:"mood"`
	Count int    `json:"count" yaml:"count"`
}

// UserStats aggregates a journal. Guests only get the three counters computed by [ComputeStats].
type UserStats struct {
	TotalDreams      int         `json:"totalDreams" yaml:"totalDreams"`
	DreamsThisMonth  int         `json:"dreamsThisMonth" yaml:"dreamsThisMonth"`
	FavoriteDreams   int         `json:"favoriteDreams" yaml:"favoriteDreams"`
	MostCommonTags   []TagCount  `json:"mostCommonTags" yaml:"mostCommonTags"`
	MoodDistribution []MoodCount `json:"moodDistribution" yaml:"moodDistribution"`
	AverageLucidity  *float64    `json:"averageLucidity" yaml:"averageLucidity"`
}

// ComputeStats counts dreams, dreams dated in now's month and favorites.
//
// Dreams whose date does not parse are counted in the total only.
func ComputeStats(dreams []Dream, now time.Time) UserStats {
	stats := UserStats{TotalDreams: len(dreams)}
	for _, d := range dreams {
		if d.IsFavorite {
			stats.FavoriteDreams++
		}
		if t := d.ParsedDate(); !t.IsZero() && t.Year() == now.Year() && t.Month() == now.Month() {
			stats.DreamsThisMonth++
		}
	}
	return stats
}
