package models

import "strings"

// Draft is the user supplied part of a dream before the store assigns its id and date.
type Draft struct {
	Title         string
	OriginalDream string `validate:"required"`
	Story         string
	Analysis      string
	Tone          Tone         `validate:"omitempty,oneof=whimsical mystical adventurous gentle mysterious comedy"`
	Length        Length       `validate:"omitempty,oneof=short medium long"`
	Images        []DreamImage `validate:"omitempty,dive"`
	InputMode     InputMode    `validate:"omitempty,oneof=text voice"`
	IsFavorite    bool
	Audio         []byte
}

// Validate trims the dream text and checks the draft's struct tags.
func (d *Draft) Validate() error {
	d.OriginalDream = strings.TrimSpace(d.OriginalDream)
	return validateStruct(d)
}

// Dream builds a canonical record from the draft with defaults applied.
func (d Draft) Dream(id, date string) Dream {
	return Dream{
		ID:            id,
		OriginalDream: d.OriginalDream,
		Story:         d.Story,
		Analysis:      d.Analysis,
		Title:         strings.TrimSpace(d.Title),
		Tone:          d.Tone,
		Length:        d.Length,
		Date:          date,
		Images:        d.Images,
		InputMode:     d.InputMode,
		IsFavorite:    d.IsFavorite,
		Audio:         d.Audio,
	}.WithDefaults()
}

// DreamPatch is a partial update. Nil fields are left untouched; a nil Images slice means "unchanged".
// The date is fixed at creation and cannot be patched.
type DreamPatch struct {
	Title         *string      `json:"title,omitempty"`
	OriginalDream *string      `json:"originalDream,omitempty" validate:"omitempty,min=1"`
	Story         *string      `json:"story,omitempty"`
	Analysis      *string      `json:"analysis,omitempty"`
	Tone          *Tone        `json:"tone,omitempty" validate:"omitempty,oneof=whimsical mystical adventurous gentle mysterious comedy"`
	Length        *Length      `json:"length,omitempty" validate:"omitempty,oneof=short medium long"`
	Images        []DreamImage `json:"images,omitempty" validate:"omitempty,dive"`
	IsFavorite    *bool        `json:"isFavorite,omitempty"`
}

// Validate checks the fields that are set.
func (p DreamPatch) Validate() error {
	return validateStruct(p)
}

// IsEmpty reports whether the patch sets no fields.
func (p DreamPatch) IsEmpty() bool {
	return p.Title == nil && p.OriginalDream == nil && p.Story == nil && p.Analysis == nil &&
		p.Tone == nil && p.Length == nil && p.Images == nil && p.IsFavorite == nil
}

// Apply returns d with every set field of p copied over it.
func (p DreamPatch) Apply(d Dream) Dream {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.OriginalDream != nil {
		d.OriginalDream = *p.OriginalDream
	}
	if p.Story != nil {
		d.Story = *p.Story
	}
	if p.Analysis != nil {
		d.Analysis = *p.Analysis
	}
	if p.Tone != nil {
		d.Tone = *p.Tone
	}
	if p.Length != nil {
		d.Length = *p.Length
	}
	if p.Images != nil {
		d.Images = p.Images
	}
	if p.IsFavorite != nil {
		d.IsFavorite = *p.IsFavorite
	}
	return d
}

// Ptr returns a pointer to v, for building a [DreamPatch].
func Ptr[T any](v T) *T {
	return &v
}
