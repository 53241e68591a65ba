// package models defines the data model for the dream journal
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/dreamsprout/internal/shared"
	"github.com/go-playground/validator/v10"
)

// DefaultTitle is used for dreams saved without a title.
const DefaultTitle = "Untitled Dream"

var validate = validator.New()

// Tone constrains the style of a generated story.
type Tone string

const (
	ToneWhimsical   Tone = "whimsical"
	ToneMystical    Tone = "mystical"
	ToneAdventurous Tone = "adventurous"
	ToneGentle      Tone = "gentle"
	ToneMysterious  Tone = "mysterious"
	ToneComedy      Tone = "comedy"
)

// Tones lists every [Tone] in display order.
var Tones = []Tone{ToneWhimsical, ToneMystical, ToneAdventurous, ToneGentle, ToneMysterious, ToneComedy}

// Label returns a human readable description of the tone.
func (t Tone) Label() string {
	switch t {
	case ToneWhimsical:
		return "Whimsical & Playful"
	case ToneMystical:
		return "Mystical & Magical"
	case ToneAdventurous:
		return "Adventurous & Bold"
	case ToneGentle:
		return "Gentle & Soothing"
	case ToneMysterious:
		return "Dark & Mysterious"
	case ToneComedy:
		return "Funny & Comedic"
	default:
		return string(t)
	}
}

// Length constrains the size of a generated story.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Lengths lists every [Length] in display order.
var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// InputMode records how the dream text was captured.
type InputMode string

const (
	InputText  InputMode = "text"
	InputVoice InputMode = "voice"
)

// ParseTone validates s as a [Tone].
func ParseTone(s string) (Tone, error) {
	for _, t := range Tones {
		if string(t) == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: tone must be one of %s", shared.ErrInvalidInput, joinEnum(Tones))
}

// ParseLength validates s as a [Length].
func ParseLength(s string) (Length, error) {
	for _, l := range Lengths {
		if string(l) == strings.ToLower(strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: length must be one of %s", shared.ErrInvalidInput, joinEnum(Lengths))
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// DreamImage is a generated illustration for one scene of a story.
type DreamImage struct {
	URL         string `json:"url" yaml:"url" validate:"required"`
	Scene       string `json:"scene" yaml:"scene"`
	Description string `json:"description" yaml:"description"`
	Prompt      string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// Dream is the canonical journal record shared by the local and remote stores.
//
// Audio holds a recording captured for voice input. It is never serialized.
type Dream struct {
	ID            string       `json:"id" yaml:"id"`
	OriginalDream string       `json:"originalDream" yaml:"originalDream" validate:"required"`
	Story         string       `json:"story,omitempty" yaml:"story,omitempty"`
	Analysis      string       `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Title         string       `json:"title" yaml:"title"`
	Tone          Tone         `json:"tone" yaml:"tone" validate:"omitempty,oneof=whimsical mystical adventurous gentle mysterious comedy"`
	Length        Length       `json:"length" yaml:"length" validate:"omitempty,oneof=short medium long"`
	Date          string       `json:"date" yaml:"date"`
	Images        []DreamImage `json:"images,omitempty" yaml:"images,omitempty" validate:"omitempty,dive"`
	InputMode     InputMode    `json:"inputMode" yaml:"inputMode" validate:"omitempty,oneof=text voice"`
	IsFavorite    bool         `json:"isFavorite" yaml:"isFavorite"`
	UserID        string       `json:"userId,omitempty" yaml:"userId,omitempty"`
	UserEmail     string       `json:"userEmail,omitempty" yaml:"userEmail,omitempty"`
	Mood          string       `json:"mood,omitempty" yaml:"mood,omitempty"`
	Lucidity      *int         `json:"lucidity,omitempty" yaml:"lucidity,omitempty"`
	Tags          []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt     string       `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt     string       `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Audio         []byte       `json:"-" yaml:"-"`
}

// Validate checks the struct tags on d and wraps failures in [shared.ErrInvalidInput].
func (d Dream) Validate() error {
	return validateStruct(d)
}

// WithDefaults fills the title, tone, length and input mode when they are empty.
func (d Dream) WithDefaults() Dream {
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.Tone == "" {
		d.Tone = ToneWhimsical
	}
	if d.Length == "" {
		d.Length = LengthMedium
	}
	if d.InputMode == "" {
		d.InputMode = InputText
	}
	return d
}

// ParsedDate returns the creation date, or the zero time when Date is not in [shared.DateLayout].
func (d Dream) ParsedDate() time.Time {
	t, _ := shared.ParseDate(d.Date)
	return t
}

// Equal reports whether d and other agree on every serialized field.
func (d Dream) Equal(other Dream) bool {
	if d.ID != other.ID || d.OriginalDream != other.OriginalDream || d.Story != other.Story ||
		d.Analysis != other.Analysis || d.Title != other.Title || d.Tone != other.Tone ||
		d.Length != other.Length || d.Date != other.Date || d.InputMode != other.InputMode ||
		d.IsFavorite != other.IsFavorite || d.UserID != other.UserID || d.UserEmail != other.UserEmail ||
		d.Mood != other.Mood || d.CreatedAt != other.CreatedAt || d.UpdatedAt != other.UpdatedAt {
		return false
	}
	if (d.Lucidity == nil) != (other.Lucidity == nil) || (d.Lucidity != nil && *d.Lucidity != *other.Lucidity) {
		return false
	}
	if len(d.Images) != len(other.Images) || len(d.Tags) != len(other.Tags) {
		return false
	}
	for i := range d.Images {
		if d.Images[i] != other.Images[i] {
			return false
		}
	}
	for i := range d.Tags {
		if d.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
