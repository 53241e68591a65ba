package models

// Preferences are the per-device defaults used when creating dreams and playing them back.
type Preferences struct {
	Tone           Tone    `json:"tone" yaml:"tone" validate:"oneof=whimsical mystical adventurous gentle mysterious comedy"`
	Length         Length  `json:"length" yaml:"length" validate:"oneof=short medium long"`
	GenerateImages bool    `json:"generateImages" yaml:"generateImages"`
	Voice          string  `json:"voice" yaml:"voice" validate:"required"`
	Speed          float64 `json:"speed" yaml:"speed" validate:"gte=0.25,lte=4"`
	Autoplay       bool    `json:"autoplay" yaml:"autoplay"`
}

// DefaultPreferences returns the preferences used before the user changes anything.
func DefaultPreferences() Preferences {
	return Preferences{
		Tone:           ToneWhimsical,
		Length:         LengthMedium,
		GenerateImages: true,
		Voice:          "alloy",
		Speed:          1.0,
		Autoplay:       false,
	}
}

// Normalize replaces missing or out of range values with their defaults.
func (p Preferences) Normalize() Preferences {
	def := DefaultPreferences()
	if p.Tone == "" {
		p.Tone = def.Tone
	}
	if p.Length == "" {
		p.Length = def.Length
	}
	if p.Voice == "" {
		p.Voice = def.Voice
	}
	if p.Speed == 0 {
		p.Speed = def.Speed
	}
	return p
}

// Validate checks the preferences' struct tags.
func (p Preferences) Validate() error {
	return validateStruct(p)
}
