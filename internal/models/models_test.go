package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dreamsprout/internal/shared"
)

func TestDream(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			dream   Dream
			wantErr string
		}{
			{name: "valid", dream: Dream{OriginalDream: "I flew", Tone: ToneGentle, Length: LengthLong}},
			{name: "empty enums allowed", dream: Dream{OriginalDream: "I flew"}},
			{name: "missing text", dream: Dream{Title: "x"}, wantErr: "originalDream is required"},
			{name: "bad tone", dream: Dream{OriginalDream: "x", Tone: "grim"}, wantErr: "tone must be one of"},
			{name: "bad length", dream: Dream{OriginalDream: "x", Length: "epic"}, wantErr: "length must be one of"},
			{name: "image without url", dream: Dream{OriginalDream: "x", Images: []DreamImage{{Scene: "1"}}}, wantErr: "is required"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.dream.Validate()
				if tt.wantErr == "" {
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					return
				}
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
			})
		}
	})

	t.Run("WithDefaults", func(t *testing.T) {
		d := Dream{OriginalDream: "x"}.WithDefaults()
		if d.Title != DefaultTitle {
			t.Errorf("expected default title, got %q", d.Title)
		}
		if d.Tone != ToneWhimsical || d.Length != LengthMedium || d.InputMode != InputText {
			t.Errorf("unexpected defaults: %+v", d)
		}

		kept := Dream{Title: "Mine", Tone: ToneComedy}.WithDefaults()
		if kept.Title != "Mine" || kept.Tone != ToneComedy {
			t.Errorf("defaults overwrote set values: %+v", kept)
		}
	})

	t.Run("ParsedDate", func(t *testing.T) {
		if got := (Dream{Date: "Feb 3, 2024"}).ParsedDate(); got.Month() != time.February || got.Day() != 3 {
			t.Errorf("unexpected date %v", got)
		}
		if got := (Dream{Date: "yesterday"}).ParsedDate(); !got.IsZero() {
			t.Errorf("expected zero time, got %v", got)
		}
	})

	t.Run("Equal", func(t *testing.T) {
		a := Dream{ID: "1", OriginalDream: "x", Lucidity: Ptr(3), Tags: []string{"sky"}, Images: []DreamImage{{URL: "u"}}}
		b := a
		b.Lucidity = Ptr(3)
		b.Audio = []byte("ignored")
		if !a.Equal(b) {
			t.Error("expected equal dreams")
		}

		b.Tags = []string{"sea"}
		if a.Equal(b) {
			t.Error("expected tags to differ")
		}
	})
}

func TestEnums(t *testing.T) {
	t.Run("ParseTone", func(t *testing.T) {
		tone, err := ParseTone(" Mystical ")
		if err != nil || tone != ToneMystical {
			t.Errorf("expected mystical, got %q, %v", tone, err)
		}
		if _, err := ParseTone("grim"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("ParseLength", func(t *testing.T) {
		length, err := ParseLength("short")
		if err != nil || length != LengthShort {
			t.Errorf("expected short, got %q, %v", length, err)
		}
		if _, err := ParseLength("tiny"); err == nil {
			t.Error("expected error for unknown length")
		}
	})

	t.Run("Labels", func(t *testing.T) {
		for _, tone := range Tones {
			if tone.Label() == string(tone) {
				t.Errorf("tone %q has no label", tone)
			}
		}
	})
}

func TestDraft(t *testing.T) {
	t.Run("Validate trims text", func(t *testing.T) {
		d := Draft{OriginalDream: "   "}
		if err := d.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected whitespace-only dream to be rejected, got %v", err)
		}

		d = Draft{OriginalDream: "  I flew over mountains \n"}
		if err := d.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.OriginalDream != "I flew over mountains" {
			t.Errorf("expected trimmed text, got %q", d.OriginalDream)
		}
	})

	t.Run("Dream applies defaults", func(t *testing.T) {
		d := Draft{OriginalDream: "x", Length: LengthShort, Audio: []byte{1}}.Dream("42", "Jan 1, 2025")
		if d.ID != "42" || d.Date != "Jan 1, 2025" {
			t.Errorf("id/date not assigned: %+v", d)
		}
		if d.Title != DefaultTitle || d.Tone != ToneWhimsical || d.Length != LengthShort {
			t.Errorf("unexpected defaults: %+v", d)
		}
		if d.IsFavorite {
			t.Error("expected isFavorite to default to false")
		}
		if len(d.Audio) != 1 {
			t.Error("expected audio to be carried to the record")
		}
	})
}

func TestDreamPatch(t *testing.T) {
	base := Dream{ID: "1", OriginalDream: "x", Title: "Old", Story: "once", IsFavorite: true}

	t.Run("Apply only set fields", func(t *testing.T) {
		got := DreamPatch{Title: Ptr("New"), Story: Ptr("")}.Apply(base)
		if got.Title != "New" {
			t.Errorf("expected title New, got %q", got.Title)
		}
		if got.Story != "" {
			t.Errorf("expected explicit empty story, got %q", got.Story)
		}
		if !got.IsFavorite || got.OriginalDream != "x" {
			t.Errorf("unset fields changed: %+v", got)
		}
	})

	t.Run("Date is fixed", func(t *testing.T) {
		var p DreamPatch
		if err := json.Unmarshal([]byte(`{"title":"New","date":"Jan 1, 2020"}`), &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		dated := base
		dated.Date = "Jun 9, 2025"
		if got := p.Apply(dated); got.Date != "Jun 9, 2025" || got.Title != "New" {
			t.Errorf("expected date to survive the patch, got %+v", got)
		}
		var dateOnly DreamPatch
		if err := json.Unmarshal([]byte(`{"date":"Jan 1, 2020"}`), &dateOnly); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !dateOnly.IsEmpty() {
			t.Error("a date alone must not count as a change")
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		if !(DreamPatch{}).IsEmpty() {
			t.Error("expected zero patch to be empty")
		}
		if (DreamPatch{IsFavorite: Ptr(false)}).IsEmpty() {
			t.Error("expected patch with a false pointer to be non-empty")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (DreamPatch{Tone: Ptr(Tone("grim"))}).Validate(); err == nil {
			t.Error("expected invalid tone to fail")
		}
		if err := (DreamPatch{OriginalDream: Ptr("")}).Validate(); err == nil {
			t.Error("expected empty dream text to fail")
		}
		if err := (DreamPatch{Length: Ptr(LengthLong)}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPreferences(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p := DefaultPreferences()
		if p.Tone != ToneWhimsical || p.Length != LengthMedium || !p.GenerateImages || p.Voice != "alloy" || p.Speed != 1.0 || p.Autoplay {
			t.Errorf("unexpected defaults: %+v", p)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("Normalize", func(t *testing.T) {
		p := Preferences{Tone: ToneGentle}.Normalize()
		if p.Tone != ToneGentle || p.Length != LengthMedium || p.Voice != "alloy" || p.Speed != 1.0 {
			t.Errorf("unexpected normalized preferences: %+v", p)
		}
	})

	t.Run("Validate speed", func(t *testing.T) {
		p := DefaultPreferences()
		p.Speed = 9
		if err := p.Validate(); err == nil {
			t.Error("expected out of range speed to fail")
		}
	})
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	dreams := []Dream{
		{ID: "1", Date: "Mar 1, 2025", IsFavorite: true},
		{ID: "2", Date: "Mar 14, 2025"},
		{ID: "3", Date: "Mar 14, 2024", IsFavorite: true},
		{ID: "4", Date: "not a date"},
	}

	stats := ComputeStats(dreams, now)
	if stats.TotalDreams != 4 {
		t.Errorf("expected 4 dreams, got %d", stats.TotalDreams)
	}
	if stats.DreamsThisMonth != 2 {
		t.Errorf("expected 2 dreams this month, got %d", stats.DreamsThisMonth)
	}
	if stats.FavoriteDreams != 2 {
		t.Errorf("expected 2 favorites, got %d", stats.FavoriteDreams)
	}
	if stats.AverageLucidity != nil {
		t.Error("expected no lucidity average for local stats")
	}
}

func TestIdentity(t *testing.T) {
	tc := []struct {
		name     string
		identity Identity
		remote   bool
		label    string
	}{
		{name: "guest", identity: GuestIdentity(), remote: false, label: "guest"},
		{name: "signed in", identity: Identity{IsAuthenticated: true, Email: "a@b.c"}, remote: true, label: "signed in as a@b.c"},
		{name: "signed in as guest", identity: Identity{IsAuthenticated: true, IsGuest: true}, remote: false, label: "guest"},
		{name: "anonymous", identity: Identity{}, remote: false, label: "signed out"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.Remote(); got != tt.remote {
				t.Errorf("Remote() = %v, want %v", got, tt.remote)
			}
			if got := tt.identity.String(); got != tt.label {
				t.Errorf("String() = %q, want %q", got, tt.label)
			}
		})
	}
}
