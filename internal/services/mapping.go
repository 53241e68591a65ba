package services

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/dreamsprout/internal/models"
)

// fieldMapping pairs a canonical [models.Dream] JSON field with the backend's name for it.
//
// Conversions are nil when the value passes through unchanged.
type fieldMapping struct {
	canonical   string
	server      string
	toServer    func(any) any
	toCanonical func(any) any
}

// dreamFields is the single source of truth for translating between the two shapes.
var dreamFields = []fieldMapping{
	{canonical: "id", server: "id"},
	{canonical: "title", server: "title"},
	{canonical: "originalDream", server: "dreamText"},
	{canonical: "story", server: "story"},
	{canonical: "analysis", server: "analysis"},
	{canonical: "tone", server: "storyTone"},
	{canonical: "length", server: "storyLength"},
	{canonical: "inputMode", server: "hasAudio", toServer: inputModeToHasAudio, toCanonical: hasAudioToInputMode},
	{canonical: "images", server: "images"},
	{canonical: "isFavorite", server: "isFavorite"},
	{canonical: "date", server: "date"},
	{canonical: "userId", server: "userId"},
	{canonical: "userEmail", server: "userEmail"},
	{canonical: "mood", server: "mood"},
	{canonical: "lucidity", server: "lucidity"},
	{canonical: "tags", server: "tags"},
	{canonical: "createdAt", server: "createdAt"},
	{canonical: "updatedAt", server: "updatedAt"},
}

func inputModeToHasAudio(v any) any {
	mode, _ := v.(string)
	return mode == string(models.InputVoice)
}

func hasAudioToInputMode(v any) any {
	if hasAudio, _ := v.(bool); hasAudio {
		return string(models.InputVoice)
	}
	return string(models.InputText)
}

// ServerField returns the backend name of a canonical field.
func ServerField(canonical string) (string, bool) {
	for _, f := range dreamFields {
		if f.canonical == canonical {
			return f.server, true
		}
	}
	return "", false
}

// CanonicalField returns the canonical name of a backend field.
func CanonicalField(server string) (string, bool) {
	for _, f := range dreamFields {
		if f.server == server {
			return f.canonical, true
		}
	}
	return "", false
}

// ToServer renames and converts canonical fields to the backend shape. Unknown fields are dropped.
func ToServer(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range dreamFields {
		v, ok := fields[f.canonical]
		if !ok {
			continue
		}
		if f.toServer != nil {
			v = f.toServer(v)
		}
		out[f.server] = v
	}
	return out
}

// ToCanonical renames and converts backend fields to the canonical shape. Unknown fields are dropped.
func ToCanonical(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range dreamFields {
		v, ok := fields[f.server]
		if !ok || v == nil {
			continue
		}
		if f.toCanonical != nil {
			v = f.toCanonical(v)
		}
		out[f.canonical] = v
	}
	return out
}

// patchFields lists the canonical fields a patch sets.
func patchFields(p models.DreamPatch) map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.OriginalDream != nil {
		fields["originalDream"] = *p.OriginalDream
	}
	if p.Story != nil {
		fields["story"] = *p.Story
	}
	if p.Analysis != nil {
		fields["analysis"] = *p.Analysis
	}
	if p.Tone != nil {
		fields["tone"] = string(*p.Tone)
	}
	if p.Length != nil {
		fields["length"] = string(*p.Length)
	}
	if p.Images != nil {
		fields["images"] = p.Images
	}
	if p.IsFavorite != nil {
		fields["isFavorite"] = *p.IsFavorite
	}
	return fields
}

// createFields is the canonical form of a new dream sent to the backend.
//
// Tags are always sent empty; optional fields are omitted when unset.
func createFields(d models.Dream) map[string]any {
	fields := map[string]any{
		"title":         d.Title,
		"originalDream": d.OriginalDream,
		"tone":          string(d.Tone),
		"length":        string(d.Length),
		"inputMode":     string(d.InputMode),
		"isFavorite":    d.IsFavorite,
		"tags":          []string{},
	}
	if d.Story != "" {
		fields["story"] = d.Story
	}
	if d.Images != nil {
		fields["images"] = d.Images
	}
	return fields
}

// decodeServerDream converts one backend dream object into a canonical record.
//
// Older responses already use "originalDream"; it is used when "dreamText" is empty.
func decodeServerDream(raw json.RawMessage) (models.Dream, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Dream{}, fmt.Errorf("failed to decode dream: %w", err)
	}
	if fields == nil {
		return models.Dream{}, fmt.Errorf("failed to decode dream: null object")
	}

	canonical := ToCanonical(fields)
	if text, _ := canonical["originalDream"].(string); text == "" {
		if legacy, ok := fields["originalDream"].(string); ok {
			canonical["originalDream"] = legacy
		}
	}
	if _, ok := canonical["inputMode"]; !ok {
		canonical["inputMode"] = string(models.InputText)
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return models.Dream{}, fmt.Errorf("failed to encode dream: %w", err)
	}

	var d models.Dream
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Dream{}, fmt.Errorf("failed to decode dream: %w", err)
	}
	return d, nil
}

// decodeDreamList accepts either a bare array or a {"dreams": [...]} envelope.
func decodeDreamList(body []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var envelope struct {
		Dreams []json.RawMessage `json:"dreams"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected dream list shape: %w", err)
	}
	return envelope.Dreams, nil
}
