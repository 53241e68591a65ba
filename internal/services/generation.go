package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/desertthunder/dreamsprout/internal/models"
)

// Defaults for [Client.TextToSpeech] and [Client.Transcribe].
const (
	DefaultVoice         = "alloy"
	DefaultSpeed         = 1.0
	DefaultAudioFilename = "dream.wav"
)

// Analysis is the result of [Client.AnalyzeDream].
//
// Saved and AnalysisID are only set when the request was authenticated and named a stored dream.
type Analysis struct {
	Analysis   string   `json:"analysis"`
	Themes     []string `json:"themes,omitempty"`
	Emotions   []string `json:"emotions,omitempty"`
	Saved      bool     `json:"saved,omitempty"`
	AnalysisID string   `json:"analysisId,omitempty"`
}

// Transcribe uploads a recording as the multipart field "audio" and returns its text.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	const op = "transcribe audio"
	if filename == "" {
		filename = DefaultAudioFilename
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create form: %w", op, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("%s: failed to read audio: %w", op, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to finish form: %w", op, err)
	}

	var resp struct {
		Text string `json:"text"`
	}
	r := request{op: op, method: http.MethodPost, path: "/transcribe", raw: buf.Bytes(), contentType: form.FormDataContentType()}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateTitle asks the backend for a short title for dreamText.
func (c *Client) GenerateTitle(ctx context.Context, dreamText string) (string, error) {
	var resp struct {
		Title string `json:"title"`
	}
	body := map[string]string{"dreamText": dreamText}
	r := request{op: "generate title", method: http.MethodPost, path: "/generate-title", body: body}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Title), nil
}

// GenerateStory turns dreamText into a story in the given tone and length.
func (c *Client) GenerateStory(ctx context.Context, dreamText string, tone models.Tone, length models.Length) (string, error) {
	var resp struct {
		Story string `json:"story"`
	}
	body := map[string]string{"dreamText": dreamText, "tone": string(tone), "length": string(length)}
	r := request{op: "generate story", method: http.MethodPost, path: "/generate-story", body: body}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return resp.Story, nil
}

// GenerateImages illustrates story. When skip is set no request is made and the result is empty.
func (c *Client) GenerateImages(ctx context.Context, story string, tone models.Tone, skip bool) ([]models.DreamImage, error) {
	if skip {
		return []models.DreamImage{}, nil
	}

	var resp struct {
		Images []models.DreamImage `json:"images"`
	}
	body := map[string]string{"story": story, "tone": string(tone)}
	r := request{op: "generate images", method: http.MethodPost, path: "/generate-images", body: body}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return nil, err
	}
	if resp.Images == nil {
		resp.Images = []models.DreamImage{}
	}
	return resp.Images, nil
}

// AnalyzeDream requests an interpretation of dreamText.
//
// The token is optional; with one and a dreamID the backend also stores the analysis.
func (c *Client) AnalyzeDream(ctx context.Context, token, dreamText, dreamID string) (*Analysis, error) {
	body := map[string]string{"dreamText": dreamText}
	if dreamID != "" {
		body["dreamId"] = dreamID
	}

	var resp Analysis
	r := request{op: "analyze dream", method: http.MethodPost, path: "/analyze-dream", token: token, body: body}
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TextToSpeech returns encoded audio of text read aloud.
//
// An empty voice or a non-positive speed fall back to [DefaultVoice] and [DefaultSpeed].
func (c *Client) TextToSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	if speed <= 0 {
		speed = DefaultSpeed
	}

	body := map[string]any{"text": text, "voice": voice, "speed": speed}
	return c.do(ctx, request{op: "text to speech", method: http.MethodPost, path: "/text-to-speech", body: body, accept: "audio/*"})
}
