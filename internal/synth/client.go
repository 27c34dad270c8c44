// Package synth renders cleaned script text to speech with ElevenLabs.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/iksnae/hypnojourney/internal"
)

// VoiceSettings is sent with every request.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakingRate    float64 `json:"speaking_rate"`
}

// DefaultVoiceSettings are slow, stable settings suited to guided relaxation.
var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.98,
	SimilarityBoost: 0.75,
	Style:           0.15,
	SpeakingRate:    0.7,
}

type speechRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Audio is a synthesized payload.
type Audio struct {
	Data        []byte
	ContentType string
}

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the text-to-speech endpoint. One request per call, no retries.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = internal.DefaultElevenLabsBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: internal.DefaultHTTPTimeout}
	}
	return &Client{apiKey: cfg.APIKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ErrNoSpeakableText is returned when nothing is left after cleaning.
var ErrNoSpeakableText = errors.New("script has no speakable text")

// Synthesize renders script in the voice for lang. Progress is measured:
// 0 when the request starts, then bytes received / Content-Length. When the
// server sends no length, only 0 and 100 are reported. Every failure is a
// *internal.PipelineError of kind AudioSynthesisFailed.
func (c *Client) Synthesize(ctx context.Context, script internal.GeneratedScript, lang internal.Language, onProgress func(percent float64)) (Audio, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	onProgress(0)

	audio, err := c.synthesize(ctx, CleanText(script.RawText), VoiceFor(lang), onProgress)
	if err != nil {
		internal.LogDebug("audio synthesis (%s) failed: %v", lang, err)
		return Audio{}, internal.NewAudioSynthesisError(err)
	}
	onProgress(100)
	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, text, voiceID string, onProgress func(percent float64)) (Audio, error) {
	if text == "" {
		return Audio{}, ErrNoSpeakableText
	}

	body, err := sonic.Marshal(speechRequest{Text: text, VoiceSettings: DefaultVoiceSettings})
	if err != nil {
		return Audio{}, fmt.Errorf("marshal elevenlabs request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("create elevenlabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Audio{}, fmt.Errorf("tts status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	data, err := io.ReadAll(&countingReader{r: resp.Body, total: resp.ContentLength, onProgress: onProgress})
	if err != nil {
		return Audio{}, fmt.Errorf("read tts response: %w", err)
	}
	if len(data) == 0 {
		return Audio{}, errors.New("tts returned an empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	internal.LogDebug("synthesized %d bytes (%s) with voice %s", len(data), contentType, voiceID)
	return Audio{Data: data, ContentType: contentType}, nil
}

// countingReader reports read progress against a known total
type countingReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       float64
	onProgress func(percent float64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if n > 0 && c.total > 0 {
		pct := float64(c.read) / float64(c.total) * 100
		if pct > 100 {
			pct = 100
		}
		if pct > c.last {
			c.last = pct
			c.onProgress(pct)
		}
	}
	return n, err
}
