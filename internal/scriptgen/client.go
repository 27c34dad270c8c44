// Package scriptgen drafts hypnosis scripts with a chat-completion model.
package scriptgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iksnae/hypnojourney/internal"
)

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// MaxTokens caps StyleTest replies; 0 leaves the server default.
	MaxTokens  int
	Style      Style
	HTTPClient *http.Client
}

// Client calls the chat-completion endpoint. One request per call, no retries.
type Client struct {
	api *openai.Client
	cfg Config
}

// New creates a Client from cfg, filling defaults for empty fields.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = internal.DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = internal.DefaultModel
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}
}

// Style reports which prompt the client sends.
func (c *Client) Style() Style { return c.cfg.Style }

// Generate drafts a script for req. Progress is synthetic: 10 before the
// request is sent and 100 once a usable reply arrives. Every failure is a
// *internal.PipelineError of kind ScriptGenerationFailed.
func (c *Client) Generate(ctx context.Context, req internal.SessionRequest, onProgress func(percent float64)) (internal.GeneratedScript, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	messages, maxTokens, err := c.scriptMessages(req)
	if err != nil {
		return internal.GeneratedScript{}, internal.NewScriptGenerationError(err)
	}

	onProgress(10)
	content, err := c.complete(ctx, messages, maxTokens)
	if err != nil {
		internal.LogDebug("script generation (%s, %s) failed: %v", c.cfg.Style, req.SessionType, err)
		return internal.GeneratedScript{}, internal.NewScriptGenerationError(err)
	}
	onProgress(100)

	internal.LogDebug("script generated for %s (%d chars)", req.SessionType, len(content))
	return internal.GeneratedScript{RawText: content}, nil
}

func (c *Client) scriptMessages(req internal.SessionRequest) ([]openai.ChatCompletionMessage, int, error) {
	if c.cfg.Style == StyleConsultation {
		user, err := consultationUserPrompt(req.SessionType, req.Transcript())
		if err != nil {
			return nil, 0, err
		}
		return []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: consultationScriptSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		}, 0, nil
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: testSystemPrompt(req.Language)},
		{Role: openai.ChatMessageRoleUser, Content: testUserPrompt(req.SessionType)},
	}, c.cfg.MaxTokens, nil
}

// Reply answers the latest user turn of a consultation. transcript must
// include the greeting and the user turn being answered.
func (c *Client) Reply(ctx context.Context, st internal.SessionType, transcript []internal.ChatTurn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: consultationChatPrompt(st),
	})
	for _, turn := range transcript {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    convertRole(turn.Speaker),
			Content: turn.Text,
		})
	}

	content, err := c.complete(ctx, messages, 0)
	if err != nil {
		internal.LogDebug("consultation reply failed: %v", err)
		return "", fmt.Errorf("consultation reply failed: %w", err)
	}
	return content, nil
}

// ErrEmptyReply is returned when the model answers without usable content.
var ErrEmptyReply = errors.New("model returned no content")

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", describe(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyReply)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty message", ErrEmptyReply)
	}
	return content, nil
}

// describe keeps the HTTP status of API failures in the error chain
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion returned %d: %w", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat completion returned %d: %w", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("chat completion request failed: %w", err)
}

func convertRole(s internal.Speaker) string {
	if s == internal.SpeakerAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
