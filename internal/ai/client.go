// Package ai generates the human-facing text the automation sends: comment
// replies, direct messages, and insightful comments on watched accounts'
// posts. It talks to the Anthropic Messages API over plain HTTP.
//
// Generation is best-effort from the orchestrators' point of view: a failed
// or blank generation skips the action rather than failing the pass.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkoureas/go-engage-backend/internal/config"
)

// ErrBlankOutput is returned when the model produced no usable text. Callers
// must not send an empty comment or message.
var ErrBlankOutput = errors.New("ai: model returned blank output")

// ReplyInput carries the context for a public reply to a matched comment.
type ReplyInput struct {
	OriginalComment    string
	CommenterName      string
	PostTopic          string
	CTAHint            string
	VoiceTone          string
	CustomInstructions string
}

// DMInput carries the context for a personalized direct message to a lead.
type DMInput struct {
	LeadName           string
	LeadHeadline       string
	PostTopic          string
	CTAType            string
	CTAValue           string
	CTAMessage         string
	CustomInstructions string
}

// CommentInput carries the context for an insightful comment on a watched
// account's post.
type CommentInput struct {
	PostContent    string
	AuthorName     string
	AuthorHeadline string
	Expertise      []string
	Tone           string
	CommentStyle   string
	SampleComments []string
}

// Generator produces outbound text. The orchestration core depends on this
// interface so tests can substitute canned generators.
type Generator interface {
	GenerateReply(ctx context.Context, in ReplyInput) (string, error)
	GenerateDM(ctx context.Context, in DMInput) (string, error)
	GenerateInsightfulComment(ctx context.Context, in CommentInput) (string, error)
}

// Client implements Generator against the Anthropic Messages API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.AnthropicConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one user prompt and returns the trimmed text of the first
// content block.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Error != nil {
			return "", fmt.Errorf("ai: %s: %s", out.Error.Type, out.Error.Message)
		}
		return "", fmt.Errorf("ai: request failed (status %d)", resp.StatusCode)
	}
	if len(out.Content) == 0 {
		return "", ErrBlankOutput
	}
	text := strings.TrimSpace(out.Content[0].Text)
	if text == "" {
		return "", ErrBlankOutput
	}
	return text, nil
}

// GenerateReply implements Generator.
func (c *Client) GenerateReply(ctx context.Context, in ReplyInput) (string, error) {
	return c.complete(ctx, buildReplyPrompt(in), 200)
}

// GenerateDM implements Generator.
func (c *Client) GenerateDM(ctx context.Context, in DMInput) (string, error) {
	return c.complete(ctx, buildDMPrompt(in), 300)
}

// GenerateInsightfulComment implements Generator.
func (c *Client) GenerateInsightfulComment(ctx context.Context, in CommentInput) (string, error) {
	return c.complete(ctx, buildCommentPrompt(in), 250)
}

var _ Generator = (*Client)(nil)
