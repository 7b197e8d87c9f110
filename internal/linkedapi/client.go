// Package linkedapi is the adapter to the external platform-action service.
// It exposes the Actions contract consumed by the orchestrators and a
// HTTP implementation that submits a workflow and polls it to completion
// behind a single blocking call with a hard timeout.
//
// Every call is fallible and may time out; callers treat any non-success as
// skip-and-log, never as fatal for the surrounding pass.
package linkedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkoureas/go-engage-backend/internal/config"
	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// ErrWorkflowTimeout is returned when a submitted workflow does not reach a
// terminal state within the configured deadline. It is a failed action, not a
// reason to abort the orchestrator pass.
var ErrWorkflowTimeout = errors.New("linkedapi: workflow timed out")

// Note text is capped by the platform.
const maxNoteLen = 300

// Actions is the contract the orchestration core depends on. Implementations
// perform one platform action per call and block until it finishes or fails.
type Actions interface {
	// FetchComments returns up to limit recent comments on a post.
	FetchComments(ctx context.Context, postURL string, limit int) ([]Comment, error)

	// PostComment publishes a comment under a post.
	PostComment(ctx context.Context, postURL, text string) (bool, error)

	// CheckConnection reports the relationship with a person as one of the
	// domain connection statuses. On a failed check it returns
	// domain.ConnectionUnknown together with the error.
	CheckConnection(ctx context.Context, personURL string) (string, error)

	// SendConnectionRequest sends an invite, optionally with a note.
	SendConnectionRequest(ctx context.Context, personURL, note string) (bool, error)

	// SendMessage delivers a direct message to a connected person.
	SendMessage(ctx context.Context, personURL, text string) (bool, error)

	// FetchRecentPosts returns up to limit posts from a person's feed,
	// optionally restricted to posts after since (RFC 3339).
	FetchRecentPosts(ctx context.Context, personURL string, limit int, since string) ([]Post, error)

	// ReactAndComment reacts to a post and comments on it in one workflow.
	ReactAndComment(ctx context.Context, postURL, text, reaction string) (bool, error)
}

// Factory builds an Actions client bound to one account's identification
// token. Orchestrators call it per account at the start of a unit of work.
type Factory func(identificationToken string) Actions

// Client is the HTTP implementation of Actions.
type Client struct {
	baseURL         string
	apiKey          string
	identToken      string
	httpc           *http.Client
	pollInterval    time.Duration
	workflowTimeout time.Duration
}

// NewClient constructs a client for one account's identification token.
func NewClient(cfg config.LinkedAPIConfig, identToken string) *Client {
	return &Client{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		identToken:      identToken,
		httpc:           &http.Client{Timeout: 30 * time.Second},
		pollInterval:    cfg.PollInterval,
		workflowTimeout: cfg.WorkflowTimeout,
	}
}

// NewFactory returns a Factory closing over the service configuration.
func NewFactory(cfg config.LinkedAPIConfig) Factory {
	return func(identToken string) Actions { return NewClient(cfg, identToken) }
}

// execute submits a workflow and polls until it completes, fails, or the
// deadline passes. The provider executes asynchronously, so this is the
// bounded retry-with-sleep loop hidden behind every Actions method.
func (c *Client) execute(ctx context.Context, wf workflowStep) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.workflowTimeout)
	defer cancel()

	body, err := json.Marshal(submitRequest{Workflow: wf})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/workflows", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("linkedapi: submit failed (status %d): %s", resp.StatusCode, b)
	}

	var submitted submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, fmt.Errorf("linkedapi: decode submit response: %w", err)
	}
	if submitted.WorkflowID == "" {
		return nil, errors.New("linkedapi: submit response missing workflowId")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrWorkflowTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}

		st, err := c.pollOnce(ctx, submitted.WorkflowID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrWorkflowTimeout
			}
			return nil, err
		}
		switch st.Status {
		case "completed":
			return st.Completion, nil
		case "failed":
			msg := st.Error
			if msg == "" {
				msg = "workflow failed"
			}
			return nil, fmt.Errorf("linkedapi: %s", msg)
		}
	}
}

func (c *Client) pollOnce(ctx context.Context, workflowID string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/workflows/"+workflowID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("linkedapi: decode status response: %w", err)
	}
	return &st, nil
}

// setHeaders centralizes the two required credentials: the shared API key
// and the per-account identification token.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("linked-api-token", c.apiKey)
	req.Header.Set("identification-token", c.identToken)
	req.Header.Set("Content-Type", "application/json")
}

// FetchComments implements Actions.
func (c *Client) FetchComments(ctx context.Context, postURL string, limit int) ([]Comment, error) {
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.retrievePostComments",
		PostURL:    postURL,
		Sort:       "mostRecent",
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	var out commentsCompletion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PostComment implements Actions.
func (c *Client) PostComment(ctx context.Context, postURL, text string) (bool, error) {
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.commentOnPost",
		PostURL:    postURL,
		Text:       text,
	})
	if err != nil {
		return false, err
	}
	return decodeSuccess(raw)
}

// CheckConnection implements Actions. Provider statuses are normalized to
// the domain vocabulary; anything unrecognized (and any failure) maps to
// unknown.
func (c *Client) CheckConnection(ctx context.Context, personURL string) (string, error) {
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.checkConnectionStatus",
		PersonURL:  personURL,
	})
	if err != nil {
		return domain.ConnectionUnknown, err
	}
	var out connectionCompletion
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.ConnectionUnknown, err
	}
	switch out.Data.ConnectionStatus {
	case "connected":
		return domain.ConnectionConnected, nil
	case "notConnected":
		return domain.ConnectionNotConnected, nil
	case "pending":
		return domain.ConnectionPending, nil
	default:
		return domain.ConnectionUnknown, nil
	}
}

// SendConnectionRequest implements Actions. Notes are truncated to the
// platform's 300-character limit.
func (c *Client) SendConnectionRequest(ctx context.Context, personURL, note string) (bool, error) {
	if len(note) > maxNoteLen {
		note = note[:maxNoteLen]
	}
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.sendConnectionRequest",
		PersonURL:  personURL,
		Note:       note,
	})
	if err != nil {
		return false, err
	}
	return decodeSuccess(raw)
}

// SendMessage implements Actions.
func (c *Client) SendMessage(ctx context.Context, personURL, text string) (bool, error) {
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.sendMessage",
		PersonURL:  personURL,
		Text:       text,
	})
	if err != nil {
		return false, err
	}
	return decodeSuccess(raw)
}

// FetchRecentPosts implements Actions.
func (c *Client) FetchRecentPosts(ctx context.Context, personURL string, limit int, since string) ([]Post, error) {
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.openPersonPage",
		PersonURL:  personURL,
		Then: []workflowStep{{
			ActionType: "st.retrievePersonPosts",
			Limit:      limit,
			Since:      since,
		}},
	})
	if err != nil {
		return nil, err
	}
	var out personPostsCompletion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if len(out.Data.Then) == 0 {
		return nil, nil
	}
	return out.Data.Then[0].Data, nil
}

// ReactAndComment implements Actions.
func (c *Client) ReactAndComment(ctx context.Context, postURL, text, reaction string) (bool, error) {
	basicInfo := false
	raw, err := c.execute(ctx, workflowStep{
		ActionType: "st.openPost",
		PostURL:    postURL,
		BasicInfo:  &basicInfo,
		Then: []workflowStep{
			{ActionType: "st.reactToPost", Type: reaction},
			{ActionType: "st.commentOnPost", Text: text},
		},
	})
	if err != nil {
		return false, err
	}
	return decodeSuccess(raw)
}

func decodeSuccess(raw json.RawMessage) (bool, error) {
	var out successCompletion
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}
