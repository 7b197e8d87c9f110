// Wire types for the external action-execution service. A submitted
// "workflow" runs asynchronously on the provider side and is polled to
// completion; the completion payload shape depends on the action submitted.
package linkedapi

import "encoding/json"

// Comment is one comment fetched from a post.
type Comment struct {
	CommenterURL      string `json:"commenterUrl"`
	CommenterName     string `json:"commenterName"`
	CommenterHeadline string `json:"commenterHeadline"`
	Text              string `json:"text"`
	Time              string `json:"time"`
}

// Post is one post fetched from a person's feed.
type Post struct {
	URL  string `json:"url"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// workflowStep is a single provider action, optionally followed by nested
// steps executed on the opened page.
type workflowStep struct {
	ActionType string         `json:"actionType"`
	PostURL    string         `json:"postUrl,omitempty"`
	PersonURL  string         `json:"personUrl,omitempty"`
	Text       string         `json:"text,omitempty"`
	Note       string         `json:"note,omitempty"`
	Sort       string         `json:"sort,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Since      string         `json:"since,omitempty"`
	Type       string         `json:"type,omitempty"`
	BasicInfo  *bool          `json:"basicInfo,omitempty"`
	Then       []workflowStep `json:"then,omitempty"`
}

// submitRequest wraps a workflow for submission.
type submitRequest struct {
	Workflow workflowStep `json:"workflow"`
}

// submitResponse carries the identifier used to poll for completion.
type submitResponse struct {
	WorkflowID string `json:"workflowId"`
}

// statusResponse is the polled state of a running workflow.
type statusResponse struct {
	Status     string          `json:"status"` // running|completed|failed
	Completion json.RawMessage `json:"completion"`
	Error      string          `json:"error"`
}

// successCompletion is the completion payload of write actions.
type successCompletion struct {
	Success bool `json:"success"`
}

// commentsCompletion is the completion payload of a comment fetch.
type commentsCompletion struct {
	Data []Comment `json:"data"`
}

// connectionCompletion is the completion payload of a connection check.
type connectionCompletion struct {
	Data struct {
		ConnectionStatus string `json:"connectionStatus"`
	} `json:"data"`
}

// personPostsCompletion is the completion payload of a person-page fetch
// with a nested post-retrieval step.
type personPostsCompletion struct {
	Data struct {
		Then []struct {
			Data []Post `json:"data"`
		} `json:"then"`
	} `json:"data"`
}
