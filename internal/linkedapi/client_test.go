package linkedapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nkoureas/go-engage-backend/internal/config"
	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// fakeProvider serves the submit+poll protocol, completing each workflow on
// the second status poll with the configured completion payload.
type fakeProvider struct {
	t          *testing.T
	completion any
	failWith   string

	submitted workflowStep
	polls     int
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /workflows", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("linked-api-token"); got != "key-123" {
			f.t.Errorf("linked-api-token = %q, want key-123", got)
		}
		if got := r.Header.Get("identification-token"); got != "ident-abc" {
			f.t.Errorf("identification-token = %q, want ident-abc", got)
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Fatalf("decode submit: %v", err)
		}
		f.submitted = req.Workflow
		json.NewEncoder(w).Encode(submitResponse{WorkflowID: "wf-1"})
	})
	mux.HandleFunc("GET /workflows/wf-1", func(w http.ResponseWriter, r *http.Request) {
		f.polls++
		if f.polls < 2 {
			json.NewEncoder(w).Encode(statusResponse{Status: "running"})
			return
		}
		if f.failWith != "" {
			json.NewEncoder(w).Encode(statusResponse{Status: "failed", Error: f.failWith})
			return
		}
		raw, err := json.Marshal(f.completion)
		if err != nil {
			f.t.Fatalf("marshal completion: %v", err)
		}
		json.NewEncoder(w).Encode(statusResponse{Status: "completed", Completion: raw})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(config.LinkedAPIConfig{
		BaseURL:         srv.URL,
		APIKey:          "key-123",
		PollInterval:    time.Millisecond,
		WorkflowTimeout: 2 * time.Second,
	}, "ident-abc")
}

func TestFetchCommentsSubmitsAndPolls(t *testing.T) {
	f := &fakeProvider{t: t, completion: commentsCompletion{Data: []Comment{
		{CommenterURL: "https://linkedin.com/in/alice", CommenterName: "Alice Doe", Text: "I want to build this"},
	}}}
	c := newTestClient(t, f)

	got, err := c.FetchComments(context.Background(), "https://linkedin.com/posts/1", 50)
	if err != nil {
		t.Fatalf("FetchComments: %v", err)
	}
	if len(got) != 1 || got[0].CommenterName != "Alice Doe" {
		t.Fatalf("comments = %+v", got)
	}
	if f.submitted.ActionType != "st.retrievePostComments" {
		t.Errorf("actionType = %q", f.submitted.ActionType)
	}
	if f.submitted.Sort != "mostRecent" || f.submitted.Limit != 50 {
		t.Errorf("sort/limit = %q/%d", f.submitted.Sort, f.submitted.Limit)
	}
	if f.polls < 2 {
		t.Errorf("polls = %d, want at least 2", f.polls)
	}
}

func TestPostCommentReportsSuccess(t *testing.T) {
	f := &fakeProvider{t: t, completion: successCompletion{Success: true}}
	c := newTestClient(t, f)

	ok, err := c.PostComment(context.Background(), "https://linkedin.com/posts/1", "great point")
	if err != nil || !ok {
		t.Fatalf("PostComment = %v, %v", ok, err)
	}
	if f.submitted.ActionType != "st.commentOnPost" || f.submitted.Text != "great point" {
		t.Errorf("submitted = %+v", f.submitted)
	}
}

func TestCheckConnectionNormalizesStatuses(t *testing.T) {
	cases := []struct {
		wire string
		want string
	}{
		{"connected", domain.ConnectionConnected},
		{"notConnected", domain.ConnectionNotConnected},
		{"pending", domain.ConnectionPending},
		{"somethingNew", domain.ConnectionUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.wire, func(t *testing.T) {
			comp := connectionCompletion{}
			comp.Data.ConnectionStatus = tc.wire
			f := &fakeProvider{t: t, completion: comp}
			c := newTestClient(t, f)

			got, err := c.CheckConnection(context.Background(), "https://linkedin.com/in/bob")
			if err != nil {
				t.Fatalf("CheckConnection: %v", err)
			}
			if got != tc.want {
				t.Errorf("status = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCheckConnectionFailureReturnsUnknown(t *testing.T) {
	f := &fakeProvider{t: t, failWith: "person not found"}
	c := newTestClient(t, f)

	got, err := c.CheckConnection(context.Background(), "https://linkedin.com/in/bob")
	if err == nil {
		t.Fatal("expected error")
	}
	if got != domain.ConnectionUnknown {
		t.Errorf("status = %q, want unknown", got)
	}
	if !strings.Contains(err.Error(), "person not found") {
		t.Errorf("err = %v", err)
	}
}

func TestSendConnectionRequestTruncatesNote(t *testing.T) {
	f := &fakeProvider{t: t, completion: successCompletion{Success: true}}
	c := newTestClient(t, f)

	long := strings.Repeat("x", 450)
	ok, err := c.SendConnectionRequest(context.Background(), "https://linkedin.com/in/bob", long)
	if err != nil || !ok {
		t.Fatalf("SendConnectionRequest = %v, %v", ok, err)
	}
	if len(f.submitted.Note) != 300 {
		t.Errorf("note length = %d, want 300", len(f.submitted.Note))
	}
}

func TestFetchRecentPostsUnwrapsNestedStep(t *testing.T) {
	comp := personPostsCompletion{}
	comp.Data.Then = []struct {
		Data []Post `json:"data"`
	}{{Data: []Post{{URL: "https://linkedin.com/posts/9", Text: "launch day"}}}}
	f := &fakeProvider{t: t, completion: comp}
	c := newTestClient(t, f)

	got, err := c.FetchRecentPosts(context.Background(), "https://linkedin.com/in/carol", 5, "")
	if err != nil {
		t.Fatalf("FetchRecentPosts: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://linkedin.com/posts/9" {
		t.Fatalf("posts = %+v", got)
	}
	if f.submitted.ActionType != "st.openPersonPage" {
		t.Errorf("root action = %q", f.submitted.ActionType)
	}
	if len(f.submitted.Then) != 1 || f.submitted.Then[0].ActionType != "st.retrievePersonPosts" {
		t.Errorf("nested steps = %+v", f.submitted.Then)
	}
}

func TestReactAndCommentComposesWorkflow(t *testing.T) {
	f := &fakeProvider{t: t, completion: successCompletion{Success: true}}
	c := newTestClient(t, f)

	ok, err := c.ReactAndComment(context.Background(), "https://linkedin.com/posts/9", "congrats!", "like")
	if err != nil || !ok {
		t.Fatalf("ReactAndComment = %v, %v", ok, err)
	}
	if f.submitted.ActionType != "st.openPost" {
		t.Errorf("root action = %q", f.submitted.ActionType)
	}
	if len(f.submitted.Then) != 2 {
		t.Fatalf("nested steps = %+v", f.submitted.Then)
	}
	if f.submitted.Then[0].ActionType != "st.reactToPost" || f.submitted.Then[0].Type != "like" {
		t.Errorf("react step = %+v", f.submitted.Then[0])
	}
	if f.submitted.Then[1].ActionType != "st.commentOnPost" || f.submitted.Then[1].Text != "congrats!" {
		t.Errorf("comment step = %+v", f.submitted.Then[1])
	}
}

func TestExecuteTimesOutOnStuckWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(submitResponse{WorkflowID: "wf-1"})
			return
		}
		json.NewEncoder(w).Encode(statusResponse{Status: "running"})
	}))
	defer srv.Close()

	c := NewClient(config.LinkedAPIConfig{
		BaseURL:         srv.URL,
		APIKey:          "key-123",
		PollInterval:    time.Millisecond,
		WorkflowTimeout: 50 * time.Millisecond,
	}, "ident-abc")

	_, err := c.PostComment(context.Background(), "https://linkedin.com/posts/1", "hi")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
