package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

func mustCreateAccount(t *testing.T, r *gin.Engine, body string) domain.Account {
	t.Helper()
	w := perform(r, http.MethodPost, "/accounts", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /accounts = %d body=%s", w.Code, w.Body.String())
	}
	var a domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return a
}

func TestCreateAccount_Envelope(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	r := newTestRouter(h)

	// Malformed JSON → bad_request
	w := perform(r, http.MethodPost, "/accounts", `{"name":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON = %d, want 400", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBadRequest {
		t.Fatalf("envelope %s: %v", w.Body.String(), err)
	}

	// Missing token → validation_failed
	w = perform(r, http.MethodPost, "/accounts", `{"name":"Sam"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token = %d, want 400", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeValidation {
		t.Fatalf("envelope %s: %v", w.Body.String(), err)
	}

	// Valid payload → 201 with defaults applied
	a := mustCreateAccount(t, r, `{"name":"Sam Carter","api_token":"tok-1"}`)
	if a.ID == "" || a.VoiceTone != "professional" || !a.IsActive {
		t.Fatalf("created account = %+v", a)
	}
}

func TestAccountLifecycle(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	r := newTestRouter(h)
	a := mustCreateAccount(t, r, `{"name":"Sam Carter","api_token":"tok-1"}`)

	// List contains it
	w := perform(r, http.MethodGet, "/accounts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /accounts = %d", w.Code)
	}
	var all []domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil || len(all) != 1 {
		t.Fatalf("list = %s: %v", w.Body.String(), err)
	}

	// Partial update keeps untouched fields
	w = perform(r, http.MethodPut, "/accounts/"+a.ID, `{"voice_tone":"casual"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /accounts/{id} = %d body=%s", w.Code, w.Body.String())
	}
	var updated domain.Account
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.VoiceTone != "casual" || updated.Name != a.Name {
		t.Fatalf("update = %+v", updated)
	}

	// Delete, then 404 on fetch
	w = perform(r, http.MethodDelete, "/accounts/"+a.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", w.Code)
	}
	w = perform(r, http.MethodGet, "/accounts/"+a.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET deleted = %d, want 404", w.Code)
	}
}

func TestAccountUsage_AllActionTypes(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	r := newTestRouter(h)
	a := mustCreateAccount(t, r, `{"name":"Sam Carter","api_token":"tok-1"}`)

	w := perform(r, http.MethodGet, "/accounts/"+a.ID+"/usage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET usage = %d body=%s", w.Code, w.Body.String())
	}
	var usage map[string]struct {
		Used  int `json:"used"`
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &usage); err != nil {
		t.Fatalf("decode usage: %v", err)
	}
	for _, action := range []string{domain.ActionComment, domain.ActionConnectionRequest, domain.ActionMessage} {
		u, found := usage[action]
		if !found {
			t.Fatalf("usage missing %q: %v", action, usage)
		}
		if u.Used != 0 || u.Limit <= 0 {
			t.Fatalf("usage[%s] = %+v", action, u)
		}
	}
}

func TestAccountStats_UnknownAccount(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	r := newTestRouter(h)

	w := perform(r, http.MethodGet, "/accounts/141add05-4415-4938-b5a1-17e0d3171aff/stats", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("stats for unknown account = %d, want 404", w.Code)
	}
}
