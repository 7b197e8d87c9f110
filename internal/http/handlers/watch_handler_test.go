package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/repo"
	"github.com/nkoureas/go-engage-backend/internal/services"
)

func mustCreateWatch(t *testing.T, r *gin.Engine, accountID string) domain.WatchedAccount {
	t.Helper()
	body := fmt.Sprintf(`{"account_id":%q,"target_url":"https://linkedin.com/in/target","target_name":"Taylor Target"}`, accountID)
	w := perform(r, http.MethodPost, "/watches", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /watches = %d body=%s", w.Code, w.Body.String())
	}
	var wa domain.WatchedAccount
	if err := json.Unmarshal(w.Body.Bytes(), &wa); err != nil {
		t.Fatalf("decode watch: %v", err)
	}
	return wa
}

func TestCreateWatch_ValidationAndDefaults(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	r := newTestRouter(h)
	a := mustCreateAccount(t, r, `{"name":"Sam Carter","api_token":"tok-1"}`)

	body := fmt.Sprintf(`{"account_id":%q,"target_name":"No URL"}`, a.ID)
	w := perform(r, http.MethodPost, "/watches", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing url = %d, want 400", w.Code)
	}

	wa := mustCreateWatch(t, r, a.ID)
	if wa.CheckIntervalMins != 30 || !wa.IsActive {
		t.Fatalf("defaults = %+v", wa)
	}
}

func TestWatchUpdateAndEngagements(t *testing.T) {
	h, _, db := newTestHandlers(t)
	r := newTestRouter(h)
	a := mustCreateAccount(t, r, `{"name":"Sam Carter","api_token":"tok-1"}`)
	wa := mustCreateWatch(t, r, a.ID)

	// Update the cadence only
	w := perform(r, http.MethodPut, "/watches/"+wa.ID, `{"check_interval_mins":120}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT watch = %d body=%s", w.Code, w.Body.String())
	}
	var updated domain.WatchedAccount
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.CheckIntervalMins != 120 || updated.TargetName != wa.TargetName {
		t.Fatalf("update = %+v", updated)
	}

	// Seed engagements and page them.
	for i := 0; i < 3; i++ {
		_, err := repo.CreateEngagement(context.Background(), db, &domain.Engagement{
			WatchedAccountID: wa.ID,
			PostURL:          fmt.Sprintf("https://linkedin.com/posts/%d", i),
			Reacted:          true,
			ReactionType:     "like",
			Commented:        true,
			CommentText:      "insightful",
		})
		if err != nil {
			t.Fatalf("seed engagement: %v", err)
		}
	}
	w = perform(r, http.MethodGet, "/watches/"+wa.ID+"/engagements?page=2&page_size=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET engagements = %d", w.Code)
	}
	var page ListEngagementsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Engagements) != 1 || page.Pagination.Total != 3 || page.Pagination.HasNext {
		t.Fatalf("page = %+v", page)
	}

	// Deactivate
	if w = perform(r, http.MethodDelete, "/watches/"+wa.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE watch = %d", w.Code)
	}
}

func TestTriggerCheck(t *testing.T) {
	h, _, checker, _ := newTestHandlersFull(t)
	r := newTestRouter(h)

	const id = "141add05-4415-4938-b5a1-17e0d3171aff"

	checker.engaged = 2
	w := perform(r, http.MethodPost, "/watches/"+id+"/check", "")
	if w.Code != http.StatusOK {
		t.Fatalf("trigger = %d body=%s", w.Code, w.Body.String())
	}
	var resp CheckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.EngagementsMade != 2 {
		t.Fatalf("response %s: %v", w.Body.String(), err)
	}
	if checker.calledWith != id {
		t.Fatalf("checker called with %q", checker.calledWith)
	}

	checker.err = services.ErrWatchNotFound
	if w = perform(r, http.MethodPost, "/watches/"+id+"/check", ""); w.Code != http.StatusNotFound {
		t.Fatalf("not found = %d, want 404", w.Code)
	}
	checker.err = services.ErrWatchInactive
	if w = perform(r, http.MethodPost, "/watches/"+id+"/check", ""); w.Code != http.StatusConflict {
		t.Fatalf("inactive = %d, want 409", w.Code)
	}

	checker.err = fmt.Errorf("provider exploded")
	w = perform(r, http.MethodPost, "/watches/"+id+"/check", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("generic error = %d, want 500", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeTriggerFailed {
		t.Fatalf("envelope %s: %v", w.Body.String(), err)
	}
}
