package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/backend-pos/internal/tenant"
)

func TestHandlerList(t *testing.T) {
	store := &stubStore{}
	h := Handler{Store: store}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs?limit=25&page=3", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), "store-1"))
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.listArg.StoreID != "store-1" || store.listArg.Limit != 25 || store.listArg.Offset != 50 {
		t.Fatalf("unexpected list params: %+v", store.listArg)
	}
	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data) != 1 {
		t.Fatalf("expected one log entry, got %d", len(payload.Data))
	}
}

func TestHandlerListRequiresStore(t *testing.T) {
	h := Handler{Store: &stubStore{}}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
