package audit

import (
	"net/http"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Store Store
}

// List returns a page of the current store's audit trail.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	storeID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "store identifier is required", nil)
		return
	}
	pageNum, perPage := common.ParsePagination(r, 50, 200)
	page := common.NewPagination(pageNum, perPage, -1)

	rows, err := h.Store.ListAuditLogs(r.Context(), ListParams{
		StoreID: storeID,
		Limit:   int32(page.PerPage),
		Offset:  int32(page.Offset()),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	if rows == nil {
		rows = []Log{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": page,
	})
}
