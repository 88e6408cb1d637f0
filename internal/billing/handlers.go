package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// InvoiceIDHeader echoes the id of a newly created invoice.
const InvoiceIDHeader = "X-Invoice-ID"

// Handler exposes quote and invoice endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Quote handles POST /api/v1/billing/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	storeID, _ := tenant.FromContext(r.Context())
	quote, err := h.service.Quote(r.Context(), storeID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// CreateInvoice handles POST /api/v1/invoices.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	storeID, _ := tenant.FromContext(r.Context())
	inv, err := h.service.CreateInvoice(r.Context(), storeID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/invoices/"+inv.ID)
	w.Header().Set(InvoiceIDHeader, inv.ID)
	common.JSON(w, http.StatusCreated, map[string]any{"data": inv})
}

// GetInvoice handles GET /api/v1/invoices/{id}.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	storeID, _ := tenant.FromContext(r.Context())
	inv, err := h.service.GetInvoice(r.Context(), storeID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}

// ListInvoices handles GET /api/v1/invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	storeID, _ := tenant.FromContext(r.Context())
	page, perPage := common.ParsePagination(r, 20, 100)
	items, total, err := h.service.ListInvoices(r.Context(), storeID, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []Invoice{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

func writeError(w http.ResponseWriter, err error) {
	var verr *tax.ValidationError
	if errors.As(err, &verr) {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid billing input", verr.Fields)
		return
	}
	common.WriteError(w, err)
}
