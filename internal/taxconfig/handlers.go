package taxconfig

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-pos/internal/audit"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// Auditor records configuration changes.
type Auditor interface {
	Record(ctx context.Context, actor audit.Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error
}

// Handler exposes the tax configuration endpoints.
type Handler struct {
	service *Service
	audit   Auditor
	onError func(error)
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Audit   Auditor
	// OnAuditError receives audit write failures; they never fail the request.
	OnAuditError func(error)
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, audit: cfg.Audit, onError: cfg.OnAuditError}
}

// Get handles GET /api/v1/tax-config.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tax config service not configured", nil)
		return
	}
	storeID, _ := tenant.FromContext(r.Context())
	rec, err := h.service.Get(r.Context(), storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("ETag", etag(rec.Version))
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

// Put handles PUT /api/v1/tax-config. An If-Match header carrying the
// current version makes the update conditional.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tax config service not configured", nil)
		return
	}
	var cfg tax.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "If-Match must be a version number", nil)
		return
	}

	storeID, _ := tenant.FromContext(r.Context())
	rec, err := h.service.Put(r.Context(), storeID, cfg, expected)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.audit != nil {
		meta, _ := json.Marshal(map[string]any{"version": rec.Version, "country": rec.Config.Country})
		if err := h.audit.Record(r.Context(), audit.ActorFromRequest(r), audit.ActionTaxConfigUpdate, "tax_config", storeID, r, http.StatusOK, meta); err != nil && h.onError != nil {
			h.onError(err)
		}
	}

	w.Header().Set("ETag", etag(rec.Version))
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseIfMatch accepts a strong or weak entity tag, or a bare number. An
// empty header or "*" leaves the update unconditional.
func parseIfMatch(v string) (int64, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	if v == "" || v == "*" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("invalid version")
	}
	return n, nil
}

func writeError(w http.ResponseWriter, err error) {
	var verr *tax.ValidationError
	if errors.As(err, &verr) {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid tax configuration", verr.Fields)
		return
	}
	common.WriteError(w, err)
}
