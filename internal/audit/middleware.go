package audit

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// HTTPRecorder records HTTP requests after they have been handled.
type HTTPRecorder struct {
	Service   *Service
	OnError   func(error)
	ActorFunc func(*http.Request) Actor
}

// HTTPConfig customises how the audit entry is produced for a route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	// ResourceIDHeader reads the id from a response header, for routes that
	// create the resource.
	ResourceIDHeader string
	MetadataFunc     func(*http.Request, int) map[string]any
	// SkipStatus suppresses entries for responses the predicate rejects.
	SkipStatus func(int) bool
}

// Middleware returns a chi-compatible middleware that records audit entries.
// The terminal and idempotency key of the request are added to the metadata
// when present.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Service == nil || !r.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}

			recorder := obs.NewStatusRecorder(w)
			next.ServeHTTP(recorder, req)

			status := recorder.Status()
			if cfg.SkipStatus != nil && cfg.SkipStatus(status) {
				return
			}

			err := r.Service.Record(req.Context(), r.actor(req), cfg.Action, cfg.ResourceType,
				cfg.resourceID(w, req), req, status, cfg.metadata(req, status))
			if err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}

func (c HTTPConfig) resourceID(w http.ResponseWriter, req *http.Request) string {
	if c.ResourceIDParam != "" {
		if id := chi.URLParam(req, c.ResourceIDParam); id != "" {
			return id
		}
	}
	if c.ResourceIDHeader != "" {
		return w.Header().Get(c.ResourceIDHeader)
	}
	return ""
}

func (c HTTPConfig) metadata(req *http.Request, status int) []byte {
	payload := map[string]any{}
	if c.MetadataFunc != nil {
		for k, v := range c.MetadataFunc(req, status) {
			payload[k] = v
		}
	}
	if terminal := strings.TrimSpace(req.Header.Get(common.TerminalHeader)); terminal != "" {
		payload["terminal_id"] = terminal
	}
	if key := strings.TrimSpace(req.Header.Get(common.IdempotencyHeader)); key != "" {
		payload["idempotency_key"] = key
	}
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

func (r HTTPRecorder) actor(req *http.Request) Actor {
	if r.ActorFunc != nil {
		return r.ActorFunc(req)
	}
	return ActorFromRequest(req)
}

// OnlySuccess is a SkipStatus predicate that drops non-2xx responses.
func OnlySuccess(status int) bool {
	return status < 200 || status >= 300
}
