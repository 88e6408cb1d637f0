package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tenant"
)

// ActorHeader identifies the staff member operating the terminal.
const ActorHeader = "X-Actor-ID"

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	// ActorKindStaff represents a cashier or manager identified by ActorHeader.
	ActorKindStaff ActorKind = "staff"
	// ActorKindSystem represents internal automated actions.
	ActorKindSystem ActorKind = "system"
	// ActorKindAnonymous represents requests without an actor header.
	ActorKindAnonymous ActorKind = "anonymous"
)

// ActionTaxConfigUpdate is recorded whenever a store replaces its tax configuration.
const ActionTaxConfigUpdate = "tax_config.update"

// ActionInvoiceCreate is recorded for each persisted invoice.
const ActionInvoiceCreate = "invoice.create"

// Actor describes the entity performing the action.
type Actor struct {
	Kind ActorKind
	ID   *string
}

// ActorFromRequest derives the actor from ActorHeader.
func ActorFromRequest(req *http.Request) Actor {
	if req == nil {
		return Actor{Kind: ActorKindAnonymous}
	}
	if id := pointerOf(req.Header.Get(ActorHeader)); id != nil {
		return Actor{Kind: ActorKindStaff, ID: id}
	}
	return Actor{Kind: ActorKindAnonymous}
}

// Entry is a single row destined for audit_logs.
type Entry struct {
	StoreID      string
	ActorKind    string
	ActorID      pgtype.Text
	Action       string
	ResourceType string
	ResourceID   pgtype.Text
	Method       string
	Path         string
	Route        pgtype.Text
	Status       int32
	IP           pgtype.Text
	UserAgent    pgtype.Text
	RequestID    pgtype.Text
	Metadata     []byte
}

// Log is an audit row as returned to API clients.
type Log struct {
	ID           int64           `json:"id"`
	StoreID      string          `json:"storeId"`
	ActorKind    string          `json:"actorKind"`
	ActorID      *string         `json:"actorId,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   *string         `json:"resourceId,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int32           `json:"status"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ListParams pages through a store's audit trail, newest first.
type ListParams struct {
	StoreID string
	Limit   int32
	Offset  int32
}

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, entry Entry) error
	ListAuditLogs(ctx context.Context, arg ListParams) ([]Log, error)
}

// Service persists audit logs for configuration and invoice flows.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
	// Sample returns a value in [0,1). Defaults to math/rand.
	Sample func() float64
}

// Record persists an audit log entry when auditing is enabled.
func (s Service) Record(ctx context.Context, actor Actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 {
		sample := rand.Float64
		if s.Sample != nil {
			sample = s.Sample
		}
		if sample() > s.SamplingRate {
			return nil
		}
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	method := req.Method
	route := obs.RouteLabel(req, strings.TrimSpace(req.URL.Path))
	storeID, _ := tenant.FromContext(req.Context())

	finalStatus := status
	if finalStatus == 0 {
		finalStatus = http.StatusOK
	}

	return s.Store.InsertAuditLog(ctx, Entry{
		StoreID:      storeID,
		ActorKind:    string(normalizeActorKind(actor.Kind)),
		ActorID:      toNullText(sanitizeString(actor.ID)),
		Action:       buildAction(action, method, route),
		ResourceType: buildResource(resourceType, route),
		ResourceID:   toNullText(pointerOf(resourceID)),
		Method:       method,
		Path:         req.URL.Path,
		Route:        toNullText(pointerOf(route)),
		Status:       int32(finalStatus),
		IP:           toNullText(pointerOf(common.ClientIP(req))),
		UserAgent:    toNullText(pointerOf(req.Header.Get("User-Agent"))),
		RequestID:    toNullText(pointerOf(req.Header.Get("X-Request-ID"))),
		Metadata:     toJSONB(metadata, req.URL.RawQuery),
	})
}

func buildAction(action, method, route string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed != "" {
		return trimmed
	}
	base := strings.ToUpper(strings.TrimSpace(method))
	target := route
	if target == "" {
		target = "/"
	}
	return base + " " + target
}

func buildResource(resourceType, route string) string {
	trimmed := strings.TrimSpace(resourceType)
	if trimmed != "" {
		return trimmed
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		return strings.Join(segments[2:], ".")
	}
	return strings.ReplaceAll(strings.Trim(route, "/"), "/", ".")
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorKindStaff, ActorKindSystem:
		return kind
	default:
		return ActorKindAnonymous
	}
}

func sanitizeString(value *string) *string {
	if value == nil {
		return nil
	}
	return pointerOf(*value)
}

func pointerOf(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toNullText(value *string) pgtype.Text {
	if value == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *value, Valid: true}
}

func toJSONB(metadata []byte, query string) []byte {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
