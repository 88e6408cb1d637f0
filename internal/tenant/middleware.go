package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-pos/internal/common"
)

type contextKey string

const (
	tenantContextKey contextKey = "tenant.id"
	slotContextKey   contextKey = "tenant.slot"
)

// slot lets middleware mounted above the resolver read the store after the
// handler chain returns.
type slot struct{ id string }

// DefaultHeader carries the store identifier when no subdomain is used.
const DefaultHeader = "X-Store-ID"

// Resolver resolves the store (tenant) identifier from HTTP requests using either headers or subdomains.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver returns a resolver configured with the provided header name, root domain, and default tenant slug.
// If headerName is empty, DefaultHeader is used.
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware resolves the tenant from the request and injects it into the context passed downstream.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tenantID := r.Resolve(req)
		if tenantID == "" {
			tenantID = r.DefaultTenant
		}
		if tenantID != "" {
			ctx := WithTenant(req.Context(), tenantID)
			req = req.WithContext(ctx)
			if s, ok := ctx.Value(slotContextKey).(*slot); ok {
				s.id = tenantID
			}
		}
		next.ServeHTTP(w, req)
	})
}

// Track prepares the request so outer middleware can call Resolved once the
// inner chain has run the resolver.
func Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := context.WithValue(req.Context(), slotContextKey, &slot{})
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// Resolved is FromContext extended with the store recorded under Track.
func Resolved(ctx context.Context) (string, bool) {
	if id, ok := FromContext(ctx); ok {
		return id, true
	}
	if ctx == nil {
		return "", false
	}
	if s, ok := ctx.Value(slotContextKey).(*slot); ok && s.id != "" {
		return s.id, true
	}
	return "", false
}

// Require rejects requests that did not resolve to a store.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := FromContext(req.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "store identifier is required", nil)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the store from the configured header, or else the leftmost
// label of a host under RootDomain. Subdomain resolution is off when RootDomain
// is empty.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if storeID := strings.TrimSpace(req.Header.Get(r.HeaderName)); storeID != "" {
		return storeID
	}
	if r.RootDomain == "" {
		return ""
	}
	host := strings.ToLower(hostWithoutPort(req.Host))
	sub, ok := strings.CutSuffix(host, "."+r.RootDomain)
	if !ok {
		return ""
	}
	label, _, _ := strings.Cut(sub, ".")
	return strings.TrimSpace(label)
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}

// WithTenant stores the tenant identifier inside the context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// FromContext extracts the tenant identifier from the context if available.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tenantID, ok := ctx.Value(tenantContextKey).(string)
	if !ok {
		return "", false
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return "", false
	}
	return tenantID, true
}
