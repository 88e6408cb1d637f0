package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/tenant"
)

func TestResolverPrefersHeader(t *testing.T) {
	r := tenant.NewResolver("", "pos.example.com", "")
	req := httptest.NewRequest(http.MethodGet, "http://cafe.pos.example.com/api/v1/tax-config", nil)
	req.Header.Set(tenant.DefaultHeader, " store-1 ")
	require.Equal(t, "store-1", r.Resolve(req))
}

func TestResolverSubdomain(t *testing.T) {
	r := tenant.NewResolver("", "pos.example.com", "")

	req := httptest.NewRequest(http.MethodGet, "http://cafe.pos.example.com:8080/", nil)
	require.Equal(t, "cafe", r.Resolve(req))

	root := httptest.NewRequest(http.MethodGet, "http://pos.example.com/", nil)
	require.Equal(t, "", r.Resolve(root))

	foreign := httptest.NewRequest(http.MethodGet, "http://cafe.other.com/", nil)
	require.Equal(t, "", r.Resolve(foreign))
}

func TestRequireRejectsMissingStore(t *testing.T) {
	r := tenant.NewResolver("", "pos.example.com", "")
	var seen string
	h := r.Middleware(tenant.Require(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen, _ = tenant.FromContext(req.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://pos.example.com/", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "TENANT_REQUIRED")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://bistro.pos.example.com/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "bistro", seen)
}

func TestPrefixKey(t *testing.T) {
	require.Equal(t, "store:s1:tax-config", tenant.PrefixKey("s1", "tax-config"))
	require.Equal(t, "tax-config", tenant.PrefixKey("", "tax-config"))
}

func TestTrackExposesResolvedStoreToOuterMiddleware(t *testing.T) {
	var seen string
	outer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			seen, _ = tenant.Resolved(r.Context())
		})
	}
	resolver := tenant.NewResolver("", "", "")
	handler := tenant.Track(outer(resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tax-config", nil)
	req.Header.Set(tenant.DefaultHeader, "dubai-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "dubai-1", seen)

	_, ok := tenant.Resolved(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}

func TestResolverWithoutRootDomainUsesHeaderOnly(t *testing.T) {
	r := tenant.NewResolver("X-Till-Store", "", "")

	req := httptest.NewRequest(http.MethodGet, "http://cafe.pos.example.com/", nil)
	require.Equal(t, "", r.Resolve(req))

	req.Header.Set("X-Till-Store", "kiosk-3")
	require.Equal(t, "kiosk-3", r.Resolve(req))
}
