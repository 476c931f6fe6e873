package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoor/vendoor-backend/internal/orders"
)

type fakeStatusCache struct {
	views map[string]statusView
	puts  int
}

func (c *fakeStatusCache) Put(_ context.Context, o *orders.Order, st orders.Status) {
	c.puts++
	c.views[o.ID] = statusView{Status: st, UserID: o.UserID, StoreID: o.StoreID}
}

func (c *fakeStatusCache) Get(_ context.Context, orderID string) (statusView, bool) {
	v, ok := c.views[orderID]
	return v, ok
}

func statusRig(cache *fakeStatusCache, claims Claims) http.Handler {
	h := &OrdersHandler{Cache: cache, Service: "test"}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c := claims
			ctx := context.WithValue(req.Context(), claimsKey, &c)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

func TestOrderStatus_ServedFromCache(t *testing.T) {
	cache := &fakeStatusCache{views: map[string]statusView{
		"o1": {Status: orders.StatusShipped, UserID: "u1", StoreID: "s1"},
	}}
	h := statusRig(cache, Claims{Role: RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o1/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"SHIPPED"}`, w.Body.String())
	// served entirely off the projection, nothing written back
	assert.Zero(t, cache.puts)
}

func TestOrderStatus_CacheHitStillChecksOwnership(t *testing.T) {
	cache := &fakeStatusCache{views: map[string]statusView{
		"o1": {Status: orders.StatusShipped, UserID: "u1", StoreID: "s1"},
	}}
	h := statusRig(cache, Claims{Role: RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "someone-else"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o1/status", nil))

	// a foreign order looks exactly like a missing one
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderStatus_VendorSeesOwnStoreOrders(t *testing.T) {
	cache := &fakeStatusCache{views: map[string]statusView{
		"o1": {Status: orders.StatusProcessing, UserID: "u1", StoreID: "s1"},
	}}
	h := statusRig(cache, Claims{Role: RoleVendor, StoreID: "s1", RegisteredClaims: jwt.RegisteredClaims{Subject: "v1"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o1/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"PROCESSING"}`, w.Body.String())
}
