package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/binstore/binstoretest"
	"github.com/karinderya/go-storefront/internal/catalog"
	"github.com/karinderya/go-storefront/internal/export"
	"github.com/karinderya/go-storefront/internal/lifecycle"
	"github.com/karinderya/go-storefront/internal/orders"
	"github.com/karinderya/go-storefront/internal/queue"
	"github.com/karinderya/go-storefront/internal/status"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

const testAdminPassword = "test-admin"

func newTestRouter(t *testing.T) (*binstoretest.Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, client := binstoretest.NewClient()
	t.Cleanup(srv.Close)
	require.NoError(t, client.RegisterDefault(binstore.Products, catalog.Default()))
	require.NoError(t, client.RegisterDefault(binstore.SystemStatus, status.DefaultAvailability()))
	srv.Seed(binstoretest.ProductsBin, catalog.Default())

	recorder := systemlog.NewRecorder(client)
	gate := status.NewGate(client, recorder)
	loader := catalog.NewLoader(client)
	manager := lifecycle.NewManager(client, loader, gate, recorder)

	cfg := HandlerConfig{
		Manager:       manager,
		Drainer:       queue.NewDrainer(manager, recorder),
		Gate:          gate,
		Catalog:       loader,
		Recorder:      recorder,
		Importer:      export.NewImporter(client),
		AdminPassword: testAdminPassword,
	}

	r := gin.New()
	r.Use(RequestID())
	RegisterStorefrontRoutes(r, cfg)
	RegisterAdminRoutes(r, cfg)
	return srv, r
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Password": testAdminPassword}
}

func TestCheckoutCreatesOrder(t *testing.T) {
	srv, r := newTestRouter(t)
	srv.Seed(binstoretest.StatusBin, status.Availability{Online: true})

	w := doJSON(r, http.MethodPost, "/checkout",
		`{"customer_email":"x@example.com","cart":{"SET A":2}}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		OrderID     string        `json:"order_id"`
		Status      orders.Status `json:"status"`
		TotalAmount string        `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.OrderID, 6)
	assert.Equal(t, orders.StatusProcessed, resp.Status)
	assert.Equal(t, "1800", resp.TotalAmount)
}

func TestCheckoutCarriesFulfillmentDetails(t *testing.T) {
	srv, r := newTestRouter(t)
	srv.Seed(binstoretest.StatusBin, status.Availability{Online: true})

	w := doJSON(r, http.MethodPost, "/checkout",
		`{"customer_email":"x@example.com","cart":{"SET A":1},"delivery_address":"12 Mabini St","contact_number":"0917-555-0199","notes":"no onions"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var ops []orders.Order
	require.NoError(t, srv.Doc(binstoretest.OrdersBin, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "12 Mabini St", ops[0].DeliveryAddress)
	assert.Equal(t, "0917-555-0199", ops[0].ContactNumber)
	assert.Equal(t, "no onions", ops[0].Notes)
}

func TestCheckoutValidation(t *testing.T) {
	_, r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/checkout", `{"customer_email":"nope","cart":{"SET A":1}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/checkout", `{"customer_email":"x@example.com","cart":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/checkout", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackingLookup(t *testing.T) {
	_, r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/orders/track", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no matches is an empty list, not an error
	w = doJSON(r, http.MethodGet, "/orders/track?email=nobody@example.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Orders []orders.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Orders)
}

func TestAdminRequiresPassword(t *testing.T) {
	_, r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/admin/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/status", "", map[string]string{"X-Admin-Password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/status", "", adminHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminToggleAndDrain(t *testing.T) {
	srv, r := newTestRouter(t)

	// take the storefront offline, queue an order, bring it back, drain
	w := doJSON(r, http.MethodPut, "/admin/status", `{"online":false,"actor":"admin"}`, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/checkout", `{"customer_email":"x@example.com","cart":{"SET A":1}}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		OrderID string        `json:"order_id"`
		Status  orders.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, orders.StatusQueued, created.Status)

	w = doJSON(r, http.MethodPut, "/admin/status", `{"online":true,"actor":"admin"}`, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/admin/drain", "", adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)
	var res queue.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, queue.Result{Succeeded: 1, Failed: 0, Total: 1}, res)

	var ops []orders.Order
	require.NoError(t, srv.Doc(binstoretest.OrdersBin, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, orders.StatusProcessed, ops[0].Status)
	assert.NotNil(t, ops[0].ProcessedAt)
}

func TestAdminExportImportRoundTrip(t *testing.T) {
	srv, r := newTestRouter(t)
	srv.Seed(binstoretest.StatusBin, status.Availability{Online: true})

	w := doJSON(r, http.MethodPost, "/checkout", `{"customer_email":"x@example.com","cart":{"SET A":1}}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/orders/export", "", adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.Bytes()

	// re-importing the same file adds nothing
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/import", bytes.NewReader(exported))
	req.Header.Set("X-Admin-Password", testAdminPassword)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imported":0}`, rec.Body.String())
}

func TestAdminLogView(t *testing.T) {
	_, r := newTestRouter(t)

	w := doJSON(r, http.MethodPut, "/admin/status", `{"online":false,"actor":"admin"}`, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/log", "", adminHeaders())
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []systemlog.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Entries)
	assert.Equal(t, "availability_toggle", resp.Entries[0].Action)
}
