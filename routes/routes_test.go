package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/olaysco/ecomm-api/common/middleware"
	"github.com/olaysco/ecomm-api/controllers"
	"github.com/olaysco/ecomm-api/repository"
	"github.com/olaysco/ecomm-api/routes"
	"github.com/olaysco/ecomm-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer() *gin.Engine {
	svc := services.NewProductService(repository.NewMemoryRepository(), nil, nil, "", nil, zap.NewNop())
	r := gin.New()
	r.Use(middleware.Recovery(zap.NewNop()), middleware.RequestID(), middleware.JSONBodyGuard(1<<20))
	routes.RegisterRoutes(r, controllers.NewProductController(svc, ""))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestProductLifecycle(t *testing.T) {
	r := newServer()

	w := do(r, http.MethodPost, "/products", `{"name":"Widget","brand":"Acme","price":9.99,"description":"A widget"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)["data"].(map[string]interface{})
	assert.Regexp(t, `^widget-\d+$`, created["slug"])
	id := created["_id"].(string)

	w = do(r, http.MethodGet, "/api/products/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Widget", decode(t, w)["data"].(map[string]interface{})["name"])

	w = do(r, http.MethodPatch, "/products/"+id, `{"price":12}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, created["slug"], updated["slug"])
	assert.Equal(t, float64(12), updated["price"])

	w = do(r, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Nil(t, body["data"])

	w = do(r, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestListPagination(t *testing.T) {
	r := newServer()
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		w := do(r, http.MethodPost, "/api/products", `{"name":"`+name+`","brand":"Acme","price":1,"description":"d"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(r, http.MethodGet, "/products?limit=2&sort_by=name&order_by=asc&brand=ACME", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["count"])
	assert.Nil(t, body["previous"])
	require.NotNil(t, body["next"])
	assert.Len(t, body["data"], 2)

	next := body["next"].(string)
	w = do(r, http.MethodGet, next, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(2), body["currentPage"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Charlie", data[0].(map[string]interface{})["name"])
	assert.Nil(t, body["next"])
}

func TestValidationAndMalformedBodies(t *testing.T) {
	r := newServer()

	w := do(r, http.MethodPost, "/products", `{"brand":"Acme","price":0,"description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product validation failed: name: Product name is required, price: Product price is required", decode(t, w)["message"])

	w = do(r, http.MethodPost, "/products", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestHealthAndDocs(t *testing.T) {
	r := newServer()

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())

	w = do(r, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/docs/openapi.yaml")

	w = do(r, http.MethodGet, "/docs/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}
