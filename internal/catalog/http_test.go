package catalog_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CatalogService/internal/catalog"
	"CatalogService/pkg/kit"
)

type testServer struct {
	*httptest.Server
	store *catalog.MemStore
}

func newCatalogTS(t *testing.T, deps catalog.HTTPDeps) *testServer {
	t.Helper()

	store := catalog.NewMemStore()
	s := &catalog.Server{
		Service: catalog.NewService(store, zap.NewNop()),
		Store:   store,
	}

	deps.Log = zap.NewNop()
	deps.Service = "catalog"
	ts := httptest.NewServer(catalog.NewHandler(s, deps))
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, store: store}
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func wantStatus(t *testing.T, resp *http.Response, raw []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d body=%s", resp.Request.Method, resp.Request.URL, resp.StatusCode, want, raw)
	}
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func productBody(name, brand string, price float64, categories ...string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": name + " description",
		"brand":       brand,
		"price":       price,
		"inventory":   3,
		"categories":  categories,
	}
}

func create(t *testing.T, ts *testServer, body map[string]any) catalog.Product {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", body, nil)
	wantStatus(t, resp, raw, http.StatusCreated)
	return decode[catalog.Product](t, raw)
}

func TestProducts_CRUD(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	p := create(t, ts, productBody("Speedcross", "Salomon", 199.99, "shoes", "trail"))
	if p.ID == uuid.Nil {
		t.Fatalf("expected id in create response: %+v", p)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("createdAt=%v updatedAt=%v", p.CreatedAt, p.UpdatedAt)
	}

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products/"+p.ID.String(), nil, nil)
	wantStatus(t, resp, raw, http.StatusOK)
	got := decode[catalog.Product](t, raw)
	if got.Name != "Speedcross" || got.Price.String() != "199.99" {
		t.Fatalf("unexpected product: %+v", got)
	}

	resp, raw = doJSON(t, http.MethodPut, ts.URL+"/products/"+p.ID.String(),
		productBody("Speedcross 6", "Salomon", 209.5, "shoes"), nil)
	wantStatus(t, resp, raw, http.StatusOK)
	updated := decode[catalog.Product](t, raw)
	if updated.ID != p.ID || !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("update changed identity: %+v", updated)
	}
	if updated.Name != "Speedcross 6" || len(updated.Categories) != 1 {
		t.Fatalf("update not applied: %+v", updated)
	}

	resp, raw = doJSON(t, http.MethodDelete, ts.URL+"/products/"+p.ID.String(), nil, nil)
	wantStatus(t, resp, raw, http.StatusNoContent)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/products/"+p.ID.String(), nil, nil)
	wantStatus(t, resp, raw, http.StatusNotFound)

	resp, raw = doJSON(t, http.MethodDelete, ts.URL+"/products/"+p.ID.String(), nil, nil)
	wantStatus(t, resp, raw, http.StatusNotFound)
}

func TestProducts_NotFound(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})
	id := uuid.NewString()

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products/"+id, nil, nil)
	wantStatus(t, resp, raw, http.StatusNotFound)

	e := decode[kit.ErrorResponse](t, raw)
	if e.Status != http.StatusNotFound || e.Error != "not found" || e.Timestamp.IsZero() {
		t.Fatalf("unexpected error body: %s", raw)
	}

	resp, raw = doJSON(t, http.MethodPut, ts.URL+"/products/"+id, productBody("x", "y", 1, "z"), nil)
	wantStatus(t, resp, raw, http.StatusNotFound)
	if ts.store.Len() != 0 {
		t.Fatalf("update of absent product created %d records", ts.store.Len())
	}
}

func TestProducts_BadRequests(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantError string
	}{
		{"malformed id", http.MethodGet, "/products/not-a-uuid", nil, "invalid id"},
		{"malformed json", http.MethodPost, "/products", `{"name":`, "bad json"},
		{"unknown field", http.MethodPost, "/products", `{"name":"x","color":"red"}`, "bad json"},
		{"trailing data", http.MethodPost, "/products", `{"name":"x"} {}`, "bad json"},
		{"zero price", http.MethodPost, "/products", productBody("x", "y", 0, "z"), "validation failed"},
		{"no categories", http.MethodPost, "/products", productBody("x", "y", 1), "validation failed"},
		{"blank name", http.MethodPost, "/products", productBody("  ", "y", 1, "z"), "validation failed"},
		{"bad priceMin", http.MethodGet, "/products?priceMin=cheap", nil, "invalid query parameter"},
		{"size too large", http.MethodGet, "/products?size=1000", nil, "invalid query parameter"},
		{"zero size", http.MethodGet, "/products?size=0", nil, "invalid query parameter"},
		{"negative page", http.MethodGet, "/products?page=-1", nil, "invalid query parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, tt.method, ts.URL+tt.path, tt.body, nil)
			wantStatus(t, resp, raw, http.StatusBadRequest)

			e := decode[kit.ErrorResponse](t, raw)
			if e.Error != tt.wantError {
				t.Fatalf("error=%q want=%q body=%s", e.Error, tt.wantError, raw)
			}
		})
	}

	if ts.store.Len() != 0 {
		t.Fatalf("rejected requests stored %d products", ts.store.Len())
	}
}

func TestProducts_ValidationDetails(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	body := productBody("x", "y", -5, "ok", "")
	body["inventory"] = -1
	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", body, nil)
	wantStatus(t, resp, raw, http.StatusBadRequest)

	type validationError struct {
		Details map[string]string `json:"details"`
	}
	e := decode[validationError](t, raw)

	for field, rule := range map[string]string{"price": "gt", "inventory": "min", "categories[1]": "notblank"} {
		if e.Details[field] != rule {
			t.Fatalf("details[%q]=%q want %q (all: %v)", field, e.Details[field], rule, e.Details)
		}
	}
}

func TestProducts_List(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	create(t, ts, productBody("Budget", "Acme", 99.99, "shoes"))
	create(t, ts, productBody("Speedcross", "Salomon", 199.99, "shoes", "trail"))
	create(t, ts, productBody("Summit", "Acme", 249.99, "jackets"))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Summit", "Speedcross", "Budget"}},
		{"?sort=price", []string{"Budget", "Speedcross", "Summit"}},
		{"?sort=NAME", []string{"Budget", "Speedcross", "Summit"}},
		{"?sort=unknown", []string{"Summit", "Speedcross", "Budget"}},
		{"?brand=salomon", []string{"Speedcross"}},
		{"?category=shoes&sort=price", []string{"Budget", "Speedcross"}},
		{"?priceMin=100&priceMax=200", []string{"Speedcross"}},
		{"?sort=price&page=1&size=2", []string{"Summit"}},
		{"?page=5", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products"+tt.query, nil, nil)
			wantStatus(t, resp, raw, http.StatusOK)

			products := decode[[]catalog.Product](t, raw)
			got := make([]string, len(products))
			for i, p := range products {
				got[i] = p.Name
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("names=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestProducts_ListEmptyIsArray(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products", nil, nil)
	wantStatus(t, resp, raw, http.StatusOK)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("body=%s want []", raw)
	}
}

func TestHealth(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{})

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, nil)
	wantStatus(t, resp, raw, http.StatusOK)
	if got := decode[map[string]string](t, raw); got["status"] != "OK" {
		t.Fatalf("body=%s", raw)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/readyz", nil, nil)
	wantStatus(t, resp, raw, http.StatusOK)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   "s3cret",
	})

	create(t, ts, productBody("Speedcross", "Salomon", 199.99, "shoes"))

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil, nil)
	wantStatus(t, resp, raw, http.StatusForbidden)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{"Authorization": "Bearer s3cret"})
	wantStatus(t, resp, raw, http.StatusOK)

	for _, series := range []string{
		`catalog_products 1`,
		`catalog_mutations_total{op="create",result="ok"} 1`,
		`http_requests_total{method="POST"`,
	} {
		if !strings.Contains(string(raw), series) {
			t.Fatalf("metrics missing %q", series)
		}
	}
}

func TestWriteRateLimit(t *testing.T) {
	ts := newCatalogTS(t, catalog.HTTPDeps{
		WriteLimiter: kit.NewRateLimiter(0.001, 1),
	})

	create(t, ts, productBody("a", "Acme", 1, "x"))

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", productBody("b", "Acme", 1, "x"), nil)
	wantStatus(t, resp, raw, http.StatusTooManyRequests)

	// reads are not limited
	for i := 0; i < 3; i++ {
		resp, raw = doJSON(t, http.MethodGet, ts.URL+"/products", nil, nil)
		wantStatus(t, resp, raw, http.StatusOK)
	}
}
