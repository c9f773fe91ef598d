package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applog "forecast/internal/log"
	"forecast/internal/services"
	"forecast/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	service := services.NewForecastService(storage.NewMemoryStore(), nil, 520)
	logger := applog.New(applog.DefaultConfig())
	return NewServer(service, logger, Config{
		Port:      "0",
		CacheSize: 10,
		CacheTTL:  time.Minute,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/readyz", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rec.Code)
	}
}

func TestGetSettings_SeedsAndReturnsDefaults(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/settings", nil, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/settings = %d, body %s", rec.Code, rec.Body)
	}

	var got settingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Granularity != "MONTH" {
		t.Errorf("granularity = %q, want MONTH", got.Granularity)
	}
	if got.Start == "" || got.End == "" {
		t.Errorf("range endpoints missing: %+v", got)
	}
}

func TestGridEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/grid = %d, body %s", rec.Code, rec.Body)
	}

	var result struct {
		Grid struct {
			Buckets []struct {
				ID string `json:"id"`
			} `json:"buckets"`
			Inflows  []json.RawMessage `json:"inflows"`
			Outflows []json.RawMessage `json:"outflows"`
		} `json:"grid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Grid.Buckets) == 0 {
		t.Error("grid has no buckets")
	}
	if len(result.Grid.Inflows) != 2 || len(result.Grid.Outflows) != 6 {
		t.Errorf("rows = %d inflows, %d outflows, want 2 and 6 from the demo model",
			len(result.Grid.Inflows), len(result.Grid.Outflows))
	}
}

func TestEditCellEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Discover a real bucket and an item from the seeded grid.
	rec := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "alice")
	var result struct {
		Grid struct {
			Buckets []struct {
				ID string `json:"id"`
			} `json:"buckets"`
			Outflows []struct {
				ItemID string `json:"item_id"`
			} `json:"outflows"`
		} `json:"grid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode grid: %v", err)
	}

	body := map[string]any{
		"section":   "OUTFLOW",
		"item_id":   result.Grid.Outflows[0].ItemID,
		"bucket_id": result.Grid.Buckets[0].ID,
		"value":     123.45,
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/cell/edit", body, "alice"); rec.Code != http.StatusOK {
		t.Errorf("POST /api/cell/edit = %d, body %s", rec.Code, rec.Body)
	}

	t.Run("unknown bucket yields 404", func(t *testing.T) {
		body["bucket_id"] = "1999-01"
		if rec := doJSON(t, srv, http.MethodPost, "/api/cell/edit", body, "alice"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("unknown item yields 404", func(t *testing.T) {
		body["bucket_id"] = result.Grid.Buckets[0].ID
		body["item_id"] = "no-such-item"
		if rec := doJSON(t, srv, http.MethodPost, "/api/cell/edit", body, "alice"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("bad section yields 400", func(t *testing.T) {
		body["section"] = "SIDEWAYS"
		if rec := doJSON(t, srv, http.MethodPost, "/api/cell/edit", body, "alice"); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAddAndDeleteItemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/items/add", map[string]any{
		"section": "inflow",
		"name":    "Side gig",
		"amount":  250,
	}, "alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/items/add = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		ItemID string `json:"item_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ItemID == "" {
		t.Fatal("no item id returned")
	}

	if rec := doJSON(t, srv, http.MethodPost, "/api/items/delete", map[string]any{
		"item_id": created.ItemID,
	}, "alice"); rec.Code != http.StatusOK {
		t.Errorf("POST /api/items/delete = %d, body %s", rec.Code, rec.Body)
	}

	t.Run("deleting twice yields 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/items/delete", map[string]any{
			"item_id": created.ItemID,
		}, "alice")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("blank name yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/items/add", map[string]any{
			"section": "inflow",
			"name":    "  ",
			"amount":  1,
		}, "alice")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSetRecurrenceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/items/add", map[string]any{
		"section": "outflow",
		"name":    "Insurance",
		"amount":  90,
	}, "alice")
	var created struct {
		ItemID string `json:"item_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if rec := doJSON(t, srv, http.MethodPost, "/api/items/recurrence", map[string]any{
		"item_id": created.ItemID,
		"kind":    "monthly",
		"amount":  90,
	}, "alice"); rec.Code != http.StatusOK {
		t.Errorf("POST /api/items/recurrence = %d, body %s", rec.Code, rec.Body)
	}

	t.Run("bad kind yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/items/recurrence", map[string]any{
			"item_id": created.ItemID,
			"kind":    "DAILY",
		}, "alice")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestApplyDatesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/dates/apply", map[string]any{
		"start": "2024-01-01",
		"end":   "2024-03-31",
	}, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/dates/apply = %d, body %s", rec.Code, rec.Body)
	}
	var got settingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Start != "2024-01-01" || got.End != "2024-03-31" {
		t.Errorf("range = %s..%s, want applied dates", got.Start, got.End)
	}

	t.Run("malformed date yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/dates/apply", map[string]any{
			"start": "01/01/2024",
			"end":   "2024-03-31",
		}, "alice")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("inverting range yields 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/dates/apply", map[string]any{
			"start": "2024-01-02",
			"end":   "2024-01-03",
		}, "alice")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestUsersAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/items/add", map[string]any{
		"section": "inflow",
		"name":    "Royalties",
		"amount":  10,
	}, "alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add = %d", rec.Code)
	}

	recA := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "alice")
	recB := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "bob")

	count := func(body []byte) int {
		var result struct {
			Grid struct {
				Inflows []json.RawMessage `json:"inflows"`
			} `json:"grid"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return len(result.Grid.Inflows)
	}
	if count(recA.Body.Bytes()) != count(recB.Body.Bytes())+1 {
		t.Error("alice's extra item leaked into bob's grid, or was not added")
	}
}

func TestGridCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)

	first := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "alice")
	if first.Code != http.StatusOK {
		t.Fatalf("grid = %d", first.Code)
	}

	// Mutation must invalidate the cached grid.
	rec := doJSON(t, srv, http.MethodPost, "/api/items/add", map[string]any{
		"section": "inflow",
		"name":    "Rebate",
		"amount":  5,
	}, "alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add = %d", rec.Code)
	}

	second := doJSON(t, srv, http.MethodGet, "/api/grid", nil, "alice")
	if bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("grid unchanged after mutation, cache not invalidated")
	}
}
