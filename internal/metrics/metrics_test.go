package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/test/", "200"))
	RecordAPIRequest("GET", "/api/test/", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/test/", "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, grew by %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "recipe",
			record: func() { RecordRecipeChange("create") },
			read:   func() float64 { return testutil.ToFloat64(RecipeChanges.WithLabelValues("create")) },
		},
		{
			name:   "collection",
			record: func() { RecordCollectionChange("favorites", "add") },
			read:   func() float64 { return testutil.ToFloat64(CollectionChanges.WithLabelValues("favorites", "add")) },
		},
		{
			name:   "subscription",
			record: func() { RecordSubscriptionChange("remove") },
			read:   func() float64 { return testutil.ToFloat64(SubscriptionChanges.WithLabelValues("remove")) },
		},
		{
			name:   "download",
			record: func() { RecordShoppingListDownload("txt") },
			read:   func() float64 { return testutil.ToFloat64(ShoppingListDownloads.WithLabelValues("txt")) },
		},
		{
			name:   "registration",
			record: RecordRegistration,
			read:   func() float64 { return testutil.ToFloat64(UserRegistrations) },
		},
	}

	for _, tt := range tests {
		before := tt.read()
		tt.record()
		if got := tt.read() - before; got != 1 {
			t.Fatalf("%s: counter grew by %v, want 1", tt.name, got)
		}
	}
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/api/recipes/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := APIRequestsTotal.WithLabelValues("GET", "/api/recipes/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/api/recipes/1/", "/api/recipes/2/"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 requests under the route pattern, got %v", got)
	}
	if active := testutil.ToFloat64(APIActiveRequests); active != 0 {
		t.Fatalf("active requests gauge = %v after completion, want 0", active)
	}
}

func TestRoutePatternFallsBackWhenUnrouted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Fatalf("routePattern() = %q, want unmatched", got)
	}
}
