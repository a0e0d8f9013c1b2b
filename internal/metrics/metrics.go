// Package metrics exposes the Prometheus collectors for the HTTP API and the
// domain events worth counting.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Domain
	RecipeChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_changes_total",
			Help: "Recipes created, updated or deleted",
		},
		[]string{"action"},
	)

	CollectionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_collection_changes_total",
			Help: "Favorites and shopping cart additions and removals",
		},
		[]string{"collection", "action"},
	)

	SubscriptionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_subscription_changes_total",
			Help: "Subscriptions created or removed",
		},
		[]string{"action"},
	)

	ShoppingListDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Shopping list downloads by format",
		},
		[]string{"format"},
	)

	UserRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_user_registrations_total",
			Help: "Accounts created through the API",
		},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecipeChange counts a recipe write. action is create, update or delete.
func RecordRecipeChange(action string) {
	RecipeChanges.WithLabelValues(action).Inc()
}

// RecordCollectionChange counts a favorite or shopping cart toggle.
func RecordCollectionChange(collection, action string) {
	CollectionChanges.WithLabelValues(collection, action).Inc()
}

// RecordSubscriptionChange counts a follow or unfollow.
func RecordSubscriptionChange(action string) {
	SubscriptionChanges.WithLabelValues(action).Inc()
}

// RecordShoppingListDownload counts a shopping list export.
func RecordShoppingListDownload(format string) {
	ShoppingListDownloads.WithLabelValues(format).Inc()
}

// RecordRegistration counts a new account.
func RecordRegistration() {
	UserRegistrations.Inc()
}

// Middleware instruments every request. Requests are labelled with the chi
// route pattern rather than the raw path to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		APIActiveRequests.Inc()
		defer APIActiveRequests.Dec()

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		RecordAPIRequest(r.Method, routePattern(r), strconv.Itoa(recorder.status), time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
