package server

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
)

type routerOptions struct {
	allowedOrigins []string
	// loginRateLimit caps login attempts per client IP and minute; zero disables it.
	loginRateLimit int
}

func newRouter(sm *scs.SessionManager, opts routerOptions) http.Handler {
	r := chi.NewRouter()
	applog.Debug(context.Background(), "registering http routes")

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	if len(opts.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		applog.Debug(context.Background(), "cors enabled", "origins", opts.allowedOrigins)
	}
	r.Use(metrics.Middleware)

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if sm != nil {
			r.Use(sm.LoadAndSave)
		}
		r.Use(handlers.Identify)

		r.Route("/api/auth", func(r chi.Router) {
			if opts.loginRateLimit > 0 {
				r.Use(httprate.Limit(opts.loginRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(tooManyRequests),
				))
			}
			r.Post("/token/login/", handlers.TokenLogin)
			r.Post("/token/logout/", handlers.TokenLogout)
			r.Post("/session/login/", handlers.SessionLogin)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", handlers.ListUsers)
			r.Post("/", handlers.RegisterUser)
			r.Get("/me/", handlers.Me)
			r.Post("/set_password/", handlers.SetPassword)
			r.Get("/subscriptions/", handlers.ListSubscriptions)
			r.Get("/{id}/", handlers.ShowUser)
			r.Delete("/{id}/", handlers.DeleteUser)
			r.Post("/{id}/subscribe/", handlers.Subscribe)
			r.Delete("/{id}/subscribe/", handlers.Unsubscribe)
		})

		r.Route("/api/tags", func(r chi.Router) {
			r.Get("/", handlers.ListTags)
			r.Post("/", handlers.CreateTag)
			r.Get("/{id}/", handlers.ShowTag)
			r.Patch("/{id}/", handlers.UpdateTag)
			r.Delete("/{id}/", handlers.DeleteTag)
		})

		r.Route("/api/ingredients", func(r chi.Router) {
			r.Get("/", handlers.ListIngredients)
			r.Post("/", handlers.CreateIngredient)
			r.Get("/{id}/", handlers.ShowIngredient)
			r.Patch("/{id}/", handlers.UpdateIngredient)
			r.Delete("/{id}/", handlers.DeleteIngredient)
		})

		r.Route("/api/recipes", func(r chi.Router) {
			r.Get("/", handlers.ListRecipes)
			r.Post("/", handlers.CreateRecipe)
			r.Get("/download_shopping_cart/", handlers.DownloadShoppingCart)
			r.Get("/{id}/", handlers.ShowRecipe)
			r.Patch("/{id}/", handlers.UpdateRecipe)
			r.Delete("/{id}/", handlers.DeleteRecipe)
			r.Post("/{id}/favorite/", handlers.AddFavorite)
			r.Delete("/{id}/favorite/", handlers.RemoveFavorite)
			r.Post("/{id}/shopping_cart/", handlers.AddToShoppingCart)
			r.Delete("/{id}/shopping_cart/", handlers.RemoveFromShoppingCart)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	applog.Debug(context.Background(), "http routes registered")
	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	applog.Warn(r.Context(), "login rate limit exceeded", "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"too many requests"}`))
}

// accessLog logs one line per request and tags the request context with its id.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = applog.WithAttrs(ctx, "request_id", id)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		applog.Info(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
