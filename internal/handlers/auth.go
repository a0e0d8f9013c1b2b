package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"foodgram/internal/config"
	applog "foodgram/internal/log"
	"foodgram/internal/store"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"

	tokenScheme = "Token"
)

var (
	sessionManager *scs.SessionManager
	tokenSessions  *scs.SessionManager
	database       *gorm.DB
	dataStore      *store.Store
	pagination     = config.APIConfig{PageSize: 6, MaxPageSize: 100}
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, api config.APIConfig) {
	useSessionManager(sm)
	database = db
	dataStore = nil
	if db != nil {
		dataStore = store.New(db)
	}
	if api.PageSize > 0 {
		pagination = api
	}
}

// useSessionManager installs sm for cookie sessions and derives the token
// manager from it. Both share one store, but each keeps its session data under
// its own context key so a token can be loaded inside LoadAndSave.
func useSessionManager(sm *scs.SessionManager) {
	sessionManager = sm
	tokenSessions = nil
	if sm == nil {
		return
	}
	tokenSessions = scs.New()
	tokenSessions.Store = sm.Store
	tokenSessions.Codec = sm.Codec
	tokenSessions.Lifetime = sm.Lifetime
	tokenSessions.IdleTimeout = sm.IdleTimeout
	tokenSessions.ErrorFunc = sm.ErrorFunc
}

type identityKey struct{}

func withIdentity(ctx context.Context, id store.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identity returns the caller resolved by Identify, or an anonymous identity.
func identity(r *http.Request) store.Identity {
	if id, ok := r.Context().Value(identityKey{}).(store.Identity); ok && id != nil {
		return id
	}
	return store.Anonymous()
}

// Identify resolves the caller from an "Authorization: Token <key>" header or
// the session cookie and stores the identity on the request context. A token
// that does not map to a live session is rejected with 401. Cookie sessions
// require Identify to run inside sessionManager.LoadAndSave.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionManager == nil || dataStore == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		var (
			userID uint
			ok     bool
		)
		if token, hasToken := bearerToken(r); hasToken {
			loaded, err := tokenSessions.Load(ctx, token)
			if err != nil {
				applog.Error(ctx, "failed to load token session", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to load session")
				return
			}
			userID, ok = sessionUserID(loaded, tokenSessions)
			if !ok {
				applog.Debug(ctx, "rejected unknown auth token")
				writeJSONError(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			ctx = loaded
		} else {
			userID, ok = sessionUserID(ctx, sessionManager)
		}
		if !ok {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		user, err := dataStore.FindUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			applog.Debug(ctx, "session refers to a deleted user", "userID", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if err != nil {
			applog.Error(ctx, "failed to load session user", "error", err, "userID", userID)
			writeJSONError(w, http.StatusInternalServerError, "unable to load user")
			return
		}

		ctx = withIdentity(ctx, store.AsUser(user.ID, user.IsStaff))
		ctx = applog.WithAttrs(ctx, "user_id", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, tokenScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func sessionUserID(ctx context.Context, sm *scs.SessionManager) (uint, bool) {
	if sm == nil || !sm.Exists(ctx, sessionUserIDKey) {
		return 0, false
	}
	if !sm.GetBool(ctx, sessionAuthenticatedKey) {
		return 0, false
	}
	id := sm.GetInt(ctx, sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

type tokenLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenLoginResponse struct {
	AuthToken string `json:"auth_token"`
}

// TokenLogin exchanges credentials for an auth token. The token is the key of
// a fresh server-side session, so it is revoked by destroying that session.
func TokenLogin(w http.ResponseWriter, r *http.Request) {
	if !sessionReady(w, r) {
		return
	}
	ctx := r.Context()

	var payload tokenLoginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeValidationError(w, map[string]string{"non_field_errors": "Email and password are required."})
		return
	}

	user, err := dataStore.Authenticate(ctx, payload.Email, payload.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		applog.Debug(ctx, "token login with invalid credentials")
		writeValidationError(w, map[string]string{"non_field_errors": "Unable to log in with provided credentials."})
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	sessionCtx, err := tokenSessions.Load(ctx, "")
	if err != nil {
		applog.Error(ctx, "failed to create token session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create token")
		return
	}
	tokenSessions.Put(sessionCtx, sessionAuthenticatedKey, true)
	tokenSessions.Put(sessionCtx, sessionUserIDKey, int(user.ID))
	tokenSessions.Put(sessionCtx, sessionUserEmailKey, user.Email)
	token, _, err := tokenSessions.Commit(sessionCtx)
	if err != nil {
		applog.Error(ctx, "failed to commit token session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create token")
		return
	}

	applog.Info(ctx, "token issued", "userID", user.ID)
	writeJSON(w, http.StatusOK, tokenLoginResponse{AuthToken: token})
}

// TokenLogout revokes the caller's token, or ends the cookie session.
func TokenLogout(w http.ResponseWriter, r *http.Request) {
	if !sessionReady(w, r) {
		return
	}
	ctx := r.Context()
	if _, ok := identity(r).UserID(); !ok {
		writeStoreError(w, r, store.ErrUnauthenticated)
		return
	}
	sm := sessionManager
	if _, hasToken := bearerToken(r); hasToken {
		sm = tokenSessions
	}
	if err := sm.Destroy(ctx); err != nil {
		applog.Error(ctx, "failed to destroy session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// establishSession signs the user into the cookie session of the request.
func establishSession(ctx context.Context, userID uint, email string) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(ctx); err != nil {
		return err
	}
	sessionManager.Put(ctx, sessionAuthenticatedKey, true)
	sessionManager.Put(ctx, sessionUserIDKey, int(userID))
	sessionManager.Put(ctx, sessionUserEmailKey, email)
	return nil
}

type sessionLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionLogin signs the caller in with a cookie session, for browser clients.
func SessionLogin(w http.ResponseWriter, r *http.Request) {
	if !sessionReady(w, r) {
		return
	}
	ctx := r.Context()

	var payload sessionLoginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	user, err := dataStore.Authenticate(ctx, payload.Email, payload.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		writeValidationError(w, map[string]string{"non_field_errors": "Unable to log in with provided credentials."})
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := establishSession(ctx, user.ID, user.Email); err != nil {
		applog.Error(ctx, "failed to establish session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}
	writeJSON(w, http.StatusOK, projectUser(store.UserProfile{User: *user}))
}

// ready reports whether the handlers were configured, answering 503 otherwise.
func ready(w http.ResponseWriter, r *http.Request) bool {
	if dataStore == nil {
		applog.Debug(r.Context(), "request without database", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

func sessionReady(w http.ResponseWriter, r *http.Request) bool {
	if !ready(w, r) {
		return false
	}
	if sessionManager == nil || tokenSessions == nil {
		applog.Debug(r.Context(), "request without session manager", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
		return false
	}
	return true
}
