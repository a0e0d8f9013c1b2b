package handlers

import (
	"net/http"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/internal/store"
)

// ListUsers answers GET /api/users/.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	page := requestPage(r)
	profiles, count, err := dataStore.ListUsers(r.Context(), identity(r), page)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	results := make([]userResponse, 0, len(profiles))
	for _, profile := range profiles {
		results = append(results, projectUser(profile))
	}
	writeJSON(w, http.StatusOK, paginate(r, page, count, results))
}

// RegisterUser answers POST /api/users/.
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var payload store.Registration
	if !decodeJSON(w, r, &payload) {
		return
	}
	user, err := dataStore.CreateUser(r.Context(), payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordRegistration()
	applog.Info(r.Context(), "user registered", "userID", user.ID)
	writeJSON(w, http.StatusCreated, projectRegisteredUser(user))
}

// ShowUser answers GET /api/users/{id}/.
func ShowUser(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	profile, err := dataStore.GetUser(r.Context(), identity(r), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectUser(profile))
}

// Me answers GET /api/users/me/.
func Me(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	viewer := identity(r)
	id, ok := viewer.UserID()
	if !ok {
		writeStoreError(w, r, store.ErrUnauthenticated)
		return
	}
	profile, err := dataStore.GetUser(r.Context(), viewer, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectUser(profile))
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SetPassword answers POST /api/users/set_password/.
func SetPassword(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var payload setPasswordRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := dataStore.SetPassword(r.Context(), identity(r), payload.CurrentPassword, payload.NewPassword); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser answers DELETE /api/users/{id}/. Staff only.
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := dataStore.DeleteUser(r.Context(), identity(r), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	applog.Info(r.Context(), "user deleted", "deletedUserID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Subscribe answers POST /api/users/{id}/subscribe/.
func Subscribe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, err := dataStore.Subscribe(r.Context(), identity(r), id, queryInt(r, "recipes_limit"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordSubscriptionChange("add")
	writeJSON(w, http.StatusCreated, projectSubscription(*summary))
}

// Unsubscribe answers DELETE /api/users/{id}/subscribe/.
func Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := dataStore.Unsubscribe(r.Context(), identity(r), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordSubscriptionChange("remove")
	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions answers GET /api/users/subscriptions/.
func ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	page := requestPage(r)
	summaries, count, err := dataStore.ListSubscriptions(r.Context(), identity(r), page, queryInt(r, "recipes_limit"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	results := make([]subscriptionResponse, 0, len(summaries))
	for _, summary := range summaries {
		results = append(results, projectSubscription(summary))
	}
	writeJSON(w, http.StatusOK, paginate(r, page, count, results))
}
