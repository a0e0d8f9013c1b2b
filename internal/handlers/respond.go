package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	applog "foodgram/internal/log"
	"foodgram/internal/store"
)

const maxBodyBytes = 1 << 20

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

type pageResponse struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:  "validation failed",
		Code:   "validation_error",
		Fields: fields,
	})
}

// writeStoreError maps the store error taxonomy onto HTTP responses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *store.ValidationError
	if errors.As(err, &verr) {
		applog.Debug(ctx, "request failed validation", "fields", verr.Fields)
		writeValidationError(w, verr.Fields)
		return
	}

	var conflict *store.ConflictError
	switch {
	case errors.As(err, &conflict):
		applog.Debug(ctx, "request conflicts with existing data", "field", conflict.Field)
		writeJSON(w, http.StatusConflict, map[string]string{"error": conflict.Message, "field": conflict.Field})
	case errors.Is(err, store.ErrConflict):
		writeJSONError(w, http.StatusConflict, "conflict")
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, store.ErrPermissionDenied):
		writeJSONError(w, http.StatusForbidden, "You do not have permission to perform this action.")
	default:
		applog.Error(ctx, "request failed", "error", err, "path", r.URL.Path)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid json payload", "error", err)
		message := "invalid request payload"
		if errors.Is(err, io.EOF) {
			message = "request body must not be empty"
		}
		writeJSONError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter, answering 404 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid identifier", "identifier", raw)
		writeJSONError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return uint(value), true
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return value
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func requestPage(r *http.Request) store.Page {
	return store.Page{
		Number: queryInt(r, "page"),
		Size:   queryInt(r, "limit"),
	}.Normalize(pagination.PageSize, pagination.MaxPageSize)
}

// paginate wraps results with absolute next and previous links. A page past
// the end links back to the last page that holds rows.
func paginate(r *http.Request, page store.Page, count int64, results any) pageResponse {
	resp := pageResponse{Count: count, Results: results}
	size := int64(page.Size)
	if int64(page.Number)*size < count {
		next := pageURL(r, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		number := int64(page.Number - 1)
		if size > 0 {
			if last := max((count+size-1)/size, 1); number > last {
				number = last
			}
		}
		previous := pageURL(r, int(number))
		resp.Previous = &previous
	}
	return resp
}

func pageURL(r *http.Request, number int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		u.Scheme = "https"
	}
	query := r.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = query.Encode()
	return u.String()
}
