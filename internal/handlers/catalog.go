package handlers

import (
	"net/http"

	"foodgram/internal/store"
)

// ListTags answers GET /api/tags/. Tags are not paginated.
func ListTags(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	tags, err := dataStore.ListTags(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	results := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		results = append(results, projectTag(tag))
	}
	writeJSON(w, http.StatusOK, results)
}

// ShowTag answers GET /api/tags/{id}/.
func ShowTag(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tag, err := dataStore.GetTag(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectTag(*tag))
}

// CreateTag answers POST /api/tags/.
func CreateTag(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var payload store.TagInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	tag, err := dataStore.CreateTag(r.Context(), identity(r), payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectTag(*tag))
}

// UpdateTag answers PATCH /api/tags/{id}/.
func UpdateTag(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload store.TagPatch
	if !decodeJSON(w, r, &payload) {
		return
	}
	tag, err := dataStore.UpdateTag(r.Context(), identity(r), id, payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectTag(*tag))
}

// DeleteTag answers DELETE /api/tags/{id}/.
func DeleteTag(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := dataStore.DeleteTag(r.Context(), identity(r), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListIngredients answers GET /api/ingredients/?search=<prefix>.
func ListIngredients(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ingredients, err := dataStore.ListIngredients(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	results := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		results = append(results, projectIngredient(ingredient))
	}
	writeJSON(w, http.StatusOK, results)
}

// ShowIngredient answers GET /api/ingredients/{id}/.
func ShowIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ingredient, err := dataStore.GetIngredient(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(*ingredient))
}

// CreateIngredient answers POST /api/ingredients/.
func CreateIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var payload store.IngredientInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	ingredient, err := dataStore.CreateIngredient(r.Context(), identity(r), payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectIngredient(*ingredient))
}

// UpdateIngredient answers PATCH /api/ingredients/{id}/.
func UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload store.IngredientPatch
	if !decodeJSON(w, r, &payload) {
		return
	}
	ingredient, err := dataStore.UpdateIngredient(r.Context(), identity(r), id, payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectIngredient(*ingredient))
}

// DeleteIngredient answers DELETE /api/ingredients/{id}/.
func DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := dataStore.DeleteIngredient(r.Context(), identity(r), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
