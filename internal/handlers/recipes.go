package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/internal/store"
	"foodgram/internal/views/pages"
	"foodgram/internal/views/theme"
	"foodgram/models"
)

// ListRecipes answers GET /api/recipes/.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	page := requestPage(r)
	details, count, err := dataStore.ListRecipes(r.Context(), identity(r), recipeFilterFromRequest(r), page)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	results := make([]recipeResponse, 0, len(details))
	for _, detail := range details {
		results = append(results, projectRecipe(detail))
	}
	writeJSON(w, http.StatusOK, paginate(r, page, count, results))
}

func recipeFilterFromRequest(r *http.Request) store.RecipeFilter {
	query := r.URL.Query()
	filter := store.RecipeFilter{
		IsFavorited:    queryBool(r, "is_favorited"),
		InShoppingCart: queryBool(r, "is_in_shopping_cart"),
	}
	for _, value := range query["tags"] {
		for _, slug := range strings.Split(value, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				filter.Tags = append(filter.Tags, slug)
			}
		}
	}
	if author, err := strconv.ParseUint(strings.TrimSpace(query.Get("author")), 10, 64); err == nil {
		filter.AuthorID = uint(author)
	}
	return filter
}

// ShowRecipe answers GET /api/recipes/{id}/.
func ShowRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := dataStore.GetRecipe(r.Context(), identity(r), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(*detail))
}

// CreateRecipe answers POST /api/recipes/.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if _, ok := identity(r).UserID(); !ok {
		writeStoreError(w, r, store.ErrUnauthenticated)
		return
	}
	var payload store.RecipeInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	detail, err := dataStore.CreateRecipe(r.Context(), identity(r), payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordRecipeChange("create")
	applog.Info(r.Context(), "recipe created", "recipeID", detail.Recipe.ID)
	writeJSON(w, http.StatusCreated, projectRecipe(*detail))
}

// UpdateRecipe answers PATCH /api/recipes/{id}/.
func UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := identity(r).UserID(); !ok {
		writeStoreError(w, r, store.ErrUnauthenticated)
		return
	}
	var payload store.RecipePatch
	if !decodeJSON(w, r, &payload) {
		return
	}
	detail, err := dataStore.UpdateRecipe(r.Context(), identity(r), id, payload)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordRecipeChange("update")
	writeJSON(w, http.StatusOK, projectRecipe(*detail))
}

// DeleteRecipe answers DELETE /api/recipes/{id}/.
func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := dataStore.DeleteRecipe(r.Context(), identity(r), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.RecordRecipeChange("delete")
	applog.Info(r.Context(), "recipe deleted", "recipeID", id)
	w.WriteHeader(http.StatusNoContent)
}

func addToCollection(collection string, add func(*store.Store, context.Context, store.Identity, uint) (*models.Recipe, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready(w, r) {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		recipe, err := add(dataStore, r.Context(), identity(r), id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		metrics.RecordCollectionChange(collection, "add")
		writeJSON(w, http.StatusCreated, projectShortRecipe(*recipe))
	}
}

func removeFromCollection(collection string, remove func(*store.Store, context.Context, store.Identity, uint) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready(w, r) {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := remove(dataStore, r.Context(), identity(r), id); err != nil {
			writeStoreError(w, r, err)
			return
		}
		metrics.RecordCollectionChange(collection, "remove")
		w.WriteHeader(http.StatusNoContent)
	}
}

var (
	// AddFavorite answers POST /api/recipes/{id}/favorite/.
	AddFavorite = addToCollection("favorites", (*store.Store).AddFavorite)
	// RemoveFavorite answers DELETE /api/recipes/{id}/favorite/.
	RemoveFavorite = removeFromCollection("favorites", (*store.Store).RemoveFavorite)
	// AddToShoppingCart answers POST /api/recipes/{id}/shopping_cart/.
	AddToShoppingCart = addToCollection("shopping_cart", (*store.Store).AddToCart)
	// RemoveFromShoppingCart answers DELETE /api/recipes/{id}/shopping_cart/.
	RemoveFromShoppingCart = removeFromCollection("shopping_cart", (*store.Store).RemoveFromCart)
)

// DownloadShoppingCart answers GET /api/recipes/download_shopping_cart/. The
// list is plain text by default; ?format=html returns a printable page.
func DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx := r.Context()
	viewer := identity(r)
	uid, ok := viewer.UserID()
	if !ok {
		writeStoreError(w, r, store.ErrUnauthenticated)
		return
	}

	lines, err := dataStore.ShoppingList(ctx, viewer)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	owner, err := dataStore.FindUser(ctx, uid)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	data := pages.ShoppingListData{
		Owner:       owner.Username,
		GeneratedAt: time.Now().UTC(),
		Items:       make([]pages.ShoppingListItem, 0, len(lines)),
	}
	for _, line := range lines {
		data.Items = append(data.Items, pages.ShoppingListItem{Name: line.Name, Unit: line.Unit, Amount: line.Amount})
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pages.ShoppingList(data, theme.Resolve(r.URL.Query().Get("theme"))).Render(ctx, w); err != nil {
			applog.Error(ctx, "failed to render shopping list", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case "", "txt", "text":
		format = "txt"
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.txt"`)
		if err := pages.WriteShoppingListText(w, data); err != nil {
			applog.Error(ctx, "failed to write shopping list", "error", err)
			return
		}
	default:
		writeValidationError(w, map[string]string{"format": "Use txt or html."})
		return
	}
	metrics.RecordShoppingListDownload(format)
}
