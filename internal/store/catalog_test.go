package store

import (
	"context"
	"errors"
	"testing"

	"foodgram/models"
)

func TestIngredientPrefixSearchIgnoresCase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	cook := mustUser(t, s, "cook")

	for _, name := range []string{"Сметана", "Молоко", "молотый перец", "Мука", "100% сок"} {
		mustIngredient(t, s, cook, name, models.UnitGram)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"мол", []string{"Молоко", "молотый перец"}},
		{"МОЛ", []string{"Молоко", "молотый перец"}},
		{"  см ", []string{"Сметана"}},
		{"100%", []string{"100% сок"}},
		{"%", nil},
		{"", []string{"100% сок", "Молоко", "молотый перец", "Мука", "Сметана"}},
	}

	for _, tt := range tests {
		got, err := s.ListIngredients(ctx, tt.search)
		if err != nil {
			t.Fatalf("search %q: %v", tt.search, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("search %q returned %d ingredients, want %d: %+v", tt.search, len(got), len(tt.want), got)
		}
		for i := range got {
			if got[i].Name != tt.want[i] {
				t.Fatalf("search %q [%d] = %q, want %q", tt.search, i, got[i].Name, tt.want[i])
			}
		}
	}
}

func TestCreateIngredientNormalizesAndRejectsDuplicates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	cook := mustUser(t, s, "cook")

	ingredient := mustIngredient(t, s, cook, "  Сахар ", "g")
	if ingredient.Name != "Сахар" || ingredient.MeasurementUnit != models.UnitGram {
		t.Fatalf("unexpected ingredient %+v", ingredient)
	}

	_, err := s.CreateIngredient(ctx, cook, IngredientInput{Name: "сахар", MeasurementUnit: models.UnitGram})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for same name and unit, got %v", err)
	}
	if _, err := s.CreateIngredient(ctx, cook, IngredientInput{Name: "Сахар", MeasurementUnit: models.UnitKilogram}); err != nil {
		t.Fatalf("same name with another unit should be allowed: %v", err)
	}

	_, err = s.CreateIngredient(ctx, cook, IngredientInput{Name: "Вода", MeasurementUnit: "bucket"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["measurement_unit"] == "" {
		t.Fatalf("expected measurement_unit validation error, got %v", err)
	}
	if _, err := s.CreateIngredient(ctx, Anonymous(), IngredientInput{Name: "Вода", MeasurementUnit: models.UnitMilliliter}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestUpsertIngredient(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.UpsertIngredient(ctx, IngredientInput{Name: "Яйцо", MeasurementUnit: "pcs"})
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	second, created, err := s.UpsertIngredient(ctx, IngredientInput{Name: "яйцо", MeasurementUnit: models.UnitPiece})
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same ingredient, got %d and %d", first.ID, second.ID)
	}
}

func TestTagLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	admin := mustStaff(t, s, "admin")
	cook := mustUser(t, s, "cook")

	breakfast := mustTag(t, s, cook, "breakfast")
	mustTag(t, s, cook, "dinner")

	if _, err := s.CreateTag(ctx, cook, TagInput{Name: "Again", Color: "#000000", Slug: "breakfast"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
	_, err := s.CreateTag(ctx, cook, TagInput{Name: "Bad", Color: "red", Slug: "bad slug"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["color"] == "" || verr.Fields["slug"] == "" {
		t.Fatalf("expected color and slug validation errors, got %v", err)
	}

	name := "Завтрак"
	if _, err := s.UpdateTag(ctx, cook, breakfast.ID, TagPatch{Name: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-staff update, got %v", err)
	}
	updated, err := s.UpdateTag(ctx, admin, breakfast.ID, TagPatch{Name: &name})
	if err != nil {
		t.Fatalf("update tag: %v", err)
	}
	if updated.Name != name || updated.Slug != "breakfast" {
		t.Fatalf("unexpected updated tag %+v", updated)
	}
	slug := "dinner"
	if _, err := s.UpdateTag(ctx, admin, breakfast.ID, TagPatch{Slug: &slug}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict when renaming slug onto another tag, got %v", err)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
}

func TestCatalogDeletionCascadesToRecipeLinks(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	admin := mustStaff(t, s, "admin")
	cook := mustUser(t, s, "cook")

	lunch := mustTag(t, s, cook, "lunch")
	soup := mustTag(t, s, cook, "soup")
	salt := mustIngredient(t, s, cook, "Соль", models.UnitGram)
	water := mustIngredient(t, s, cook, "Вода", models.UnitMilliliter)
	recipe := mustRecipe(t, s, cook, "Broth", []uint{lunch.ID, soup.ID},
		RecipeIngredientInput{ID: salt.ID, Amount: 5},
		RecipeIngredientInput{ID: water.ID, Amount: 500},
	)

	if err := s.DeleteTag(ctx, cook, lunch.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := s.DeleteTag(ctx, admin, lunch.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if err := s.DeleteIngredient(ctx, admin, salt.ID); err != nil {
		t.Fatalf("delete ingredient: %v", err)
	}
	if err := s.DeleteIngredient(ctx, admin, salt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	if n := countRows(t, s, &models.RecipeTag{}, "tag_id = ?", lunch.ID); n != 0 {
		t.Fatalf("recipe tags for deleted tag remain: %d", n)
	}
	if n := countRows(t, s, &models.RecipeIngredient{}, "ingredient_id = ?", salt.ID); n != 0 {
		t.Fatalf("recipe lines for deleted ingredient remain: %d", n)
	}

	detail, err := s.GetRecipe(ctx, cook, recipe.Recipe.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(detail.Recipe.Tags) != 1 || detail.Recipe.Tags[0].TagID != soup.ID {
		t.Fatalf("unexpected remaining tags %+v", detail.Recipe.Tags)
	}
	if len(detail.Recipe.Ingredients) != 1 || detail.Recipe.Ingredients[0].IngredientID != water.ID {
		t.Fatalf("unexpected remaining ingredients %+v", detail.Recipe.Ingredients)
	}
}
