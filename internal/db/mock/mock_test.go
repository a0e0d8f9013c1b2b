package mock

import (
	"context"
	"testing"

	"foodgram/internal/store"
	"foodgram/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	s := store.New(db)
	user, err := s.Authenticate(ctx, DemoEmail, DemoPassword)
	if err != nil {
		t.Fatalf("demo account does not authenticate: %v", err)
	}
	if !user.IsStaff {
		t.Fatal("expected demo account to be staff")
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("expected 3 seeded tags, got %d", len(tags))
	}

	recipes, count, err := s.ListRecipes(ctx, store.Anonymous(), store.RecipeFilter{}, store.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if count != 2 || len(recipes) != 2 {
		t.Fatalf("expected 2 seeded recipes, got %d", count)
	}
	for _, detail := range recipes {
		if len(detail.Recipe.Ingredients) == 0 || len(detail.Recipe.Tags) == 0 {
			t.Fatalf("recipe %q seeded without associations", detail.Recipe.Name)
		}
	}
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx); err != nil {
		t.Fatalf("first initialization failed: %v", err)
	}
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("second initialization failed: %v", err)
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("expected a single demo user, got %d", users)
	}
}
