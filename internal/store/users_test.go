package store

import (
	"context"
	"errors"
	"testing"

	"foodgram/models"
)

func TestCreateUserRejectsDuplicates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, "alice")

	tests := []struct {
		name      string
		reg       Registration
		wantField string
	}{
		{
			name:      "email differs only in case",
			reg:       Registration{Email: "ALICE@example.com", Username: "alice2", FirstName: "A", LastName: "B", Password: "long-enough"},
			wantField: "email",
		},
		{
			name:      "username",
			reg:       Registration{Email: "other@example.com", Username: "alice", FirstName: "A", LastName: "B", Password: "long-enough"},
			wantField: "username",
		},
	}

	for _, tt := range tests {
		_, err := s.CreateUser(ctx, tt.reg)
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("%s: expected conflict, got %v", tt.name, err)
		}
		if conflict.Field != tt.wantField {
			t.Fatalf("%s: conflict field = %q, want %q", tt.name, conflict.Field, tt.wantField)
		}
	}
}

func TestCreateUserValidatesFields(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.CreateUser(context.Background(), Registration{
		Email:    "not-an-email",
		Username: "bad name!",
		Password: "short",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"email", "username", "first_name", "last_name", "password"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %q in validation fields, got %v", field, verr.Fields)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, "bob")

	user, err := s.Authenticate(ctx, " Bob@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "bob" {
		t.Fatalf("authenticated %q, want bob", user.Username)
	}
	if _, err := s.Authenticate(ctx, "bob@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestIsSubscribedFollowsSubscriptionRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	reader := mustUser(t, s, "reader")
	author := mustUser(t, s, "author")
	stranger := mustUser(t, s, "stranger")
	authorID, _ := author.UserID()

	if _, err := s.Subscribe(ctx, reader, authorID, 0); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tests := []struct {
		name   string
		viewer Identity
		want   bool
	}{
		{"subscriber", reader, true},
		{"other user", stranger, false},
		{"anonymous", Anonymous(), false},
		{"nil identity", nil, false},
	}
	for _, tt := range tests {
		profile, err := s.GetUser(ctx, tt.viewer, authorID)
		if err != nil {
			t.Fatalf("%s: get user: %v", tt.name, err)
		}
		if profile.IsSubscribed != tt.want {
			t.Fatalf("%s: is_subscribed = %v, want %v", tt.name, profile.IsSubscribed, tt.want)
		}
	}

	profiles, count, err := s.ListUsers(ctx, reader, Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if count != 3 || len(profiles) != 3 {
		t.Fatalf("expected 3 users, got count=%d len=%d", count, len(profiles))
	}
	want := []string{"author", "reader", "stranger"}
	for i, profile := range profiles {
		if profile.User.Username != want[i] {
			t.Fatalf("users[%d] = %q, want %q", i, profile.User.Username, want[i])
		}
		if profile.IsSubscribed != (profile.User.ID == authorID) {
			t.Fatalf("users[%d].is_subscribed = %v", i, profile.IsSubscribed)
		}
	}
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.GetUser(context.Background(), Anonymous(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	carol := mustUser(t, s, "carol")

	err := s.SetPassword(ctx, carol, "wrong-password", "new-password-1")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["current_password"] == "" {
		t.Fatalf("expected current_password validation error, got %v", err)
	}
	if err := s.SetPassword(ctx, Anonymous(), "correct-horse", "new-password-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if err := s.SetPassword(ctx, carol, "correct-horse", "new-password-1"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "carol@example.com", "new-password-1"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	admin := mustStaff(t, s, "admin")
	doomed := mustUser(t, s, "doomed")
	fan := mustUser(t, s, "fan")
	doomedID, _ := doomed.UserID()
	fanID, _ := fan.UserID()

	tag := mustTag(t, s, admin, "lunch")
	salt := mustIngredient(t, s, admin, "Соль", models.UnitGram)
	own := mustRecipe(t, s, doomed, "Soup", []uint{tag.ID}, RecipeIngredientInput{ID: salt.ID, Amount: 5})
	other := mustRecipe(t, s, fan, "Salad", []uint{tag.ID}, RecipeIngredientInput{ID: salt.ID, Amount: 1})

	if _, err := s.AddFavorite(ctx, fan, own.Recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if _, err := s.AddToCart(ctx, doomed, other.Recipe.ID); err != nil {
		t.Fatalf("cart: %v", err)
	}
	if _, err := s.Subscribe(ctx, fan, doomedID, 0); err != nil {
		t.Fatalf("subscribe fan: %v", err)
	}
	if _, err := s.Subscribe(ctx, doomed, fanID, 0); err != nil {
		t.Fatalf("subscribe doomed: %v", err)
	}

	if err := s.DeleteUser(ctx, fan, doomedID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-staff, got %v", err)
	}
	if err := s.DeleteUser(ctx, admin, doomedID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	checks := []struct {
		model any
		where string
		args  []any
	}{
		{&models.User{}, "id = ?", []any{doomedID}},
		{&models.Recipe{}, "author_id = ?", []any{doomedID}},
		{&models.RecipeIngredient{}, "recipe_id = ?", []any{own.Recipe.ID}},
		{&models.RecipeTag{}, "recipe_id = ?", []any{own.Recipe.ID}},
		{&models.Favorite{}, "recipe_id = ?", []any{own.Recipe.ID}},
		{&models.ShoppingCartItem{}, "user_id = ?", []any{doomedID}},
		{&models.Subscription{}, "subscriber_id = ? OR author_id = ?", []any{doomedID, doomedID}},
	}
	for _, c := range checks {
		if n := countRows(t, s, c.model, c.where, c.args...); n != 0 {
			t.Fatalf("%T: %d rows remain after user deletion", c.model, n)
		}
	}
	if n := countRows(t, s, &models.Recipe{}, "id = ?", other.Recipe.ID); n != 1 {
		t.Fatalf("unrelated recipe was removed")
	}
}
