package mock

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/internal/store"
	"foodgram/models"
)

// DemoEmail and DemoPassword sign into the seeded staff account.
const (
	DemoEmail    = "demo@foodgram.app"
	DemoPassword = "foodgram"
)

// New returns an in-memory sqlite database seeded with a small recipe catalog.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	conn, err := db.OpenSQLite("foodgram-mock")
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(conn); err != nil {
		return nil, err
	}

	if err := seed(ctx, store.New(conn)); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return conn, nil
}

type seedRecipe struct {
	name        string
	text        string
	cookingTime int
	tags        []string
	ingredients map[string]float64
}

func seed(ctx context.Context, s *store.Store) error {
	applog.Debug(ctx, "seeding mock database")

	var users int64
	if err := s.DB().WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		applog.Debug(ctx, "mock database already seeded")
		return nil
	}

	user, err := s.CreateUser(ctx, store.Registration{
		Email:     DemoEmail,
		Username:  "demo",
		FirstName: "Demo",
		LastName:  "Cook",
		Password:  DemoPassword,
	})
	if err != nil {
		return err
	}
	if err := s.DB().WithContext(ctx).Model(user).Update("is_staff", true).Error; err != nil {
		return err
	}
	staff := store.AsUser(user.ID, true)

	tags := map[string]uint{}
	for _, input := range []store.TagInput{
		{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
	} {
		tag, err := s.CreateTag(ctx, staff, input)
		if err != nil {
			return fmt.Errorf("seed tag %s: %w", input.Slug, err)
		}
		tags[tag.Slug] = tag.ID
	}

	ingredients := map[string]uint{}
	for _, input := range []store.IngredientInput{
		{Name: "Мука", MeasurementUnit: models.UnitGram},
		{Name: "Молоко", MeasurementUnit: models.UnitMilliliter},
		{Name: "Яйцо", MeasurementUnit: models.UnitPiece},
		{Name: "Сахар", MeasurementUnit: models.UnitGram},
		{Name: "Картофель", MeasurementUnit: models.UnitGram},
		{Name: "Сливочное масло", MeasurementUnit: models.UnitGram},
	} {
		ingredient, _, err := s.UpsertIngredient(ctx, input)
		if err != nil {
			return fmt.Errorf("seed ingredient %s: %w", input.Name, err)
		}
		ingredients[ingredient.Name] = ingredient.ID
	}

	for _, r := range []seedRecipe{
		{
			name:        "Блины",
			text:        "Смешать муку, молоко и яйца, выпекать на горячей сковороде.",
			cookingTime: 30,
			tags:        []string{"breakfast"},
			ingredients: map[string]float64{"Мука": 200, "Молоко": 500, "Яйцо": 2, "Сахар": 30},
		},
		{
			name:        "Картофельное пюре",
			text:        "Отварить картофель, размять с маслом и горячим молоком.",
			cookingTime: 40,
			tags:        []string{"lunch", "dinner"},
			ingredients: map[string]float64{"Картофель": 800, "Молоко": 150, "Сливочное масло": 50},
		},
	} {
		input := store.RecipeInput{Name: r.name, Text: r.text, CookingTime: r.cookingTime}
		for _, slug := range r.tags {
			input.Tags = append(input.Tags, tags[slug])
		}
		for name, amount := range r.ingredients {
			input.Ingredients = append(input.Ingredients, store.RecipeIngredientInput{ID: ingredients[name], Amount: amount})
		}
		if _, err := s.CreateRecipe(ctx, staff, input); err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.name, err)
		}
	}

	return nil
}
