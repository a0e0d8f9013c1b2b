package handlers

import (
	"time"

	"foodgram/internal/store"
	"foodgram/models"
)

type userResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type registeredUserResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	MeasurementUnit string  `json:"measurement_unit"`
	Amount          float64 `json:"amount"`
}

type recipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           userResponse               `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	CreatedAt        time.Time                  `json:"created_at"`
}

type shortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionResponse struct {
	userResponse
	Recipes      []shortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

func projectUser(profile store.UserProfile) userResponse {
	return userResponse{
		Email:        profile.User.Email,
		ID:           profile.User.ID,
		Username:     profile.User.Username,
		FirstName:    profile.User.FirstName,
		LastName:     profile.User.LastName,
		IsSubscribed: profile.IsSubscribed,
	}
}

func projectRegisteredUser(user *models.User) registeredUserResponse {
	return registeredUserResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func projectTag(tag models.Tag) tagResponse {
	return tagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func projectIngredient(ingredient models.Ingredient) ingredientResponse {
	return ingredientResponse{ID: ingredient.ID, Name: ingredient.Name, MeasurementUnit: ingredient.MeasurementUnit}
}

func projectRecipe(detail store.RecipeDetail) recipeResponse {
	recipe := detail.Recipe
	tags := make([]tagResponse, 0, len(recipe.Tags))
	for _, tag := range store.SortedTags(recipe) {
		tags = append(tags, projectTag(tag))
	}
	ingredients := make([]recipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		ingredients = append(ingredients, recipeIngredientResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return recipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           projectUser(store.UserProfile{User: recipe.Author, IsSubscribed: detail.AuthorSubscribed}),
		Ingredients:      ingredients,
		IsFavorited:      detail.IsFavorited,
		IsInShoppingCart: detail.IsInShoppingCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		CreatedAt:        recipe.CreatedAt,
	}
}

func projectShortRecipe(recipe models.Recipe) shortRecipeResponse {
	return shortRecipeResponse{ID: recipe.ID, Name: recipe.Name, Image: recipe.Image, CookingTime: recipe.CookingTime}
}

func projectSubscription(summary store.AuthorSummary) subscriptionResponse {
	recipes := make([]shortRecipeResponse, 0, len(summary.Recipes))
	for _, recipe := range summary.Recipes {
		recipes = append(recipes, projectShortRecipe(recipe))
	}
	return subscriptionResponse{
		userResponse: projectUser(store.UserProfile{User: summary.User, IsSubscribed: summary.IsSubscribed}),
		Recipes:      recipes,
		RecipesCount: summary.RecipesCount,
	}
}
