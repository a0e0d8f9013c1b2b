package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodgram/models"
)

// AuthorSummary is a followed author with a preview of their recipes.
type AuthorSummary struct {
	User         models.User
	IsSubscribed bool
	Recipes      []models.Recipe
	RecipesCount int64
}

// Subscribe makes actor follow authorID. recipesLimit bounds the recipe
// preview of the returned summary; zero or less means no limit.
func (s *Store) Subscribe(ctx context.Context, actor Identity, authorID uint, recipesLimit int) (*AuthorSummary, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, err
	}

	var author models.User
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			return translate(err)
		}
		if author.ID == uid {
			return invalid("non_field_errors", "You cannot subscribe to yourself.")
		}
		taken, err := exists(tx.Model(&models.Subscription{}).Where("subscriber_id = ? AND author_id = ?", uid, authorID))
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "author", Message: "You are already subscribed to this author."}
		}
		return translate(tx.Omit(clause.Associations).Create(&models.Subscription{SubscriberID: uid, AuthorID: authorID}).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %d: %w", authorID, err)
	}

	summaries, err := s.summarize(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	summaries[0].IsSubscribed = true
	return &summaries[0], nil
}

// Unsubscribe removes the follow edge from actor to authorID.
func (s *Store) Unsubscribe(ctx context.Context, actor Identity, authorID uint) error {
	uid, err := requireUser(actor)
	if err != nil {
		return err
	}
	if _, err := s.FindUser(ctx, authorID); err != nil {
		return err
	}
	res := s.conn(ctx).Where("subscriber_id = ? AND author_id = ?", uid, authorID).Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("unsubscribe from %d: %w", authorID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription to %d: %w", authorID, ErrNotFound)
	}
	return nil
}

// ListSubscriptions returns a page of the authors actor follows ordered by
// username, each with up to recipesLimit of their newest recipes.
func (s *Store) ListSubscriptions(ctx context.Context, actor Identity, page Page, recipesLimit int) ([]AuthorSummary, int64, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, 0, err
	}

	followed := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
			Where("subscriptions.subscriber_id = ?", uid)
	}

	var count int64
	if err := s.conn(ctx).Model(&models.User{}).Scopes(followed).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	var authors []models.User
	q := s.conn(ctx).Scopes(followed).Order("users.username ASC, users.id ASC")
	if err := page.apply(q).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	summaries, err := s.summarize(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	for i := range summaries {
		summaries[i].IsSubscribed = true
	}
	return summaries, count, nil
}

func (s *Store) summarize(ctx context.Context, authors []models.User, recipesLimit int) ([]AuthorSummary, error) {
	summaries := make([]AuthorSummary, 0, len(authors))
	if len(authors) == 0 {
		return summaries, nil
	}

	ids := make([]uint, 0, len(authors))
	for _, author := range authors {
		ids = append(ids, author.ID)
	}
	var counts []struct {
		AuthorID uint
		Total    int64
	}
	if err := s.conn(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	totals := make(map[uint]int64, len(counts))
	for _, row := range counts {
		totals[row.AuthorID] = row.Total
	}

	for _, author := range authors {
		q := s.conn(ctx).Where("author_id = ?", author.ID).Order("created_at DESC, id DESC")
		if recipesLimit > 0 {
			q = q.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := q.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("load recipes of %d: %w", author.ID, err)
		}
		summaries = append(summaries, AuthorSummary{
			User:         author,
			Recipes:      recipes,
			RecipesCount: totals[author.ID],
		})
	}
	return summaries, nil
}
