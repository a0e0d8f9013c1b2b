package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/models"
)

// Registration is the payload accepted when creating an account.
type Registration struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// UserProfile is a user as seen by a particular viewer.
type UserProfile struct {
	User         models.User
	IsSubscribed bool
}

// CreateUser registers a new account. Email and username must be unused.
func (s *Store) CreateUser(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Email = models.NormalizeEmail(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	if verr := validateStruct(&reg); verr != nil {
		return nil, verr
	}

	hash, err := hashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        reg.Email,
		Username:     reg.Username,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx.Model(&models.User{}).Where("email = ?", user.Email)); err != nil {
			return err
		} else if taken {
			return &ConflictError{Field: "email", Message: "A user with that email already exists."}
		}
		if taken, err := exists(tx.Model(&models.User{}).Where("username = ?", user.Username)); err != nil {
			return err
		} else if taken {
			return &ConflictError{Field: "username", Message: "A user with that username already exists."}
		}
		return translate(tx.Create(user).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the account matching email when password is correct.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindUser loads an account by id without any viewer decoration.
func (s *Store) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, translate(err))
	}
	return &user, nil
}

// GetUser returns the profile of id with is_subscribed computed for viewer.
func (s *Store) GetUser(ctx context.Context, viewer Identity, id uint) (UserProfile, error) {
	user, err := s.FindUser(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	subscribed, err := s.subscribedTo(ctx, viewer, []uint{user.ID})
	if err != nil {
		return UserProfile{}, err
	}
	return UserProfile{User: *user, IsSubscribed: subscribed[user.ID]}, nil
}

// ListUsers returns a page of accounts ordered by username.
func (s *Store) ListUsers(ctx context.Context, viewer Identity, page Page) ([]UserProfile, int64, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := page.apply(s.conn(ctx).Order("username ASC, id ASC")).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	subscribed, err := s.subscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, UserProfile{User: user, IsSubscribed: subscribed[user.ID]})
	}
	return profiles, count, nil
}

// SetPassword replaces the caller's password after checking the current one.
func (s *Store) SetPassword(ctx context.Context, actor Identity, current, next string) error {
	uid, err := requireUser(actor)
	if err != nil {
		return err
	}
	payload := struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	}{current, next}
	if verr := validateStruct(&payload); verr != nil {
		return verr
	}

	user, err := s.FindUser(ctx, uid)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return invalid("current_password", "Invalid password.")
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.conn(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteUser removes an account and everything it owns. Only staff may do this.
func (s *Store) DeleteUser(ctx context.Context, actor Identity, id uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return fmt.Errorf("find user %d: %w", id, translate(err))
		}

		var owned []uint
		if err := tx.Model(&models.Recipe{}).Where("author_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return fmt.Errorf("load owned recipes: %w", err)
		}
		if err := deleteRecipeDependents(tx, owned...); err != nil {
			return err
		}

		steps := []struct {
			model any
			where string
			args  []any
		}{
			{&models.Favorite{}, "user_id = ?", []any{id}},
			{&models.ShoppingCartItem{}, "user_id = ?", []any{id}},
			{&models.Subscription{}, "subscriber_id = ? OR author_id = ?", []any{id, id}},
			{&models.Recipe{}, "author_id = ?", []any{id}},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.args...).Delete(step.model).Error; err != nil {
				return fmt.Errorf("delete user dependents: %w", err)
			}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		return nil
	})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", invalid("password", "Ensure this field has no more than 72 bytes.")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func exists(q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// subscribedTo reports which of authorIDs the viewer follows.
func (s *Store) subscribedTo(ctx context.Context, viewer Identity, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(authorIDs))
	uid, ok := viewerID(viewer)
	if !ok || len(authorIDs) == 0 {
		return out, nil
	}
	var followed []uint
	if err := s.conn(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND author_id IN ?", uid, authorIDs).
		Pluck("author_id", &followed).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}
