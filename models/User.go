package models

import (
	"strings"
	"time"
)

// User represents an account that can author recipes, follow other authors and
// keep favorites and a shopping cart.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscription is a directed follow edge from Subscriber to Author.
type Subscription struct {
	ID           uint `gorm:"primaryKey"`
	SubscriberID uint `gorm:"not null;uniqueIndex:idx_subscription_pair;check:chk_subscription_not_self,subscriber_id <> author_id"`
	Subscriber   User `gorm:"foreignKey:SubscriberID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	AuthorID     uint `gorm:"not null;uniqueIndex:idx_subscription_pair;index"`
	Author       User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time
}
