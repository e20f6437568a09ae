package models

import (
	"time"
)

// Upvote records a user's single vote of support for a post.
// The combination of UserID and PostID must be unique so that concurrent
// duplicate upvotes cannot slip past the application-level check.
type Upvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_upvote_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_upvote_user_post" json:"post_id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}
