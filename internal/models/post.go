package models

import (
	"time"
)

// PostStatus is the lifecycle state of a feature request. Any admin may set
// any of the three values; there is no enforced ordering between them.
type PostStatus string

const (
	StatusPlanned    PostStatus = "planned"
	StatusInProgress PostStatus = "in_progress"
	StatusCompleted  PostStatus = "completed"
)

// Valid reports whether the status is one of the known values.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Post is a feature request submitted by a user within a tenant.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Status      PostStatus `gorm:"type:varchar(16);not null;default:planned" json:"status"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	TenantID    uint       `gorm:"not null;index" json:"tenant_id"`
	Tenant      Tenant     `gorm:"foreignKey:TenantID" json:"-"`
	// UpvotesCount is not persisted; computed at query time
	UpvotesCount int `gorm:"->" json:"upvotes_count"`
	// Upvoted indicates whether the current requesting user upvoted this post (computed)
	Upvoted   bool      `gorm:"->" json:"upvoted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
