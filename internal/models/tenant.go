// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Tenant is the root of isolation: every user, post, and upvote row carries
// the ID of exactly one tenant.
type Tenant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyName string    `gorm:"unique;not null" json:"company_name"`
	Slug        string    `gorm:"unique;not null" json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Users []User `gorm:"foreignKey:TenantID" json:"users,omitempty"`
	Posts []Post `gorm:"foreignKey:TenantID" json:"posts,omitempty"`
}
