package model

import "time"

// User represents a registered customer or administrator.
type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:200;not null"`
	Username        string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	FirstName       string     `json:"first_name" gorm:"size:50"`
	LastName        string     `json:"last_name" gorm:"size:50"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsAdmin         bool       `json:"is_admin" gorm:"default:false;index"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"user_created"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
