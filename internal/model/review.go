package model

import "time"

// Review is a rating left by a user on a product. One per user per product.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product" gorm:"not null;uniqueIndex:idx_review_product_user,priority:1"`
	UserID    uint      `json:"user" gorm:"not null;uniqueIndex:idx_review_product_user,priority:2;index"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
