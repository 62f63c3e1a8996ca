package model

import "time"

// Cart is the single shopping cart of a user.
type Cart struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Items []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	User  User       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CartID    uint      `json:"cart" gorm:"not null;uniqueIndex:idx_cart_product,priority:1"`
	ProductID uint      `json:"product" gorm:"not null;uniqueIndex:idx_cart_product,priority:2"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}
