package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item in the catalog.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category      string          `json:"category" gorm:"size:100;index"`
	FrameMaterial string          `json:"frame_material" gorm:"size:100"`
	LensMaterial  string          `json:"lens_material" gorm:"size:100"`
	StyleShapes   string          `json:"style_shapes" gorm:"size:100"`
	Color         string          `json:"color" gorm:"size:100"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	Rating        float64         `json:"rating" gorm:"not null;default:0;index"`
	NumReviews    int             `json:"num_reviews" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Images  []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Reviews []Review       `json:"reviews,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ProductImage is an uploaded picture of a product.
type ProductImage struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProductID   uint      `json:"product_id" gorm:"not null;index"`
	ImageURL    string    `json:"image_url" gorm:"size:512;not null"`
	StoragePath string    `json:"-" gorm:"size:512"`
	AltText     string    `json:"alt_text" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
