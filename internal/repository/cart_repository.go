package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opticart/internal/model"
)

// CartRepository defines cart persistence operations.
type CartRepository interface {
	// GetOrCreate returns the user's cart with its items, creating it on first use.
	GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error)
	// FindOwnedItem finds a cart item only if its cart belongs to userID.
	FindOwnedItem(ctx context.Context, itemID, userID uint) (*model.CartItem, error)
	// AddOrIncrement adds qty of the product to the cart, summing with an existing line.
	AddOrIncrement(ctx context.Context, cartID, productID uint, qty int) (*model.CartItem, error)
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, itemID uint) error
	// Clear removes every item of the cart.
	Clear(ctx context.Context, cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error) {
	db := r.db.WithContext(ctx)
	cart := model.Cart{UserID: userID}
	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit("User", "Items").
		Create(&cart).Error
	if err != nil {
		return nil, err
	}

	var loaded model.Cart
	err = db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		First(&loaded).Error
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindOwnedItem(ctx context.Context, itemID, userID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) AddOrIncrement(ctx context.Context, cartID, productID uint, qty int) (*model.CartItem, error) {
	db := r.db.WithContext(ctx)
	item := model.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + ?", qty)}),
	}).Omit("Product").Create(&item).Error
	if err != nil {
		return nil, err
	}
	return r.FindItem(ctx, cartID, productID)
}

// UpdateItem updates an existing cart item.
func (r *cartRepository) UpdateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Save(item).Error
}

// DeleteItem deletes a cart item by ID.
func (r *cartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}
