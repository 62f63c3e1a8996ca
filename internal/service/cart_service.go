package service

import (
	"context"
	"fmt"

	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/repository"
)

// CartService manages the caller's shopping cart.
type CartService interface {
	// GetCart returns the user's cart, creating an empty one on first access.
	GetCart(ctx context.Context, user *model.User) (*model.Cart, error)
	// AddItem adds quantity of a product, summing with an existing line.
	AddItem(ctx context.Context, user *model.User, productID uint, quantity int) (*model.CartItem, error)
	GetItem(ctx context.Context, user *model.User, itemID uint) (*model.CartItem, error)
	UpdateItem(ctx context.Context, user *model.User, itemID uint, quantity int) (*model.CartItem, error)
	DeleteItem(ctx context.Context, user *model.User, itemID uint) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

func (s *cartService) GetCart(ctx context.Context, user *model.User) (*model.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, user *model.User, productID uint, quantity int) (*model.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	cart, err := s.carts.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	item, err := s.carts.AddOrIncrement(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (s *cartService) GetItem(ctx context.Context, user *model.User, itemID uint) (*model.CartItem, error) {
	return s.findOwned(ctx, user, itemID)
}

func (s *cartService) UpdateItem(ctx context.Context, user *model.User, itemID uint, quantity int) (*model.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	item, err := s.findOwned(ctx, user, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.carts.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func (s *cartService) DeleteItem(ctx context.Context, user *model.User, itemID uint) error {
	item, err := s.findOwned(ctx, user, itemID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// findOwned hides items of other users' carts behind not-found.
func (s *cartService) findOwned(ctx context.Context, user *model.User, itemID uint) (*model.CartItem, error) {
	item, err := s.carts.FindOwnedItem(ctx, itemID, user.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return item, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return errors.NewValidationError("quantity", "quantity must be at least 1")
	}
	return nil
}
