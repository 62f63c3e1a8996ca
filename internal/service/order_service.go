package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"opticart/internal/auth"
	"opticart/internal/cache"
	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/repository"
)

// OrderLine requests quantity units of a product.
type OrderLine struct {
	ProductID uint
	Quantity  int
}

// CreateOrderInput places an order. Without lines the caller's cart is checked out.
type CreateOrderInput struct {
	Items           []OrderLine
	ShippingAddress string
	BillingAddress  string
}

// UpdateOrderInput changes the addresses of an order. Nil fields are left alone.
type UpdateOrderInput struct {
	ShippingAddress *string
	BillingAddress  *string
}

// OrderService places and manages orders. Admins see every order; other
// users only their own.
type OrderService interface {
	List(ctx context.Context, user *model.User, opts repository.ListOptions) ([]model.Order, int64, error)
	// Create prices the lines at current product prices and takes them out of stock.
	Create(ctx context.Context, user *model.User, in CreateOrderInput) (*model.Order, error)
	Get(ctx context.Context, user *model.User, id uint) (*model.Order, error)
	Update(ctx context.Context, user *model.User, id uint, in UpdateOrderInput) (*model.Order, error)
	Delete(ctx context.Context, user *model.User, id uint) error
}

type orderService struct {
	orders repository.OrderRepository
	tx     repository.Transactor
	cache  *cache.Client
	now    func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, tx repository.Transactor, cache *cache.Client) OrderService {
	return &orderService{orders: orders, tx: tx, cache: cache, now: time.Now}
}

func (s *orderService) List(ctx context.Context, user *model.User, opts repository.ListOptions) ([]model.Order, int64, error) {
	var userID uint
	if !auth.IsAdmin(user) {
		userID = user.ID
	}
	orders, total, err := s.orders.List(ctx, userID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) Create(ctx context.Context, user *model.User, in CreateOrderInput) (*model.Order, error) {
	for _, line := range in.Items {
		if err := validateQuantity(line.Quantity); err != nil {
			return nil, err
		}
	}

	order := &model.Order{
		UserID:          user.ID,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		BillingAddress:  strings.TrimSpace(in.BillingAddress),
	}
	var productIDs []uint

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		lines := in.Items
		var cartID uint
		if len(lines) == 0 {
			cart, err := tx.Carts.GetOrCreate(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("get cart: %w", err)
			}
			cartID = cart.ID
			for _, item := range cart.Items {
				lines = append(lines, OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}
		lines = mergeLines(lines)
		if len(lines) == 0 {
			return errors.ErrEmptyOrder
		}

		total := decimal.Zero
		for _, line := range lines {
			product, err := tx.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				if repository.IsNotFound(err) {
					return errors.ErrProductNotFound
				}
				return fmt.Errorf("find product: %w", err)
			}
			ok, err := tx.Products.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w for product %d", errors.ErrInsufficientStock, product.ID)
			}
			order.Items = append(order.Items, model.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			productIDs = append(productIDs, product.ID)
		}

		order.TotalAmount = total
		order.OrderDate = s.now()
		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if cartID != 0 {
			if err := tx.Carts.Clear(ctx, cartID); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, productIDs...)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, user *model.User, id uint) (*model.Order, error) {
	return s.findVisible(ctx, user, id)
}

func (s *orderService) Update(ctx context.Context, user *model.User, id uint, in UpdateOrderInput) (*model.Order, error) {
	order, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if in.ShippingAddress != nil {
		order.ShippingAddress = strings.TrimSpace(*in.ShippingAddress)
	}
	if in.BillingAddress != nil {
		order.BillingAddress = strings.TrimSpace(*in.BillingAddress)
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, user *model.User, id uint) error {
	if _, err := s.findVisible(ctx, user, id); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// findVisible returns the order if user owns it or is an admin.
func (s *orderService) findVisible(ctx context.Context, user *model.User, id uint) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != user.ID && !auth.IsAdmin(user) {
		return nil, errors.ErrOrderNotFound
	}
	return order, nil
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(lines []OrderLine) []OrderLine {
	index := make(map[uint]int, len(lines))
	merged := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}
