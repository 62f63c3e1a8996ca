package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticart/internal/errors"
	"opticart/internal/repository"
)

func newTestOrderService(repos *repository.Repositories, now func() time.Time) OrderService {
	svc := NewOrderService(repos.Orders, repos, nil).(*orderService)
	svc.now = now
	return svc
}

func TestOrderService_CreateFromLines(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestOrderService(repos, clock.Now)
	alice := seedUser(t, repos, "alice", false)
	aviator := seedProduct(t, repos, "Aviator", "120.00", 5)
	round := seedProduct(t, repos, "Round", "60.50", 5)

	order, err := svc.Create(ctx, alice, CreateOrderInput{
		Items: []OrderLine{
			{ProductID: aviator.ID, Quantity: 1},
			{ProductID: round.ID, Quantity: 2},
			{ProductID: aviator.ID, Quantity: 1},
		},
		ShippingAddress: " 1 Main St ",
	})
	require.NoError(t, err)

	assert.Equal(t, "1 Main St", order.ShippingAddress)
	assert.True(t, clock.Now().Equal(order.OrderDate))
	require.Len(t, order.Items, 2)
	assert.Equal(t, aviator.ID, order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("361.00").Equal(order.TotalAmount), order.TotalAmount.String())

	stock, err := repos.Products.FindByID(ctx, aviator.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.StockQuantity)
}

func TestOrderService_InsufficientStockRollsBack(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewOrderService(repos.Orders, repos, nil)
	alice := seedUser(t, repos, "alice", false)
	plenty := seedProduct(t, repos, "Aviator", "120.00", 10)
	scarce := seedProduct(t, repos, "Round", "60.00", 1)

	_, err := svc.Create(ctx, alice, CreateOrderInput{Items: []OrderLine{
		{ProductID: plenty.ID, Quantity: 3},
		{ProductID: scarce.ID, Quantity: 2},
	}})
	assert.ErrorIs(t, err, errors.ErrInsufficientStock)

	p, err := repos.Products.FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)

	orders, total, err := svc.List(ctx, alice, repository.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestOrderService_CheckoutCart(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewOrderService(repos.Orders, repos, nil)
	carts := NewCartService(repos.Carts, repos.Products)
	alice := seedUser(t, repos, "alice", false)
	p := seedProduct(t, repos, "Aviator", "25.00", 5)

	_, err := svc.Create(ctx, alice, CreateOrderInput{})
	assert.ErrorIs(t, err, errors.ErrEmptyOrder)

	_, err = carts.AddItem(ctx, alice, p.ID, 2)
	require.NoError(t, err)

	order, err := svc.Create(ctx, alice, CreateOrderInput{})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("50").Equal(order.TotalAmount))

	cart, err := carts.GetCart(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestOrderService_Validation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewOrderService(repos.Orders, repos, nil)
	alice := seedUser(t, repos, "alice", false)

	var vErr *errors.ValidationError
	_, err := svc.Create(ctx, alice, CreateOrderInput{Items: []OrderLine{{ProductID: 1, Quantity: 0}}})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Create(ctx, alice, CreateOrderInput{Items: []OrderLine{{ProductID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, errors.ErrProductNotFound)
}

func TestOrderService_Visibility(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewOrderService(repos.Orders, repos, nil)
	alice := seedUser(t, repos, "alice", false)
	mallory := seedUser(t, repos, "mallory", false)
	admin := seedUser(t, repos, "admin", true)
	p := seedProduct(t, repos, "Aviator", "10.00", 10)

	order, err := svc.Create(ctx, alice, CreateOrderInput{Items: []OrderLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, mallory, CreateOrderInput{Items: []OrderLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = svc.Get(ctx, mallory, order.ID)
	assert.ErrorIs(t, err, errors.ErrOrderNotFound)
	_, err = svc.Update(ctx, mallory, order.ID, UpdateOrderInput{ShippingAddress: strPtr("elsewhere")})
	assert.ErrorIs(t, err, errors.ErrOrderNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, mallory, order.ID), errors.ErrOrderNotFound)

	_, total, err := svc.List(ctx, alice, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	_, total, err = svc.List(ctx, admin, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	updated, err := svc.Update(ctx, admin, order.ID, UpdateOrderInput{BillingAddress: strPtr(" 2 Side St ")})
	require.NoError(t, err)
	assert.Equal(t, "2 Side St", updated.BillingAddress)

	require.NoError(t, svc.Delete(ctx, alice, order.ID))
	_, err = svc.Get(ctx, admin, order.ID)
	assert.ErrorIs(t, err, errors.ErrOrderNotFound)
}

func TestMergeLines(t *testing.T) {
	merged := mergeLines([]OrderLine{{1, 1}, {2, 2}, {1, 3}})
	assert.Equal(t, []OrderLine{{1, 4}, {2, 2}}, merged)
}
