package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"opticart/internal/model"
	"opticart/internal/pagination"
	"opticart/internal/service"
)

const (
	ordersPageSize    = 10
	maxOrdersPageSize = 100
)

// OrderHandler serves order placement and history.
type OrderHandler struct {
	svc service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// OrderLineRequest is one product line of a new order.
type OrderLineRequest struct {
	Product  uint `json:"product" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest places an order. Without items the cart is checked out.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items" validate:"omitempty,dive"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	BillingAddress  string             `json:"billing_address"`
}

// UpdateOrderRequest changes the addresses of an order.
type UpdateOrderRequest struct {
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,min=1"`
	BillingAddress  *string `json:"billing_address"`
}

// ListOrders godoc
// @Summary Order history
// @Description Regular users see their own orders, admins see every order. Newest first.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=pagination.Page[model.Order]}
// @Failure 404 {object} ErrorEnvelope
// @Router /orders/ [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	p, opts, err := pageParams(c, ordersPageSize, maxOrdersPageSize)
	if err != nil {
		return err
	}
	orders, total, err := h.svc.List(c.Request().Context(), user, opts)
	if err != nil {
		return err
	}
	page, err := pagination.New[model.Order](orders, total, p, requestURL(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// CreateOrder godoc
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrderRequest true "Order"
// @Success 201 {object} Envelope{data=model.Order}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /orders/ [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in := service.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, service.OrderLine{ProductID: line.Product, Quantity: line.Quantity})
	}
	order, err := h.svc.Create(c.Request().Context(), user, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, order)
}

// GetOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} Envelope{data=model.Order}
// @Failure 404 {object} ErrorEnvelope
// @Router /orders/{id}/ [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.svc.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// UpdateOrder godoc
// @Summary Change the addresses of an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body UpdateOrderRequest true "Addresses"
// @Success 200 {object} Envelope{data=model.Order}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /orders/{id}/ [put]
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.svc.Update(c.Request().Context(), user, id, service.UpdateOrderInput{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary Delete an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 404 {object} ErrorEnvelope
// @Router /orders/{id}/ [delete]
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "order deleted")
}
