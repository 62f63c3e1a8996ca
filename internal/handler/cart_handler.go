package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"opticart/internal/service"
)

// CartHandler serves the caller's shopping cart.
type CartHandler struct {
	svc service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(svc service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// AddCartItemRequest adds quantity units of a product to the cart.
type AddCartItemRequest struct {
	Product  uint `json:"product" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

// UpdateCartItemRequest sets the quantity of a cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// GetCart godoc
// @Summary The caller's cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=model.Cart}
// @Failure 401 {object} ErrorEnvelope
// @Router /cart/ [get]
func (h *CartHandler) GetCart(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	cart, err := h.svc.GetCart(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cart)
}

// AddItem godoc
// @Summary Add a product to the cart
// @Description Adding a product already in the cart increases its quantity.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddCartItemRequest true "Product and quantity"
// @Success 201 {object} Envelope{data=model.CartItem}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /cart/ [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req AddCartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.AddItem(c.Request().Context(), user, req.Product, req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, item)
}

// GetItem godoc
// @Summary Get a cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cart item ID"
// @Success 200 {object} Envelope{data=model.CartItem}
// @Failure 404 {object} ErrorEnvelope
// @Router /cart/items/{id}/ [get]
func (h *CartHandler) GetItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.svc.GetItem(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// UpdateItem godoc
// @Summary Set the quantity of a cart line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cart item ID"
// @Param request body UpdateCartItemRequest true "Quantity"
// @Success 200 {object} Envelope{data=model.CartItem}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /cart/items/{id}/ [put]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateCartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.svc.UpdateItem(c.Request().Context(), user, id, req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Cart item ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 404 {object} ErrorEnvelope
// @Router /cart/items/{id}/ [delete]
func (h *CartHandler) DeleteItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteItem(c.Request().Context(), user, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "item removed from cart")
}
