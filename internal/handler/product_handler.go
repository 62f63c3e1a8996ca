package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/pagination"
	"opticart/internal/service"
)

const (
	productsPageSize    = 4
	maxProductsPageSize = 1000
)

// ProductHandler serves the catalog and product review endpoints.
type ProductHandler struct {
	products service.ProductService
	reviews  service.ReviewService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products service.ProductService, reviews service.ReviewService) *ProductHandler {
	return &ProductHandler{products: products, reviews: reviews}
}

// ProductRequest creates or changes a product. Absent fields are left alone on update.
type ProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price" swaggertype:"string" example:"129.99"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	FrameMaterial *string          `json:"frame_material" validate:"omitempty,max=100"`
	LensMaterial  *string          `json:"lens_material" validate:"omitempty,max=100"`
	StyleShapes   *string          `json:"style_shapes" validate:"omitempty,max=100"`
	Color         *string          `json:"color" validate:"omitempty,max=100"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,min=0"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Category:      r.Category,
		FrameMaterial: r.FrameMaterial,
		LensMaterial:  r.LensMaterial,
		StyleShapes:   r.StyleShapes,
		Color:         r.Color,
		StockQuantity: r.StockQuantity,
	}
}

// ReviewRequest is a rating with an optional comment.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param keyword query string false "Matches name, description or category"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=pagination.Page[model.Product]}
// @Failure 404 {object} ErrorEnvelope
// @Router /products/ [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	p, opts, err := pageParams(c, productsPageSize, maxProductsPageSize)
	if err != nil {
		return err
	}
	products, total, err := h.products.List(c.Request().Context(), c.QueryParam("keyword"), opts)
	if err != nil {
		return err
	}
	page, err := pagination.New[model.Product](products, total, p, requestURL(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// TopProducts godoc
// @Summary Best rated products
// @Tags products
// @Produce json
// @Success 200 {object} Envelope{data=[]model.Product}
// @Router /products/top/ [get]
func (h *ProductHandler) TopProducts(c echo.Context) error {
	products, err := h.products.Top(c.Request().Context())
	if err != nil {
		return err
	}
	if products == nil {
		products = []model.Product{}
	}
	return respond(c, http.StatusOK, products)
}

// GetProduct godoc
// @Summary Product detail with images and reviews
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Envelope{data=model.Product}
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/ [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, product)
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} Envelope{data=model.Product}
// @Failure 400 {object} ErrorEnvelope
// @Failure 403 {object} ErrorEnvelope
// @Router /products/ [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.products.Create(c.Request().Context(), actor, req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Fields to change"
// @Success 200 {object} Envelope{data=model.Product}
// @Failure 400 {object} ErrorEnvelope
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/ [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.products.Update(c.Request().Context(), actor, id, req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/ [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "product deleted")
}

// UploadImage godoc
// @Summary Upload a product image
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param image formData file true "Image file"
// @Param alt_text formData string false "Alternative text"
// @Success 201 {object} Envelope{data=model.ProductImage}
// @Failure 400 {object} ErrorEnvelope
// @Failure 403 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/images/ [post]
func (h *ProductHandler) UploadImage(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile("image")
	if err != nil {
		return errors.NewValidationError("image", "no file was submitted")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	image, err := h.products.AddImage(c.Request().Context(), actor, id, service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		AltText:     c.FormValue("alt_text"),
		Body:        file,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, image)
}

// ListReviews godoc
// @Summary Reviews of a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} Envelope{data=[]model.Review}
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/reviews/ [get]
func (h *ProductHandler) ListReviews(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.reviews.ListForProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return respond(c, http.StatusOK, reviews)
}

// CreateReview godoc
// @Summary Review a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ReviewRequest true "Review"
// @Success 201 {object} Envelope{data=model.Review}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /products/{id}/reviews/ [post]
func (h *ProductHandler) CreateReview(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	review, err := h.reviews.Create(c.Request().Context(), user, id, service.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, review)
}
