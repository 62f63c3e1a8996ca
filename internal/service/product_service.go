package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"opticart/internal/auth"
	"opticart/internal/cache"
	"opticart/internal/errors"
	"opticart/internal/logging"
	"opticart/internal/metrics"
	"opticart/internal/model"
	"opticart/internal/repository"
	"opticart/internal/storage"
)

const (
	productCacheTTL = time.Minute
	topProductsKey  = "products:top"

	// TopMinRating is the lowest average rating listed among top products.
	TopMinRating = 4.0
	// TopLimit is the number of top products returned.
	TopLimit = 6
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// invalidateProducts drops cached detail for the products and the top list.
func invalidateProducts(ctx context.Context, c *cache.Client, ids ...uint) {
	keys := []string{topProductsKey}
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	_ = c.Delete(ctx, keys...)
}

// ProductInput carries catalog fields. Nil fields are left alone on update.
type ProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Category      *string
	FrameMaterial *string
	LensMaterial  *string
	StyleShapes   *string
	Color         *string
	StockQuantity *int
}

func (in ProductInput) apply(p *model.Product) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.Description, in.Description)
	set(&p.Category, in.Category)
	set(&p.FrameMaterial, in.FrameMaterial)
	set(&p.LensMaterial, in.LensMaterial)
	set(&p.StyleShapes, in.StyleShapes)
	set(&p.Color, in.Color)
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
}

// ImageUpload is a product picture received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	AltText     string
	Body        io.Reader
}

// ProductService exposes catalog operations.
type ProductService interface {
	List(ctx context.Context, keyword string, opts repository.ListOptions) ([]model.Product, int64, error)
	Top(ctx context.Context) ([]model.Product, error)
	// Get returns the product with images and reviews.
	Get(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, actor *model.User, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, actor *model.User, id uint, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	AddImage(ctx context.Context, actor *model.User, id uint, upload ImageUpload) (*model.ProductImage, error)
}

type productService struct {
	repo    repository.ProductRepository
	disk    storage.Disk
	cache   *cache.Client
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewProductService creates a new product service. cache and m may be nil.
func NewProductService(repo repository.ProductRepository, disk storage.Disk, cache *cache.Client, m *metrics.Metrics, log *slog.Logger) ProductService {
	if log == nil {
		log = logging.Discard()
	}
	return &productService{repo: repo, disk: disk, cache: cache, metrics: m, log: log}
}

func (s *productService) List(ctx context.Context, keyword string, opts repository.ListOptions) ([]model.Product, int64, error) {
	return s.repo.List(ctx, strings.TrimSpace(keyword), opts)
}

func (s *productService) Top(ctx context.Context) ([]model.Product, error) {
	var cached []model.Product
	if s.cache.GetJSON(ctx, topProductsKey, &cached) {
		s.metrics.CacheLookup(true)
		return cached, nil
	}
	s.metrics.CacheLookup(false)

	products, err := s.repo.Top(ctx, TopMinRating, TopLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	_ = s.cache.SetJSON(ctx, topProductsKey, products, productCacheTTL)
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uint) (*model.Product, error) {
	var cached model.Product
	if s.cache.GetJSON(ctx, productCacheKey(id), &cached) {
		s.metrics.CacheLookup(true)
		return &cached, nil
	}
	s.metrics.CacheLookup(false)

	product, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	_ = s.cache.SetJSON(ctx, productCacheKey(id), product, productCacheTTL)
	return product, nil
}

func (s *productService) Create(ctx context.Context, actor *model.User, in ProductInput) (*model.Product, error) {
	if !auth.IsAdmin(actor) {
		return nil, errors.ErrForbidden
	}
	product := &model.Product{}
	in.apply(product)
	if product.Name == "" {
		return nil, errors.NewValidationError("name", "this field is required")
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	product.Images = []model.ProductImage{}
	invalidateProducts(ctx, s.cache)
	return product, nil
}

func (s *productService) Update(ctx context.Context, actor *model.User, id uint, in ProductInput) (*model.Product, error) {
	if !auth.IsAdmin(actor) {
		return nil, errors.ErrForbidden
	}
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(product)
	if product.Name == "" {
		return nil, errors.NewValidationError("name", "this field may not be blank")
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	invalidateProducts(ctx, s.cache, id)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if !auth.IsAdmin(actor) {
		return errors.ErrForbidden
	}
	images, err := s.repo.Delete(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	for _, img := range images {
		if img.StoragePath == "" {
			continue
		}
		if err := s.disk.Delete(ctx, img.StoragePath); err != nil {
			s.log.WarnContext(ctx, "orphaned product image", "path", img.StoragePath, "err", err)
		}
	}
	invalidateProducts(ctx, s.cache, id)
	return nil
}

func (s *productService) AddImage(ctx context.Context, actor *model.User, id uint, upload ImageUpload) (*model.ProductImage, error) {
	if !auth.IsAdmin(actor) {
		return nil, errors.ErrForbidden
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(upload.Filename))
	if !imageExtensions[ext] {
		return nil, errors.ErrInvalidImage
	}
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(ext)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.ErrInvalidImage
	}

	key := fmt.Sprintf("products/%d/%s%s", id, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, upload.Body, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	image := &model.ProductImage{
		ProductID:   id,
		ImageURL:    s.disk.URL(key),
		StoragePath: key,
		AltText:     strings.TrimSpace(upload.AltText),
	}
	if err := s.repo.AddImage(ctx, image); err != nil {
		_ = s.disk.Delete(ctx, key)
		return nil, fmt.Errorf("save image: %w", err)
	}
	invalidateProducts(ctx, s.cache, id)
	return image, nil
}

func (s *productService) find(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func validateProduct(p *model.Product) error {
	if p.Price.IsNegative() {
		return errors.NewValidationError("price", "ensure this value is greater than or equal to 0")
	}
	if p.StockQuantity < 0 {
		return errors.NewValidationError("stock_quantity", "ensure this value is greater than or equal to 0")
	}
	return nil
}
