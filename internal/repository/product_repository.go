package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"opticart/internal/model"
)

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	// FindDetail loads the product with its images and reviews.
	FindDetail(ctx context.Context, id uint) (*model.Product, error)
	// List filters by keyword over name, description and category, ordered by id.
	List(ctx context.Context, keyword string, opts ListOptions) ([]model.Product, int64, error)
	// Top returns up to limit products rated at least minRating, best first.
	Top(ctx context.Context, minRating float64, limit int) ([]model.Product, error)
	Delete(ctx context.Context, id uint) ([]model.ProductImage, error)
	AddImage(ctx context.Context, image *model.ProductImage) error
	// DecrementStock removes qty from stock. It reports false when stock is short.
	DecrementStock(ctx context.Context, id uint, qty int) (bool, error)
	// RefreshRating recomputes rating and num_reviews from the reviews table.
	RefreshRating(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Images", "Reviews").Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Images", "Reviews").Save(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Images").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindDetail(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Images").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// likeEscaper makes a keyword match literally inside a LIKE pattern. '!' is the
// escape character because backslash needs quoting differently per dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *productRepository) List(ctx context.Context, keyword string, opts ListOptions) ([]model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if keyword != "" {
		like := "%" + likeEscaper.Replace(keyword) + "%"
		query = query.Where(
			"LOWER(name) LIKE LOWER(?) ESCAPE '!' OR LOWER(description) LIKE LOWER(?) ESCAPE '!' OR LOWER(category) LIKE LOWER(?) ESCAPE '!'",
			like, like, like,
		)
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	if err := opts.apply(query.Preload("Images").Order("id")).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *productRepository) Top(ctx context.Context, minRating float64, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("num_reviews > 0 AND rating >= ?", minRating).
		Order("rating DESC").Order("id").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// Delete removes the product with its images, reviews and cart/order lines and
// returns the removed images so their files can be cleaned up.
func (r *productRepository) Delete(ctx context.Context, id uint) ([]model.ProductImage, error) {
	var images []model.ProductImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Find(&images).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&model.ProductImage{}, &model.Review{}, &model.CartItem{}, &model.OrderItem{}} {
			if err := tx.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *productRepository) AddImage(ctx context.Context, image *model.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *productRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepository) RefreshRating(ctx context.Context, id uint) error {
	var agg struct {
		AvgRating   float64
		ReviewCount int
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count").
		Where("product_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": agg.AvgRating, "num_reviews": agg.ReviewCount}).Error
}
