package service

import (
	"context"
	"fmt"
	"strings"

	"opticart/internal/cache"
	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/repository"
)

// ReviewInput is a rating with an optional comment.
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewService manages product reviews. Every mutation recomputes the
// product's rating and review count in the same transaction.
type ReviewService interface {
	ListForProduct(ctx context.Context, productID uint) ([]model.Review, error)
	// Create adds the user's review. A user may review a product once.
	Create(ctx context.Context, user *model.User, productID uint, in ReviewInput) (*model.Review, error)
	Get(ctx context.Context, user *model.User, id uint) (*model.Review, error)
	Update(ctx context.Context, user *model.User, id uint, in ReviewInput) (*model.Review, error)
	Delete(ctx context.Context, user *model.User, id uint) error
}

type reviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	tx       repository.Transactor
	cache    *cache.Client
}

// NewReviewService creates a new review service.
func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, tx repository.Transactor, cache *cache.Client) ReviewService {
	return &reviewService{reviews: reviews, products: products, tx: tx, cache: cache}
}

func (s *reviewService) ListForProduct(ctx context.Context, productID uint) ([]model.Review, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) Create(ctx context.Context, user *model.User, productID uint, in ReviewInput) (*model.Review, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    user.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if _, err := tx.Products.FindByID(ctx, productID); err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrProductNotFound
			}
			return fmt.Errorf("find product: %w", err)
		}
		exists, err := tx.Reviews.ExistsForUser(ctx, productID, user.ID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return errors.ErrAlreadyReviewed
		}
		if err := tx.Reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return tx.Products.RefreshRating(ctx, productID)
	})
	if repository.IsDuplicate(err) {
		return nil, errors.ErrAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, productID)
	return review, nil
}

func (s *reviewService) Get(ctx context.Context, user *model.User, id uint) (*model.Review, error) {
	return findOwnedReview(ctx, s.reviews, id, user.ID)
}

func (s *reviewService) Update(ctx context.Context, user *model.User, id uint, in ReviewInput) (*model.Review, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	var review *model.Review
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		var err error
		review, err = findOwnedReview(ctx, tx.Reviews, id, user.ID)
		if err != nil {
			return err
		}
		review.Rating = in.Rating
		review.Comment = strings.TrimSpace(in.Comment)
		if err := tx.Reviews.Update(ctx, review); err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return tx.Products.RefreshRating(ctx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, review.ProductID)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, user *model.User, id uint) error {
	var productID uint
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		review, err := findOwnedReview(ctx, tx.Reviews, id, user.ID)
		if err != nil {
			return err
		}
		productID = review.ProductID
		if err := tx.Reviews.Delete(ctx, review.ID); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return tx.Products.RefreshRating(ctx, productID)
	})
	if err != nil {
		return err
	}

	invalidateProducts(ctx, s.cache, productID)
	return nil
}

// findOwnedReview hides other users' reviews behind not-found.
func findOwnedReview(ctx context.Context, repo repository.ReviewRepository, id, userID uint) (*model.Review, error) {
	review, err := repo.FindOwned(ctx, id, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.NewValidationError("rating", "rating must be between 1 and 5")
	}
	return nil
}
