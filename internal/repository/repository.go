package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	Users     UserRepository
	OTPs      OTPRepository
	Blacklist TokenBlacklistRepository
	Products  ProductRepository
	Reviews   ReviewRepository
	Carts     CartRepository
	Orders    OrderRepository

	db *gorm.DB
}

// Transactor runs fn inside a database transaction with repositories bound to it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error
}

// New builds GORM-backed repositories.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(db),
		OTPs:      NewOTPRepository(db),
		Blacklist: NewTokenBlacklistRepository(db),
		Products:  NewProductRepository(db),
		Reviews:   NewReviewRepository(db),
		Carts:     NewCartRepository(db),
		Orders:    NewOrderRepository(db),
		db:        db,
	}
}

// WithTransaction executes fn within a database transaction. Returning an error rolls back.
func (r *Repositories) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, New(tx))
	})
}

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ListOptions carries pagination for list queries.
type ListOptions struct {
	Offset int
	Limit  int
}

func (o ListOptions) apply(db *gorm.DB) *gorm.DB {
	if o.Limit > 0 {
		db = db.Limit(o.Limit)
	}
	if o.Offset > 0 {
		db = db.Offset(o.Offset)
	}
	return db
}
