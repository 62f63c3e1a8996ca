package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opticart/internal/auth"
	"opticart/internal/cache"
	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UpdateUserInput carries the admin-editable fields. Nil fields are left alone.
type UpdateUserInput struct {
	Email     string
	Username  *string
	FirstName *string
	LastName  *string
	IsAdmin   *bool
}

// UserService exposes profile and account administration.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, actor *model.User, opts repository.ListOptions) ([]model.User, int64, error)
	UpdateUser(ctx context.Context, actor *model.User, in UpdateUserInput) (*model.User, error)
	// DeleteUser removes the account identified by email with everything it owns.
	DeleteUser(ctx context.Context, actor *model.User, email string) error
}

type userService struct {
	repo  repository.UserRepository
	tx    repository.Transactor
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, tx repository.Transactor, cache *cache.Client) UserService {
	return &userService{repo: repo, tx: tx, cache: cache}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, userCacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, userCacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor *model.User, opts repository.ListOptions) ([]model.User, int64, error) {
	if !auth.IsAdmin(actor) {
		return nil, 0, errors.ErrForbidden
	}
	return s.repo.List(ctx, opts)
}

func (s *userService) UpdateUser(ctx context.Context, actor *model.User, in UpdateUserInput) (*model.User, error) {
	if !auth.IsAdmin(actor) {
		return nil, errors.ErrForbidden
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			taken, err := s.repo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("check username: %w", err)
			}
			if taken {
				return nil, errors.ErrUsernameTaken
			}
			user.Username = username
		}
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor *model.User, email string) error {
	if !auth.IsAdmin(actor) {
		return errors.ErrForbidden
	}

	var userID uint
	var reviewed []uint
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		user, err := tx.Users.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}
		userID = user.ID

		reviewed, err = tx.Reviews.ProductIDsByUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("list reviewed products: %w", err)
		}
		if err := tx.Users.Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		for _, productID := range reviewed {
			if err := tx.Products.RefreshRating(ctx, productID); err != nil {
				return fmt.Errorf("refresh rating: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, userCacheKey(userID))
	invalidateProducts(ctx, s.cache, reviewed...)
	return nil
}
