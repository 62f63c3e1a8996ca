package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/repository"
)

func TestUserService_GetUserCachesResult(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, uint(7)).Return(&model.User{ID: 7, Email: "g@x.com", Username: "g"}, nil).Once()

	svc := NewUserService(users, fakeTransactor{}, newTestCache(t))

	for i := 0; i < 3; i++ {
		user, err := svc.GetUser(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "g@x.com", user.Email)
	}
	users.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestUserService_GetUserNotFound(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewUserService(repos.Users, repos, nil)

	_, err := svc.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestUserService_AdminOnly(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, fakeTransactor{}, nil)
	ctx := context.Background()
	regular := &model.User{ID: 1}

	_, _, err := svc.ListUsers(ctx, regular, repository.ListOptions{})
	assert.ErrorIs(t, err, errors.ErrForbidden)
	_, err = svc.UpdateUser(ctx, regular, UpdateUserInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, errors.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, regular, "a@x.com"), errors.ErrForbidden)
	users.AssertExpectations(t)
}

func TestUserService_UpdateUser(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewUserService(repos.Users, repos, newTestCache(t))
	admin := seedUser(t, repos, "admin", true)
	alice := seedUser(t, repos, "alice", false)
	seedUser(t, repos, "bob", false)

	// prime the cache so the update has something to invalidate
	_, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, admin, UpdateUserInput{Email: "alice@x.com", Username: strPtr("bob")})
	assert.ErrorIs(t, err, errors.ErrUsernameTaken)
	_, err = svc.UpdateUser(ctx, admin, UpdateUserInput{Email: "ghost@x.com"})
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	promote := true
	updated, err := svc.UpdateUser(ctx, admin, UpdateUserInput{
		Email: "alice@X.com", Username: strPtr("alice"), FirstName: strPtr(" Alice "), IsAdmin: &promote,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.True(t, updated.IsAdmin)

	got, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "Alice", got.FirstName)
}

func TestUserService_DeleteUserRefreshesRatings(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	svc := NewUserService(repos.Users, repos, nil)
	reviews := NewReviewService(repos.Reviews, repos.Products, repos, nil)
	admin := seedUser(t, repos, "admin", true)
	alice := seedUser(t, repos, "alice", false)
	bob := seedUser(t, repos, "bob", false)
	p := seedProduct(t, repos, "Aviator", "120.00", 5)

	_, err := reviews.Create(ctx, alice, p.ID, ReviewInput{Rating: 1})
	require.NoError(t, err)
	_, err = reviews.Create(ctx, bob, p.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, admin, "alice@x.com"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, "alice@x.com"), errors.ErrUserNotFound)

	exists, err := repos.Users.ExistsByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	product, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.NumReviews)
	assert.InDelta(t, 5.0, product.Rating, 0.001)
}
