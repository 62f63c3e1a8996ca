package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticart/internal/cache"
	"opticart/internal/db"
	"opticart/internal/model"
	"opticart/internal/repository"
)

var testUser = &model.User{ID: 7, Email: "a@x.com", IsAdmin: true}

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("secret", 5*time.Minute, 24*time.Hour)

	token, err := svc.GenerateAccessToken(testUser)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_TokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("secret", 5*time.Minute, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.Refresh)
	assert.Error(t, err)
	_, err = svc.ValidateRefreshToken(pair.Access)
	assert.Error(t, err)

	_, err = svc.ValidateRefreshToken(pair.Refresh)
	assert.NoError(t, err)
}

func TestJWTService_RefreshTokenExpiry(t *testing.T) {
	svc := NewJWTService("secret", 5*time.Minute, 24*time.Hour)
	issued := time.Now().Add(-25 * time.Hour)
	svc.now = func() time.Time { return issued }

	_, token, expiresAt, err := svc.GenerateRefreshToken(testUser)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(24*time.Hour), expiresAt)

	_, err = svc.ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("one", time.Minute, time.Hour).GenerateAccessToken(testUser)
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Minute, time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: 1, TokenType: TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Minute, time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsAdmin(&model.User{}))
	assert.True(t, IsAdmin(&model.User{IsAdmin: true}))
}

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis, repository.TokenBlacklistRepository) {
	t.Helper()
	gdb, err := db.NewTestDB()
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	repo := repository.NewTokenBlacklistRepository(gdb)
	return NewTokenStore(repo, c), mr, repo
}

func TestTokenStore_Blacklist(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()
	claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	ok, err := store.IsRefreshTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	revoked, err := store.BlacklistRefreshToken(ctx, claims)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(blacklistKeyPrefix+"jti-1"))

	revoked, err = store.BlacklistRefreshToken(ctx, claims)
	require.NoError(t, err)
	assert.False(t, revoked, "second revocation reports the token was already gone")

	ok, err = store.IsRefreshTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenStore_SurvivesCacheLoss(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	_, err := store.BlacklistRefreshToken(ctx, claims)
	require.NoError(t, err)

	mr.FlushAll()
	mr.Close()

	ok, err := store.IsRefreshTokenBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenStore_NilCache(t *testing.T) {
	gdb, err := db.NewTestDB()
	require.NoError(t, err)
	store := NewTokenStore(repository.NewTokenBlacklistRepository(gdb), nil)
	ctx := context.Background()

	_, err = store.BlacklistRefreshToken(ctx, &Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "jti-3"}})
	require.NoError(t, err)
	ok, err := store.IsRefreshTokenBlacklisted(ctx, "jti-3")
	require.NoError(t, err)
	assert.True(t, ok)
}
