package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"opticart/internal/db"
	"opticart/internal/logging"
	"opticart/internal/model"
	"opticart/internal/repository"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	gdb, err := db.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.New(gdb)
}

func TestLoadCatalogue(t *testing.T) {
	ctx := context.Background()

	bundled, err := loadCatalogue(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, bundled)

	file := filepath.Join(t.TempDir(), "catalogue.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"name":"Aviator","price":"10.00"}]`), 0o600))
	fromFile, err := loadCatalogue(ctx, file)
	require.NoError(t, err)
	require.Len(t, fromFile, 1)
	assert.Equal(t, "Aviator", fromFile[0].Name)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalogue.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"Round","price":"5"},{"name":"Cat Eye","price":"7"}]`))
	}))
	defer srv.Close()

	fromURL, err := loadCatalogue(ctx, srv.URL+"/catalogue.json")
	require.NoError(t, err)
	assert.Len(t, fromURL, 2)

	_, err = loadCatalogue(ctx, srv.URL+"/missing.json")
	assert.Error(t, err)
}

func TestSeedProducts_Upserts(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	items := []seedProduct{
		{Name: "Aviator", Price: "99.00", StockQuantity: 5, Category: "sunglasses"},
		{Name: "Round", Price: "49.50", StockQuantity: 3},
		{Name: "", Price: "1.00"},
		{Name: "Broken", Price: "free"},
		{Name: "Negative", Price: "-1"},
	}
	created, updated, err := seedProducts(ctx, repos.Products, items, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	items[0].Price = "89.00"
	items[0].StockQuantity = 8
	created, updated, err = seedProducts(ctx, repos.Products, items[:1], logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)

	aviator, err := repos.Products.FindByName(ctx, "Aviator")
	require.NoError(t, err)
	assert.Equal(t, "89", aviator.Price.String())
	assert.Equal(t, 8, aviator.StockQuantity)

	_, total, err := repos.Products.List(ctx, "", repository.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestEnsureAdmin(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := ensureAdmin(ctx, repos.Users, "root@x.com", "", "", now)
	assert.Error(t, err)

	admin, created, err := ensureAdmin(ctx, repos.Users, " Root@X.com ", "root", "s3cret", now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "root@x.com", admin.Email)
	require.NotNil(t, admin.EmailVerifiedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret")))

	_, _, err = ensureAdmin(ctx, repos.Users, "other@x.com", "root", "pw", now)
	assert.Error(t, err, "username taken")

	plain := &model.User{Email: "bob@x.com", Username: "bob", PasswordHash: "hash"}
	require.NoError(t, repos.Users.Create(ctx, plain))
	promoted, created, err := ensureAdmin(ctx, repos.Users, "bob@x.com", "", "", now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, plain.ID, promoted.ID)

	reloaded, err := repos.Users.FindByID(ctx, plain.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin)
	assert.Equal(t, "hash", reloaded.PasswordHash)
}

func TestPrune(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	user := &model.User{Email: "a@x.com", Username: "a", PasswordHash: "hash"}
	require.NoError(t, repos.Users.Create(ctx, user))
	require.NoError(t, repos.OTPs.Create(ctx, &model.OTP{UserID: user.ID, Purpose: model.OTPPurposeLogin, Code: "111111", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repos.OTPs.Create(ctx, &model.OTP{UserID: user.ID, Purpose: model.OTPPurposeLogin, Code: "222222", ExpiresAt: now.Add(time.Hour)}))
	_, err := repos.Blacklist.Add(ctx, &model.BlacklistedToken{JTI: "old", UserID: user.ID, ExpiresAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = repos.Blacklist.Add(ctx, &model.BlacklistedToken{JTI: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	otps, tokens, err := prune(ctx, repos, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, otps)
	assert.EqualValues(t, 1, tokens)

	live, err := repos.OTPs.FindActive(ctx, user.ID, model.OTPPurposeLogin, "222222")
	require.NoError(t, err)
	assert.Equal(t, "222222", live.Code)
	exists, err := repos.Blacklist.Exists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, exists)
}
