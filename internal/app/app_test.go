package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"opticart/internal/auth"
	"opticart/internal/config"
	"opticart/internal/db"
	"opticart/internal/metrics"
	"opticart/internal/model"
	"opticart/internal/repository"
	"opticart/internal/storage"
)

type sentCode struct {
	to      string
	code    string
	purpose model.OTPPurpose
}

type outbox struct {
	mu   sync.Mutex
	sent []sentCode
}

func (o *outbox) SendOTP(_ context.Context, to, code string, purpose model.OTPPurpose) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, sentCode{to: to, code: code, purpose: purpose})
	return nil
}

func (o *outbox) last(t *testing.T) sentCode {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	return o.sent[len(o.sent)-1]
}

type testServer struct {
	e      *echo.Echo
	repos  *repository.Repositories
	outbox *outbox
	jwt    *auth.JWTService
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		JWTSecret:           "test-secret",
		AccessTokenTTL:      5 * time.Minute,
		RefreshTokenTTL:     24 * time.Hour,
		RegistrationOTPTTL:  5 * time.Minute,
		LoginOTPTTL:         10 * time.Minute,
		PasswordResetOTPTTL: 10 * time.Minute,
		Storage:             config.StorageConfig{Driver: "local", PublicURL: "/media"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := db.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	disk, err := storage.NewLocalDisk(t.TempDir(), "/media")
	require.NoError(t, err)

	cfg := testConfig()
	box := &outbox{}
	e := NewServer(Options{
		Config:   cfg,
		DB:       gdb,
		Disk:     disk,
		Notifier: box,
		Metrics:  metrics.New(),
	})
	return &testServer{
		e:      e,
		repos:  repository.New(gdb),
		outbox: box,
		jwt:    auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
	}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Errors struct {
		Error  string            `json:"error"`
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) seedUser(t *testing.T, name string, admin bool) (*model.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Email: name + "@x.com", Username: name, PasswordHash: string(hash), IsAdmin: admin}
	require.NoError(t, s.repos.Users.Create(context.Background(), user))
	token, err := s.jwt.GenerateAccessToken(user)
	require.NoError(t, err)
	return user, token
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dst))
}

func TestRegisterVerifyFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec, env := s.do(t, http.MethodPost, "/api/user/register/", map[string]string{
		"email": "a@x.com", "username": "a", "password": "p1", "password2": "p1",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "success", env.Status)

	var registered struct {
		User model.User `json:"user"`
	}
	decode(t, env.Data, &registered)
	sent := s.outbox.last(t)
	assert.Equal(t, "a@x.com", sent.to)
	assert.Len(t, sent.code, 6)

	otp, err := s.repos.OTPs.FindActive(ctx, registered.User.ID, model.OTPPurposeRegistration, sent.code)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), otp.ExpiresAt, 30*time.Second)

	body := map[string]string{"email": "a@x.com", "otp_code": sent.code}
	rec, env = s.do(t, http.MethodPost, "/api/user/verify-otp/", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair auth.TokenPair
	decode(t, env.Data, &pair)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	rec, env = s.do(t, http.MethodPost, "/api/user/verify-otp/", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "INVALID_OTP", env.Errors.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/user/profile/", nil, pair.Access)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": "a", "password": "p1", "password2": "p1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Errors.Code)
	assert.Contains(t, env.Errors.Fields, "email")

	rec, env = s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"email": "a@x.com", "username": "a", "password": "p1", "password2": "p2",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PASSWORD_MISMATCH", env.Errors.Code)
	assert.Empty(t, s.outbox.sent)
}

func TestLoginFlowAndRefresh(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "bob", false)

	rec, env := s.do(t, http.MethodPost, "/api/user/login/", map[string]string{"email": "bob@x.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Errors.Code)

	rec, env = s.do(t, http.MethodPost, "/api/user/login/", map[string]string{"email": "bob@x.com", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ack struct {
		Message string `json:"message"`
	}
	decode(t, env.Data, &ack)
	assert.NotEmpty(t, ack.Message)

	sent := s.outbox.last(t)
	assert.Equal(t, model.OTPPurposeLogin, sent.purpose)
	rec, env = s.do(t, http.MethodPost, "/api/user/verify-login-otp/", map[string]string{"email": "bob@x.com", "otp_code": sent.code}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair auth.TokenPair
	decode(t, env.Data, &pair)

	rec, env = s.do(t, http.MethodPost, "/api/user/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated auth.TokenPair
	decode(t, env.Data, &rotated)

	rec, env = s.do(t, http.MethodPost, "/api/user/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", env.Errors.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/user/logout/", map[string]string{"refresh": rotated.Refresh}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/user/token/refresh/", map[string]string{"refresh": rotated.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessTokenSources(t *testing.T) {
	s := newTestServer(t)
	user, access := s.seedUser(t, "carol", false)

	rec, env := s.do(t, http.MethodGet, "/api/user/profile/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", env.Errors.Code)

	_, refresh, _, err := s.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/user/profile/", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh tokens are not access tokens")

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	rec, env = s.serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile model.User
	decode(t, env.Data, &profile)
	assert.Equal(t, "carol@x.com", profile.Email)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, access := s.seedUser(t, "dave", false)

	rec, _ := s.do(t, http.MethodPost, "/api/user/reset-password/", nil, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := s.outbox.last(t).code

	rec, env := s.do(t, http.MethodPost, "/api/user/verify-reset-password/", map[string]string{"otp_code": "000000", "new_password": "n1"}, access)
	if code != "000000" {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_OTP", env.Errors.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/user/verify-reset-password/", map[string]string{"otp_code": code, "new_password": "n1"}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodPost, "/api/user/login/", map[string]string{"email": "dave@x.com", "password": "n1"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.seedUser(t, "erin", false)
	_, adminToken := s.seedUser(t, "root", true)

	rec, env := s.do(t, http.MethodGet, "/api/user/users/", nil, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Errors.Code)

	rec, env = s.do(t, http.MethodGet, "/api/user/users/", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count   int64        `json:"count"`
		Results []model.User `json:"results"`
	}
	decode(t, env.Data, &page)
	assert.Equal(t, int64(2), page.Count)

	rec, _ = s.do(t, http.MethodPost, "/api/products/", map[string]interface{}{"name": "Aviator", "price": "99.50"}, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodPatch, "/api/user/update-user/", map[string]interface{}{"email": "erin@x.com", "first_name": "Erin"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.User
	decode(t, env.Data, &updated)
	assert.Equal(t, "Erin", updated.FirstName)

	rec, _ = s.do(t, http.MethodDelete, "/api/user/delete-user/", map[string]string{"email": "erin@x.com"}, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/user/profile/", nil, userToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogPaginationAndShopping(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "root", true)
	_, token := s.seedUser(t, "frank", false)

	var ids []uint
	for _, name := range []string{"Aviator", "Round", "Cat Eye", "Wayfarer", "Sport"} {
		rec, env := s.do(t, http.MethodPost, "/api/products/", map[string]interface{}{
			"name": name, "price": "25.00", "stock_quantity": 10, "category": "sunglasses",
		}, adminToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p model.Product
		decode(t, env.Data, &p)
		ids = append(ids, p.ID)
	}

	rec, env := s.do(t, http.MethodGet, "/api/products/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Count    int64           `json:"count"`
		Next     *string         `json:"next"`
		Previous *string         `json:"previous"`
		Results  []model.Product `json:"results"`
	}
	decode(t, env.Data, &page)
	assert.Equal(t, int64(5), page.Count)
	assert.Len(t, page.Results, 4)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)

	rec, env = s.do(t, http.MethodGet, "/api/products/?page=9", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INVALID_PAGE", env.Errors.Code)

	rec, env = s.do(t, http.MethodGet, "/api/products/?keyword=round", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, env.Data, &page)
	assert.Equal(t, int64(1), page.Count)

	rec, _ = s.do(t, http.MethodPost, "/api/cart/", map[string]interface{}{"product": ids[0], "quantity": 2}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPost, "/api/orders/", map[string]interface{}{"shipping_address": "1 Main St"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order model.Order
	decode(t, env.Data, &order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "50", order.TotalAmount.String())

	rec, env = s.do(t, http.MethodPost, "/api/orders/", map[string]interface{}{
		"shipping_address": "1 Main St",
		"items":            []map[string]interface{}{{"product": ids[1], "quantity": 11}},
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Errors.Code)

	rec, env = s.do(t, http.MethodPost, "/api/products/"+itoa(ids[0])+"/reviews/", map[string]interface{}{"rating": 5, "comment": "sharp"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, env = s.do(t, http.MethodPost, "/api/products/"+itoa(ids[0])+"/reviews/", map[string]interface{}{"rating": 4}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_REVIEWED", env.Errors.Code)

	rec, env = s.do(t, http.MethodGet, "/api/products/top/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var top []model.Product
	decode(t, env.Data, &top)
	require.Len(t, top, 1)
	assert.Equal(t, ids[0], top[0].ID)
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "root", true)
	rec, env := s.do(t, http.MethodPost, "/api/products/", map[string]interface{}{"name": "Aviator", "price": "10"}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p model.Product
	decode(t, env.Data, &p)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "front.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.WriteField("alt_text", "front"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+itoa(p.ID)+"/images/", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	rec, env = s.serve(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var img model.ProductImage
	decode(t, env.Data, &img)
	assert.True(t, strings.HasPrefix(img.ImageURL, "/media/products/"))

	rec, _ = s.do(t, http.MethodGet, img.ImageURL, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestInfraEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	decode(t, env.Data, &health)
	assert.Equal(t, "ok", health["database"])
	assert.Equal(t, "unavailable", health["cache"])

	s.do(t, http.MethodGet, "/api/products/", nil, "")
	rec, _ = s.do(t, http.MethodGet, "/metrics/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `opticart_http_requests_total{method="GET",path="/api/products/",status="200"}`)

	rec, env = s.do(t, http.MethodGet, "/api/nowhere/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestResendOTPOnlyForRegistration(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "gina", false)

	rec, env := s.do(t, http.MethodPost, "/api/user/resend-otp/", map[string]string{"email": "gina@x.com", "purpose": "login"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_OTP_PURPOSE", env.Errors.Code)
	assert.Empty(t, s.outbox.sent)

	rec, _ = s.do(t, http.MethodPost, "/api/user/register/", map[string]string{
		"email": "hal@x.com", "username": "hal", "password": "p1", "password2": "p1",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	first := s.outbox.last(t).code

	rec, _ = s.do(t, http.MethodPost, "/api/user/resend-otp/", map[string]string{"email": "hal@x.com", "purpose": "registration"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resent := s.outbox.last(t)
	assert.Equal(t, model.OTPPurposeRegistration, resent.purpose)

	if resent.code != first {
		rec, env = s.do(t, http.MethodPost, "/api/user/verify-otp/", map[string]string{"email": "hal@x.com", "otp_code": first}, "")
		assert.Equal(t, "INVALID_OTP", env.Errors.Code)
	}
	rec, _ = s.do(t, http.MethodPost, "/api/user/verify-otp/", map[string]string{"email": "hal@x.com", "otp_code": resent.code}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
