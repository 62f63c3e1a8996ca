package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"opticart/internal/auth"
	"opticart/internal/cache"
	"opticart/internal/errors"
	"opticart/internal/logging"
	"opticart/internal/metrics"
	"opticart/internal/model"
	"opticart/internal/notify"
	"opticart/internal/repository"
)

const bcryptCost = 10

// OTPTTL holds the lifetime of one-time codes per flow.
type OTPTTL struct {
	Registration  time.Duration
	Login         time.Duration
	PasswordReset time.Duration
}

func (t OTPTTL) For(purpose model.OTPPurpose) time.Duration {
	switch purpose {
	case model.OTPPurposeRegistration:
		return t.Registration
	case model.OTPPurposeLogin:
		return t.Login
	default:
		return t.PasswordReset
	}
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

// AuthService drives the OTP-gated registration, login and password reset
// flows and the refresh-token lifecycle.
type AuthService interface {
	// Register creates the user and sends a registration code. No tokens yet.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	// VerifyRegistration consumes a registration code and issues a token pair.
	VerifyRegistration(ctx context.Context, email, code string) (*auth.TokenPair, error)
	// Login checks the password and sends a login code. No tokens yet.
	Login(ctx context.Context, email, password string) error
	// VerifyLogin consumes a login code and issues a token pair.
	VerifyLogin(ctx context.Context, email, code string) (*auth.TokenPair, error)
	// ResendOTP issues a fresh registration code. Login codes are only issued
	// by Login, after the password has been checked.
	ResendOTP(ctx context.Context, email string, purpose model.OTPPurpose) error
	// RequestPasswordReset sends a reset code to an authenticated user.
	RequestPasswordReset(ctx context.Context, user *model.User) error
	// ConfirmPasswordReset consumes the reset code and replaces the password atomically.
	ConfirmPasswordReset(ctx context.Context, user *model.User, code, newPassword string) error
	// Refresh rotates a refresh token: the old one is blacklisted and a new pair returned.
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	// Logout blacklists the refresh token.
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users    repository.UserRepository
	otps     repository.OTPRepository
	tx       repository.Transactor
	jwt      *auth.JWTService
	tokens   auth.TokenStoreInterface
	notifier notify.Notifier
	ttl      OTPTTL

	cache   *cache.Client
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newCode func() (string, error)
}

// AuthOption customizes the auth service.
type AuthOption func(*authService)

// WithClock sets the clock used for OTP issuance and expiry checks.
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// WithCodeGenerator replaces the OTP generator.
func WithCodeGenerator(gen func() (string, error)) AuthOption {
	return func(s *authService) { s.newCode = gen }
}

// WithCache sets the cache shared with UserService so profile entries can be
// dropped when verification changes the user.
func WithCache(c *cache.Client) AuthOption {
	return func(s *authService) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) AuthOption {
	return func(s *authService) { s.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(s *authService) { s.metrics = m }
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	tx repository.Transactor,
	jwtService *auth.JWTService,
	tokens auth.TokenStoreInterface,
	notifier notify.Notifier,
	ttl OTPTTL,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		users:    users,
		otps:     otps,
		tx:       tx,
		jwt:      jwtService,
		tokens:   tokens,
		notifier: notifier,
		ttl:      ttl,
		log:      logging.Discard(),
		now:      time.Now,
		newCode:  auth.GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if in.Password != in.Password2 {
		return nil, errors.ErrPasswordMismatch
	}
	if err := s.checkAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
	}

	// the user row only survives if the code was delivered
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return s.issueOTP(ctx, tx.OTPs, user, model.OTPPurposeRegistration)
	})
	if repository.IsDuplicate(err) {
		// a concurrent registration took the email or username after the check
		if taken := s.checkAvailable(ctx, email, username); taken != nil {
			return nil, taken
		}
		return nil, errors.ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// checkAvailable returns ErrEmailTaken or ErrUsernameTaken when either is registered.
func (s *authService) checkAvailable(ctx context.Context, email, username string) error {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return errors.ErrEmailTaken
	}
	taken, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return errors.ErrUsernameTaken
	}
	return nil
}

func (s *authService) VerifyRegistration(ctx context.Context, email, code string) (*auth.TokenPair, error) {
	return s.verify(ctx, email, code, model.OTPPurposeRegistration)
}

func (s *authService) Login(ctx context.Context, email, password string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrInvalidCredentials
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return errors.ErrInvalidCredentials
	}
	return s.issueInTx(ctx, user, model.OTPPurposeLogin)
}

func (s *authService) VerifyLogin(ctx context.Context, email, code string) (*auth.TokenPair, error) {
	return s.verify(ctx, email, code, model.OTPPurposeLogin)
}

func (s *authService) ResendOTP(ctx context.Context, email string, purpose model.OTPPurpose) error {
	if purpose != model.OTPPurposeRegistration {
		return errors.ErrUnsupportedOTPPurpose
	}
	user, err := s.findUser(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.EmailVerifiedAt != nil {
		return errors.NewValidationError("email", "email is already verified")
	}
	return s.issueInTx(ctx, user, purpose)
}

func (s *authService) RequestPasswordReset(ctx context.Context, user *model.User) error {
	return s.issueInTx(ctx, user, model.OTPPurposePasswordReset)
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, user *model.User, code, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := s.consume(ctx, tx.OTPs, user.ID, model.OTPPurposePasswordReset, code); err != nil {
			return err
		}
		if err := tx.Users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrUserNotFound
			}
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// only one caller can win the blacklist insert for a given jti
	revoked, err := s.tokens.BlacklistRefreshToken(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, errors.ErrInvalidRefreshToken
	}

	pair, err := s.jwt.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	s.metrics.TokensIssued("refresh")
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return err
	}
	revoked, err := s.tokens.BlacklistRefreshToken(ctx, claims)
	if err != nil {
		return err
	}
	if !revoked {
		return errors.ErrInvalidRefreshToken
	}
	s.log.InfoContext(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

func (s *authService) validRefreshClaims(ctx context.Context, refreshToken string) (*auth.Claims, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}
	blacklisted, err := s.tokens.IsRefreshTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, errors.ErrInvalidRefreshToken
	}
	return claims, nil
}

// verify runs the shared OTP-to-tokens step of registration and login.
func (s *authService) verify(ctx context.Context, email, code string, purpose model.OTPPurpose) (*auth.TokenPair, error) {
	user, err := s.findUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	verifying := user.EmailVerifiedAt == nil
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := s.consume(ctx, tx.OTPs, user.ID, purpose, code); err != nil {
			return err
		}
		if verifying {
			now := s.now()
			user.EmailVerifiedAt = &now
			if err := tx.Users.Update(ctx, user); err != nil {
				return fmt.Errorf("mark email verified: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if verifying {
		_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	}

	pair, err := s.jwt.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	s.metrics.TokensIssued(string(purpose))
	s.log.InfoContext(ctx, "otp verified", "user_id", user.ID, "purpose", string(purpose))
	return pair, nil
}

// consume validates and burns a code. Expiry is judged against the service clock.
func (s *authService) consume(ctx context.Context, otps repository.OTPRepository, userID uint, purpose model.OTPPurpose, code string) error {
	otp, err := otps.FindActive(ctx, userID, purpose, code)
	if err != nil {
		if repository.IsNotFound(err) {
			s.metrics.OTPVerified(string(purpose), "invalid")
			return errors.ErrInvalidOTP
		}
		return fmt.Errorf("find otp: %w", err)
	}
	if otp.Expired(s.now()) {
		s.metrics.OTPVerified(string(purpose), "expired")
		return errors.ErrExpiredOTP
	}

	ok, err := otps.Consume(ctx, otp.ID)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		s.metrics.OTPVerified(string(purpose), "invalid")
		return errors.ErrInvalidOTP
	}
	s.metrics.OTPVerified(string(purpose), "ok")
	return nil
}

func (s *authService) issueInTx(ctx context.Context, user *model.User, purpose model.OTPPurpose) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		return s.issueOTP(ctx, tx.OTPs, user, purpose)
	})
}

// issueOTP retires outstanding codes of the same purpose, stores a new one and
// sends it. A delivery failure is returned so the caller's transaction rolls back.
func (s *authService) issueOTP(ctx context.Context, otps repository.OTPRepository, user *model.User, purpose model.OTPPurpose) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}

	if err := otps.ConsumeOutstanding(ctx, user.ID, purpose); err != nil {
		return fmt.Errorf("retire otps: %w", err)
	}
	otp := &model.OTP{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl.For(purpose)),
	}
	if err := otps.Create(ctx, otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, user.Email, code, purpose); err != nil {
		s.log.ErrorContext(ctx, "otp delivery failed", "user_id", user.ID, "purpose", string(purpose), "err", err)
		return fmt.Errorf("deliver otp: %w", err)
	}
	s.metrics.OTPIssued(string(purpose))
	return nil
}

func (s *authService) findUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// normalizeEmail trims the address and lowercases its domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
