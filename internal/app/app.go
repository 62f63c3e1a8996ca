// Package app assembles repositories, services, handlers and routes into an
// echo server.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"opticart/internal/auth"
	"opticart/internal/cache"
	"opticart/internal/config"
	"opticart/internal/handler"
	"opticart/internal/logging"
	"opticart/internal/metrics"
	"opticart/internal/notify"
	"opticart/internal/repository"
	"opticart/internal/router"
	"opticart/internal/service"
	"opticart/internal/storage"
)

// Options are the already-connected infrastructure the server runs on.
type Options struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    *cache.Client
	Disk     storage.Disk
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Log      *slog.Logger
	// Now overrides the clock used for OTP expiry.
	Now func() time.Time
}

// NewServer builds the echo instance with every route registered.
func NewServer(opts Options) *echo.Echo {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	repos := repository.New(opts.DB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(repos.Blacklist, opts.Cache)

	authService := service.NewAuthService(
		repos.Users, repos.OTPs, repos, jwtService, tokenStore, opts.Notifier,
		service.OTPTTL{
			Registration:  cfg.RegistrationOTPTTL,
			Login:         cfg.LoginOTPTTL,
			PasswordReset: cfg.PasswordResetOTPTTL,
		},
		service.WithClock(opts.Now),
		service.WithCache(opts.Cache),
		service.WithLogger(log),
		service.WithMetrics(opts.Metrics),
	)
	userService := service.NewUserService(repos.Users, repos, opts.Cache)
	productService := service.NewProductService(repos.Products, opts.Disk, opts.Cache, opts.Metrics, log)
	reviewService := service.NewReviewService(repos.Reviews, repos.Products, repos, opts.Cache)
	cartService := service.NewCartService(repos.Carts, repos.Products)
	orderService := service.NewOrderService(repos.Orders, repos, opts.Cache)

	health := handler.NewHealthHandler(
		map[string]handler.Check{"database": func(ctx context.Context) error {
			sqlDB, err := opts.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		map[string]handler.Check{"cache": opts.Cache.Ping},
	)

	deps := router.Deps{
		Log:         log,
		Metrics:     opts.Metrics,
		JWT:         jwtService,
		UserService: userService,
	}
	if local, ok := opts.Disk.(*storage.LocalDisk); ok {
		deps.MediaURL = cfg.Storage.PublicURL
		deps.MediaRoot = local.Root()
	}

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, cfg.AccessTokenTTL, cfg.IsProduction()),
		Users:    handler.NewUserHandler(userService),
		Products: handler.NewProductHandler(productService, reviewService),
		Reviews:  handler.NewReviewHandler(reviewService),
		Cart:     handler.NewCartHandler(cartService),
		Orders:   handler.NewOrderHandler(orderService),
		Health:   health,
	}, deps)
	return e
}
