package router

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"opticart/internal/auth"
	"opticart/internal/handler"
	"opticart/internal/logging"
	"opticart/internal/metrics"
	"opticart/internal/service"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Products *handler.ProductHandler
	Reviews  *handler.ReviewHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Health   *handler.HealthHandler
}

// Deps are the collaborators of the router's middleware.
type Deps struct {
	Log         *slog.Logger
	Metrics     *metrics.Metrics
	JWT         *auth.JWTService
	UserService service.UserService
	// MediaURL and MediaRoot serve locally stored images. Empty MediaRoot disables it.
	MediaURL  string
	MediaRoot string
}

// Register wires routes and middleware.
func Register(e *echo.Echo, h Handlers, deps Deps) {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(deps.Log)

	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/swagger") || (deps.MediaRoot != "" && strings.HasPrefix(path, deps.MediaURL+"/"))
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(deps.Log))
	e.Use(deps.Metrics.Middleware())
	e.Use(middleware.Recover())

	e.GET("/healthz/", h.Health.Health)
	if deps.Metrics != nil {
		e.GET("/metrics/", echo.WrapHandler(deps.Metrics.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if deps.MediaRoot != "" && strings.HasPrefix(deps.MediaURL, "/") {
		e.Static(deps.MediaURL, deps.MediaRoot)
	}

	authenticated := []echo.MiddlewareFunc{JWT(deps.JWT), LoadUser(deps.UserService)}
	admin := []echo.MiddlewareFunc{JWT(deps.JWT), LoadUser(deps.UserService), RequireAdmin}

	api := e.Group("/api")

	user := api.Group("/user")
	user.POST("/register/", h.Auth.Register)
	user.POST("/verify-otp/", h.Auth.VerifyRegistration)
	user.POST("/resend-otp/", h.Auth.ResendOTP)
	user.POST("/login/", h.Auth.Login)
	user.POST("/verify-login-otp/", h.Auth.VerifyLogin)
	user.POST("/token/refresh/", h.Auth.Refresh)
	user.POST("/logout/", h.Auth.Logout)
	user.GET("/profile/", h.Users.Profile, authenticated...)
	user.POST("/reset-password/", h.Auth.RequestPasswordReset, authenticated...)
	user.POST("/verify-reset-password/", h.Auth.ConfirmPasswordReset, authenticated...)
	user.GET("/users/", h.Users.ListUsers, admin...)
	user.DELETE("/delete-user/", h.Users.DeleteUser, admin...)
	user.PUT("/update-user/", h.Users.UpdateUser, admin...)
	user.PATCH("/update-user/", h.Users.UpdateUser, admin...)

	products := api.Group("/products")
	products.GET("/", h.Products.ListProducts)
	products.GET("/top/", h.Products.TopProducts)
	products.GET("/:id/", h.Products.GetProduct)
	products.POST("/", h.Products.CreateProduct, admin...)
	products.PUT("/:id/", h.Products.UpdateProduct, admin...)
	products.PATCH("/:id/", h.Products.UpdateProduct, admin...)
	products.DELETE("/:id/", h.Products.DeleteProduct, admin...)
	products.POST("/:id/images/", h.Products.UploadImage, admin...)
	products.GET("/:id/reviews/", h.Products.ListReviews)
	products.POST("/:id/reviews/", h.Products.CreateReview, authenticated...)

	reviews := api.Group("/review/reviews", authenticated...)
	reviews.GET("/:id/", h.Reviews.GetReview)
	reviews.PUT("/:id/", h.Reviews.UpdateReview)
	reviews.PATCH("/:id/", h.Reviews.UpdateReview)
	reviews.DELETE("/:id/", h.Reviews.DeleteReview)

	cart := api.Group("/cart", authenticated...)
	cart.GET("/", h.Cart.GetCart)
	cart.POST("/", h.Cart.AddItem)
	cart.GET("/items/:id/", h.Cart.GetItem)
	cart.PUT("/items/:id/", h.Cart.UpdateItem)
	cart.PATCH("/items/:id/", h.Cart.UpdateItem)
	cart.DELETE("/items/:id/", h.Cart.DeleteItem)

	orders := api.Group("/orders", authenticated...)
	orders.GET("/", h.Orders.ListOrders)
	orders.POST("/", h.Orders.CreateOrder)
	orders.GET("/:id/", h.Orders.GetOrder)
	orders.PUT("/:id/", h.Orders.UpdateOrder)
	orders.PATCH("/:id/", h.Orders.UpdateOrder)
	orders.DELETE("/:id/", h.Orders.DeleteOrder)
}
