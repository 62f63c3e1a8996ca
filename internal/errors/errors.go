package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUsernameTaken is returned when registering with a username that already exists.
	ErrUsernameTaken = errors.New("user with this username already exists")
	// ErrPasswordMismatch is returned when password and password2 differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOTP is returned when no unconsumed code matches.
	ErrInvalidOTP = errors.New("invalid or already used otp code")
	// ErrExpiredOTP is returned when the matching code is past its expiry.
	ErrExpiredOTP = errors.New("otp code has expired")
	// ErrUnsupportedOTPPurpose is returned when a code is requested for an unknown flow.
	ErrUnsupportedOTPPurpose = errors.New("unsupported otp purpose")

	// ErrInvalidToken is returned when an access token is missing, malformed or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or blacklisted.
	ErrInvalidRefreshToken = errors.New("invalid, expired or revoked refresh token")
	// ErrForbidden is returned when a non-admin reaches an admin-only operation.
	ErrForbidden = errors.New("you do not have permission to perform this action")

	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartItemNotFound is returned when a cart item is missing or not owned by the caller.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound is returned when an order is missing or not visible to the caller.
	ErrOrderNotFound = errors.New("order not found")
	// ErrReviewNotFound is returned when a review is missing or not owned by the caller.
	ErrReviewNotFound = errors.New("review not found")
	// ErrAlreadyReviewed is returned on a second review of the same product by one user.
	ErrAlreadyReviewed = errors.New("you have already reviewed this product")
	// ErrInsufficientStock is returned when an order asks for more than is in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyOrder is returned when an order has no items and the cart is empty.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrInvalidImage is returned when an uploaded product image is rejected.
	ErrInvalidImage = errors.New("invalid image upload")
	// ErrInvalidPage is returned when a page number is past the last page.
	ErrInvalidPage = errors.New("invalid page")
)

// ErrorResponse represents a standardized error payload.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN"},
	{ErrUsernameTaken, http.StatusBadRequest, "USERNAME_TAKEN"},
	{ErrPasswordMismatch, http.StatusBadRequest, "PASSWORD_MISMATCH"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrInvalidOTP, http.StatusBadRequest, "INVALID_OTP"},
	{ErrExpiredOTP, http.StatusBadRequest, "EXPIRED_OTP"},
	{ErrUnsupportedOTPPurpose, http.StatusBadRequest, "UNSUPPORTED_OTP_PURPOSE"},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{ErrCartItemNotFound, http.StatusNotFound, "CART_ITEM_NOT_FOUND"},
	{ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{ErrReviewNotFound, http.StatusNotFound, "REVIEW_NOT_FOUND"},
	{ErrAlreadyReviewed, http.StatusBadRequest, "ALREADY_REVIEWED"},
	{ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{ErrEmptyOrder, http.StatusBadRequest, "EMPTY_ORDER"},
	{ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
	{ErrInvalidPage, http.StatusNotFound, "INVALID_PAGE"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are unwrapped.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    vErr.Error(),
			Code:       "VALIDATION_ERROR",
			Fields:     vErr.Fields,
		}
	}

	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
