package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"opticart/internal/errors"
	"opticart/internal/model"
	"opticart/internal/pagination"
	"opticart/internal/repository"
)

const currentUserKey = "current_user"

// Envelope wraps every successful response body.
type Envelope struct {
	Status string      `json:"status" example:"success"`
	Data   interface{} `json:"data"`
}

// ErrorEnvelope wraps every error response body.
type ErrorEnvelope struct {
	Status string                `json:"status" example:"error"`
	Errors errors.ErrorResponse `json:"errors"`
}

// MessageResponse is the data of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Status: "success", Data: data})
}

func respondMessage(c echo.Context, status int, message string) error {
	return respond(c, status, MessageResponse{Message: message})
}

// RespondError renders err as an error envelope.
func RespondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, ErrorEnvelope{Status: "error", Errors: httpErr.ToErrorResponse()})
}

// bind decodes the body into req and runs the struct validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_BODY")
	}
	return c.Validate(req)
}

// SetCurrentUser stores the authenticated user on the request context.
func SetCurrentUser(c echo.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}

func currentUser(c echo.Context) (*model.User, error) {
	user := CurrentUser(c)
	if user == nil {
		return nil, errors.ErrInvalidToken
	}
	return user, nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}

// pageParams reads page and page_size from the query string.
func pageParams(c echo.Context, defaultSize, maxSize int) (pagination.Params, repository.ListOptions, error) {
	p, err := pagination.Parse(c.QueryParams(), defaultSize, maxSize)
	if err != nil {
		return pagination.Params{}, repository.ListOptions{}, err
	}
	return p, repository.ListOptions{Offset: p.Offset(), Limit: p.Limit()}, nil
}

// requestURL rebuilds the absolute URL of the request for page links.
func requestURL(c echo.Context) *url.URL {
	req := c.Request()
	u := *req.URL
	u.Scheme = c.Scheme()
	u.Host = req.Host
	return &u
}
