package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"opticart/internal/service"
)

// ReviewHandler serves the caller's own reviews.
type ReviewHandler struct {
	svc service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// GetReview godoc
// @Summary Get one of the caller's reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} Envelope{data=model.Review}
// @Failure 404 {object} ErrorEnvelope
// @Router /review/reviews/{id}/ [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	review, err := h.svc.Get(c.Request().Context(), user, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, review)
}

// UpdateReview godoc
// @Summary Change one of the caller's reviews
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body ReviewRequest true "Review"
// @Success 200 {object} Envelope{data=model.Review}
// @Failure 400 {object} ErrorEnvelope
// @Failure 404 {object} ErrorEnvelope
// @Router /review/reviews/{id}/ [put]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	review, err := h.svc.Update(c.Request().Context(), user, id, service.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete one of the caller's reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} Envelope{data=MessageResponse}
// @Failure 404 {object} ErrorEnvelope
// @Router /review/reviews/{id}/ [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "review deleted")
}
