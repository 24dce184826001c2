package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/service"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/response"
)

// FeedbackHandler handles preference feedback endpoints.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler constructs a feedback handler.
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Record godoc
// @Summary Record feedback for a subject/slot pairing
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body dto.FeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Record(c *gin.Context) {
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	feedback, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// ListBySubject godoc
// @Summary List feedback for a subject
// @Tags Feedback
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /feedback/{subjectId} [get]
func (h *FeedbackHandler) ListBySubject(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	feedback, err := h.service.ListBySubject(c.Request.Context(), c.Param("subjectId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}
