package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/service"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/response"
)

// SuggestionHandler handles slot suggestion and scoring endpoints.
type SuggestionHandler struct {
	service *service.SuggestionService
}

// NewSuggestionHandler constructs a suggestion handler.
func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: svc}
}

// Suggest godoc
// @Summary Rank candidate slots for subjects
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.SuggestionRequest false "Suggestion filters"
// @Success 200 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	var req dto.SuggestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	suggestions, err := h.service.Suggest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// ScoreSlot godoc
// @Summary Score a single subject/slot pairing
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.ScoreSlotRequest true "Pairing to score"
// @Param timetableId query string false "Timetable providing occupancy context"
// @Success 200 {object} response.Envelope
// @Router /suggestions/score [post]
func (h *SuggestionHandler) ScoreSlot(c *gin.Context) {
	var req dto.ScoreSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ScoreSlot(c.Request.Context(), c.Query("timetableId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
