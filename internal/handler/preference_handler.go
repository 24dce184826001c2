package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/service"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/response"
)

// PreferenceHandler handles user scheduling preference endpoints.
type PreferenceHandler struct {
	service *service.PreferenceService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(svc *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: svc}
}

// Get godoc
// @Summary Get scheduling preferences
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	prefs, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Save godoc
// @Summary Replace scheduling preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.PreferencesRequest true "Preferences payload"
// @Success 200 {object} response.Envelope
// @Router /preferences [put]
func (h *PreferenceHandler) Save(c *gin.Context) {
	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	prefs, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}
