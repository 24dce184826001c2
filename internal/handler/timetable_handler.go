package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	"github.com/tmopt/timetable-api/internal/service"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/response"
)

// TimetableHandler handles timetable lifecycle, entry and optimization endpoints.
type TimetableHandler struct {
	timetables  *service.TimetableService
	optimizer   *service.OptimizationService
	exports     *service.ExportService
	suggestions *service.SuggestionService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetables *service.TimetableService, optimizer *service.OptimizationService, exports *service.ExportService, suggestions *service.SuggestionService) *TimetableHandler {
	return &TimetableHandler{
		timetables:  timetables,
		optimizer:   optimizer,
		exports:     exports,
		suggestions: suggestions,
	}
}

// List godoc
// @Summary List timetables
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	timetables, err := h.timetables.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, nil)
}

// Get godoc
// @Summary Get timetable by id
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.timetables.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// GetActive godoc
// @Summary Get the active timetable
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/active [get]
func (h *TimetableHandler) GetActive(c *gin.Context) {
	timetable, err := h.timetables.GetActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Create godoc
// @Summary Create timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimetableRequest true "Timetable payload"
// @Success 201 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	timetable, err := h.timetables.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Update godoc
// @Summary Update timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.CreateTimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	timetable, err := h.timetables.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Transition godoc
// @Summary Transition timetable lifecycle status
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/status [patch]
func (h *TimetableHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	timetable, err := h.timetables.Transition(c.Request.Context(), c.Param("id"), models.TimetableStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Delete godoc
// @Summary Delete timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.timetables.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEntries godoc
// @Summary List timetable entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/entries [get]
func (h *TimetableHandler) ListEntries(c *gin.Context) {
	entries, err := h.timetables.ListEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddEntry godoc
// @Summary Manually place a subject into a slot
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.CreateEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/entries [post]
func (h *TimetableHandler) AddEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.timetables.AddEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// RemoveEntry godoc
// @Summary Remove a timetable entry
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /timetables/{id}/entries/{entryId} [delete]
func (h *TimetableHandler) RemoveEntry(c *gin.Context) {
	if err := h.timetables.RemoveEntry(c.Request.Context(), c.Param("id"), c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Optimize godoc
// @Summary Run the optimizer against a timetable
// @Tags Optimization
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.OptimizeRequest false "Optimization parameters"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /timetables/{id}/optimize [post]
func (h *TimetableHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	id := c.Param("id")
	if req.Async {
		status, err := h.optimizer.OptimizeAsync(c.Request.Context(), id, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, status, nil)
		return
	}

	result, err := h.optimizer.Optimize(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RunStatus godoc
// @Summary Poll an asynchronous optimization run
// @Tags Optimization
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /optimizations/{runId} [get]
func (h *TimetableHandler) RunStatus(c *gin.Context) {
	status, err := h.optimizer.RunStatus(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Export godoc
// @Summary Export a timetable as CSV or PDF
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID (or 'active')"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled"))
		return
	}

	id := c.Param("id")
	if id == "active" {
		id = ""
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.Export(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
