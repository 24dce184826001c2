package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/service"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/response"
)

// ConstraintHandler handles constraint endpoints.
type ConstraintHandler struct {
	service *service.ConstraintService
}

// NewConstraintHandler constructs a constraint handler.
func NewConstraintHandler(svc *service.ConstraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// List godoc
// @Summary List constraints
// @Tags Constraints
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /constraints [get]
func (h *ConstraintHandler) List(c *gin.Context) {
	constraints, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraints, nil)
}

// Get godoc
// @Summary Get constraint by id
// @Tags Constraints
// @Produce json
// @Param id path string true "Constraint ID"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [get]
func (h *ConstraintHandler) Get(c *gin.Context) {
	constraint, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraint, nil)
}

// Create godoc
// @Summary Create constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param payload body dto.ConstraintRequest true "Constraint payload"
// @Success 201 {object} response.Envelope
// @Router /constraints [post]
func (h *ConstraintHandler) Create(c *gin.Context) {
	var req dto.ConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	constraint, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, constraint)
}

// Update godoc
// @Summary Update constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path string true "Constraint ID"
// @Param payload body dto.ConstraintRequest true "Constraint payload"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [put]
func (h *ConstraintHandler) Update(c *gin.Context) {
	var req dto.ConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	constraint, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraint, nil)
}

// SetActive godoc
// @Summary Toggle constraint activation
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path string true "Constraint ID"
// @Param payload body dto.SetActiveRequest true "Activation payload"
// @Success 204
// @Router /constraints/{id}/active [patch]
func (h *ConstraintHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetActive(c.Request.Context(), c.Param("id"), req.IsActive); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete constraint
// @Tags Constraints
// @Produce json
// @Param id path string true "Constraint ID"
// @Success 204
// @Router /constraints/{id} [delete]
func (h *ConstraintHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
