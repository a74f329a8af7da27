package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type academicTermService interface {
	List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AcademicTerm, error)
	GetCurrent(ctx context.Context) (*models.AcademicTerm, error)
	Create(ctx context.Context, req service.CreateAcademicTermRequest) (*models.AcademicTerm, error)
	Update(ctx context.Context, id string, req service.UpdateAcademicTermRequest) (*models.AcademicTerm, error)
	SetCurrent(ctx context.Context, id string) (*models.AcademicTerm, error)
	Delete(ctx context.Context, id string) error
}

// AcademicTermHandler exposes academic term endpoints, also mounted as
// academic sessions.
type AcademicTermHandler struct {
	service academicTermService
}

// NewAcademicTermHandler constructs an academic term handler.
func NewAcademicTermHandler(svc academicTermService) *AcademicTermHandler {
	return &AcademicTermHandler{service: svc}
}

// List godoc
// @Summary List academic terms
// @Tags Academic Terms
// @Produce json
// @Param academicYearId query string false "Filter by academic year"
// @Param isActive query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academic-terms [get]
func (h *AcademicTermHandler) List(c *gin.Context) {
	params := parseListParams(c)
	filter := models.AcademicTermFilter{
		AcademicYearID: c.Query("academicYearId"),
		IsActive:       params.isActive,
		Page:           params.page,
		PageSize:       params.pageSize,
		SortBy:         params.sortBy,
		SortOrder:      params.sortOrder,
	}

	terms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, pagination)
}

// Get godoc
// @Summary Get academic term
// @Tags Academic Terms
// @Produce json
// @Param id path string true "Academic term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-terms/{id} [get]
func (h *AcademicTermHandler) Get(c *gin.Context) {
	term, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Current godoc
// @Summary Get current academic term
// @Tags Academic Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-terms/current [get]
func (h *AcademicTermHandler) Current(c *gin.Context) {
	term, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Create godoc
// @Summary Create academic term
// @Tags Academic Terms
// @Accept json
// @Produce json
// @Param payload body service.CreateAcademicTermRequest true "Academic term payload"
// @Success 201 {object} response.Envelope
// @Router /academic-terms [post]
func (h *AcademicTermHandler) Create(c *gin.Context) {
	var req service.CreateAcademicTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	term, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// Update godoc
// @Summary Update academic term
// @Tags Academic Terms
// @Accept json
// @Produce json
// @Param id path string true "Academic term ID"
// @Param payload body service.UpdateAcademicTermRequest true "Academic term payload"
// @Success 200 {object} response.Envelope
// @Router /academic-terms/{id} [put]
func (h *AcademicTermHandler) Update(c *gin.Context) {
	var req service.UpdateAcademicTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	term, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// SetCurrent godoc
// @Summary Set current academic term
// @Description Marks the term current and clears the flag on every other term, across all years
// @Tags Academic Terms
// @Produce json
// @Param id path string true "Academic term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-terms/{id}/set-current [post]
func (h *AcademicTermHandler) SetCurrent(c *gin.Context) {
	term, err := h.service.SetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Delete godoc
// @Summary Delete academic term
// @Tags Academic Terms
// @Produce json
// @Param id path string true "Academic term ID"
// @Success 204 {string} string "No Content"
// @Failure 412 {object} response.Envelope
// @Router /academic-terms/{id} [delete]
func (h *AcademicTermHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
