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

type academicYearService interface {
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AcademicYear, error)
	GetCurrent(ctx context.Context) (*models.AcademicYear, error)
	Create(ctx context.Context, req service.CreateAcademicYearRequest) (*models.AcademicYear, error)
	Update(ctx context.Context, id string, req service.UpdateAcademicYearRequest) (*models.AcademicYear, error)
	SetCurrent(ctx context.Context, id string) (*models.AcademicYear, error)
	Delete(ctx context.Context, id string) error
}

// AcademicYearHandler exposes academic year endpoints.
type AcademicYearHandler struct {
	service academicYearService
}

// NewAcademicYearHandler constructs an academic year handler.
func NewAcademicYearHandler(svc academicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{service: svc}
}

// List godoc
// @Summary List academic years
// @Tags Academic Years
// @Produce json
// @Param isActive query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicYearHandler) List(c *gin.Context) {
	params := parseListParams(c)
	filter := models.AcademicYearFilter{
		IsActive:  params.isActive,
		Page:      params.page,
		PageSize:  params.pageSize,
		SortBy:    params.sortBy,
		SortOrder: params.sortOrder,
	}

	years, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, pagination)
}

// Get godoc
// @Summary Get academic year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *AcademicYearHandler) Get(c *gin.Context) {
	year, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Current godoc
// @Summary Get current academic year
// @Tags Academic Years
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /academic-years/current [get]
func (h *AcademicYearHandler) Current(c *gin.Context) {
	year, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Create godoc
// @Summary Create academic year
// @Tags Academic Years
// @Accept json
// @Produce json
// @Param payload body service.CreateAcademicYearRequest true "Academic year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicYearHandler) Create(c *gin.Context) {
	var req service.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// Update godoc
// @Summary Update academic year
// @Tags Academic Years
// @Accept json
// @Produce json
// @Param id path string true "Academic year ID"
// @Param payload body service.UpdateAcademicYearRequest true "Academic year payload"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [put]
func (h *AcademicYearHandler) Update(c *gin.Context) {
	var req service.UpdateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// SetCurrent godoc
// @Summary Set current academic year
// @Description Marks the year current and clears the flag on every other year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /academic-years/{id}/set-current [post]
func (h *AcademicYearHandler) SetCurrent(c *gin.Context) {
	year, err := h.service.SetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Delete godoc
// @Summary Delete academic year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 204 {string} string "No Content"
// @Failure 412 {object} response.Envelope
// @Router /academic-years/{id} [delete]
func (h *AcademicYearHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
