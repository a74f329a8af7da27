package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type deadlineService interface {
	List(ctx context.Context, filter models.UploadDeadlineFilter) ([]models.UploadDeadline, error)
	Record(ctx context.Context, req dto.RecordDeadlineRequest) (*models.UploadDeadline, error)
	Status(ctx context.Context, query dto.DeadlineStatusQuery) (*dto.DeadlineStatusResponse, error)
}

// DeadlineHandler exposes upload deadline administration and the gate.
type DeadlineHandler struct {
	service deadlineService
}

// NewDeadlineHandler constructs a deadline handler.
func NewDeadlineHandler(svc deadlineService) *DeadlineHandler {
	return &DeadlineHandler{service: svc}
}

// List godoc
// @Summary List upload deadlines
// @Tags Upload Deadlines
// @Produce json
// @Param type query string false "exam_questions or e_notes"
// @Param yearId query string false "Academic year ID"
// @Param termId query string false "Academic term ID"
// @Success 200 {object} response.Envelope
// @Router /upload-deadlines [get]
func (h *DeadlineHandler) List(c *gin.Context) {
	filter := models.UploadDeadlineFilter{
		DeadlineType:   models.DeadlineType(c.Query("type")),
		AcademicYearID: c.Query("yearId"),
		AcademicTermID: c.Query("termId"),
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Record godoc
// @Summary Record upload deadline
// @Description Creates or replaces the deadline for a type within a year and term
// @Tags Upload Deadlines
// @Accept json
// @Produce json
// @Param payload body dto.RecordDeadlineRequest true "Deadline payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /upload-deadlines [post]
func (h *DeadlineHandler) Record(c *gin.Context) {
	var req dto.RecordDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deadline, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deadline, nil)
}

// Status godoc
// @Summary Upload deadline status
// @Description Classifies the deadline as OPEN, CLOSING_SOON or CLOSED. Year and term default to the current period.
// @Tags Upload Deadlines
// @Produce json
// @Param type query string true "exam_questions or e_notes"
// @Param yearId query string false "Academic year ID"
// @Param termId query string false "Academic term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /upload-deadlines/status [get]
func (h *DeadlineHandler) Status(c *gin.Context) {
	query := dto.DeadlineStatusQuery{
		DeadlineType:   models.DeadlineType(c.Query("type")),
		AcademicYearID: c.Query("yearId"),
		AcademicTermID: c.Query("termId"),
	}
	status, err := h.service.Status(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Precheck godoc
// @Summary Upload precheck
// @Description Runs the deadline gate for an upload type. Returns 403 DEADLINE_PASSED once closed.
// @Tags Uploads
// @Produce json
// @Param type path string true "exam_questions or e_notes"
// @Param yearId query string false "Academic year ID"
// @Param termId query string false "Academic term ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /uploads/{type}/precheck [post]
func (h *DeadlineHandler) Precheck(c *gin.Context) {
	status, ok := middleware.DeadlineStatusFromContext(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "upload window not evaluated"))
		return
	}
	response.JSON(c, http.StatusOK, status, nil, middleware.ExtractMeta(c))
}
