package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type periodService interface {
	Current(ctx context.Context) (*models.CurrentPeriod, error)
}

// PeriodHandler exposes the current academic period.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc periodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// Current godoc
// @Summary Get current period
// @Description Current academic year and term. A missing half is returned as null with a reason code.
// @Tags Academic Period
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /current-period [get]
func (h *PeriodHandler) Current(c *gin.Context) {
	period, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
