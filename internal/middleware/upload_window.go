package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

const (
	// ContextDeadlineStatusKey stores the gate decision for downstream handlers.
	ContextDeadlineStatusKey = "uploadDeadlineStatus"
	// DeadlineWarningHeader carries the closing-soon warning to clients.
	DeadlineWarningHeader = "X-Upload-Deadline-Warning"
)

// DeadlineGate decides whether uploads of a type are still accepted.
type DeadlineGate interface {
	EnsureAccepting(ctx context.Context, query dto.DeadlineStatusQuery) (*dto.DeadlineStatusResponse, error)
}

// UploadWindow rejects submissions once the deadline for the upload type in
// the :type path parameter has passed. The year and term default to the
// current period unless yearId and termId are given as query parameters.
func UploadWindow(gate DeadlineGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := dto.DeadlineStatusQuery{
			DeadlineType:   models.DeadlineType(c.Param("type")),
			AcademicYearID: c.Query("yearId"),
			AcademicTermID: c.Query("termId"),
		}

		status, err := gate.EnsureAccepting(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if status.Status == models.DeadlineStatusClosingSoon {
			c.Header(DeadlineWarningHeader, status.Warning)
			SetMeta(c, "upload_deadline_warning", status.Warning)
		}
		c.Set(ContextDeadlineStatusKey, status)
		c.Next()
	}
}

// DeadlineStatusFromContext returns the decision stored by UploadWindow.
func DeadlineStatusFromContext(c *gin.Context) (*dto.DeadlineStatusResponse, bool) {
	value, exists := c.Get(ContextDeadlineStatusKey)
	if !exists {
		return nil, false
	}
	status, ok := value.(*dto.DeadlineStatusResponse)
	return status, ok
}
