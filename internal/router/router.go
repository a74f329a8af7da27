package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-portal-api/pkg/middleware/requestid"
)

// Options carries everything the HTTP surface needs.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator
	Gate           middleware.DeadlineGate

	Auth          *handler.AuthHandler
	AcademicYears *handler.AcademicYearHandler
	AcademicTerms *handler.AcademicTermHandler
	Period        *handler.PeriodHandler
	Deadlines     *handler.DeadlineHandler
	Ops           *handler.MetricsHandler
}

// New builds the gin engine with every route registered.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", opts.Ops.Health)
	r.GET("/ready", opts.Ops.Ready)
	r.GET("/metrics", opts.Ops.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", opts.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/auth/me", opts.Auth.Me)

	years := secured.Group("/academic-years")
	years.GET("", opts.AcademicYears.List)
	years.GET("/current", opts.AcademicYears.Current)
	years.GET("/:id", opts.AcademicYears.Get)
	years.POST("", adminOnly, opts.AcademicYears.Create)
	years.PUT("/:id", adminOnly, opts.AcademicYears.Update)
	years.DELETE("/:id", adminOnly, opts.AcademicYears.Delete)
	years.POST("/:id/set-current", adminOnly, opts.AcademicYears.SetCurrent)

	for _, path := range []string{"/academic-terms", "/academic-sessions"} {
		terms := secured.Group(path)
		terms.GET("", opts.AcademicTerms.List)
		terms.GET("/current", opts.AcademicTerms.Current)
		terms.GET("/:id", opts.AcademicTerms.Get)
		terms.POST("", adminOnly, opts.AcademicTerms.Create)
		terms.PUT("/:id", adminOnly, opts.AcademicTerms.Update)
		terms.DELETE("/:id", adminOnly, opts.AcademicTerms.Delete)
		terms.POST("/:id/set-current", adminOnly, opts.AcademicTerms.SetCurrent)
	}

	secured.GET("/current-period", opts.Period.Current)

	deadlines := secured.Group("/upload-deadlines")
	deadlines.GET("", opts.Deadlines.List)
	deadlines.GET("/status", opts.Deadlines.Status)
	deadlines.POST("", adminOnly, opts.Deadlines.Record)

	uploads := secured.Group("/uploads")
	uploads.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	uploads.POST("/:type/precheck", middleware.UploadWindow(opts.Gate), opts.Deadlines.Precheck)

	return r
}
