package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"kaizen/internal/auth"
	"kaizen/internal/employee"
	"kaizen/internal/metrics"
	"kaizen/internal/models"
	"kaizen/internal/project"
	"kaizen/internal/query"
	"kaizen/internal/report"
)

// ProjectService is the project use case surface the handlers call.
type ProjectService interface {
	Create(ctx context.Context, id models.Identity, in project.CreateInput) (models.Project, error)
	Get(ctx context.Context, id models.Identity, projectID int64) (models.Project, error)
	List(ctx context.Context, id models.Identity, p query.Params) (project.Page, error)
	ListTeam(ctx context.Context, id models.Identity, p query.Params) (project.Page, error)
	Update(ctx context.Context, id models.Identity, projectID int64, payload map[string]json.RawMessage) (models.Project, error)
	Delete(ctx context.Context, id models.Identity, projectID int64) error
	ApproveBestKaizen(ctx context.Context, id models.Identity, projectID int64) (models.Project, error)
	RemoveBestKaizen(ctx context.Context, id models.Identity, projectID int64) (models.Project, error)
}

// EmployeeService is the employee administration surface.
type EmployeeService interface {
	Create(ctx context.Context, id models.Identity, in employee.CreateInput) (*models.Employee, error)
	Get(ctx context.Context, id models.Identity, employeeID string) (*models.Employee, error)
	Update(ctx context.Context, id models.Identity, employeeID string, in employee.UpdateInput) (*models.Employee, error)
	List(ctx context.Context, id models.Identity, f employee.Filter) ([]models.Employee, error)
	Departments(ctx context.Context) ([]models.Department, error)
	SaveDepartment(ctx context.Context, id models.Identity, d models.Department) (models.Department, error)
}

// ReportService produces the compliance reports.
type ReportService interface {
	Monthly(ctx context.Context, year, month int) (report.MonthSummary, error)
	AllMonths(ctx context.Context, year int) ([]report.MonthSummary, error)
	Yearly(ctx context.Context, year int) (report.YearSummary, error)
	ExportYear(ctx context.Context, year int) ([]byte, error)
}

// Services groups the use cases behind the API.
type Services struct {
	Projects  ProjectService
	Employees EmployeeService
	Reports   ReportService
}

// Options tune the optional parts of the HTTP surface.
type Options struct {
	// StaticDir holds a built frontend. Empty runs the API only.
	StaticDir string
	// UploadsDir and UploadsPath expose stored images under a URL path.
	UploadsDir  string
	UploadsPath string
	// AllowedOrigins enables CORS for the listed origins. "*" allows all.
	AllowedOrigins []string
	// RateLimit is a limiter rate such as "300-M". Empty disables limiting.
	RateLimit string
	// Metrics enables request instrumentation and GET /metrics.
	Metrics *metrics.Metrics
}

// Server provides HTTP handlers for the Kaizen backend.
type Server struct {
	engine   *gin.Engine
	services Services
	verifier *auth.Verifier
	logger   *slog.Logger
	opts     Options
}

var (
	setupOnce sync.Once
	setupErr  error
)

// New constructs the HTTP server with routes and middleware configured.
func New(services Services, verifier *auth.Verifier, logger *slog.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	setupOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
		setupErr = registerValidators()
	})
	if setupErr != nil {
		return nil, setupErr
	}

	router := gin.New()
	srv := &Server{
		engine:   router,
		services: services,
		verifier: verifier,
		logger:   logger,
		opts:     opts,
	}

	router.Use(gin.Recovery())
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}
	if opts.RateLimit != "" {
		mw, err := srv.rateLimiter(opts.RateLimit)
		if err != nil {
			return nil, err
		}
		router.Use(mw)
	}

	srv.registerRoutes()
	return srv, nil
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	if s.opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.Use(gin.LoggerWithWriter(gin.DefaultWriter))
	api.GET("/healthz", s.handleHealth)

	protected := api.Group("")
	protected.Use(auth.Middleware(s.verifier, s.respondError))
	{
		projects := protected.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.PATCH(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.POST(":id/best-kaizen", s.handleApproveBestKaizen)
			projects.DELETE(":id/best-kaizen", s.handleRemoveBestKaizen)
		}

		protected.GET("/team/projects", s.handleListTeamProjects)

		employees := protected.Group("/employees")
		{
			employees.GET("", s.handleListEmployees)
			employees.POST("", s.handleCreateEmployee)
			employees.GET(":id", s.handleGetEmployee)
			employees.PUT(":id", s.handleUpdateEmployee)
		}

		protected.GET("/departments", s.handleListDepartments)
		protected.PUT("/departments/:code", s.handleSaveDepartment)

		reports := protected.Group("/reports")
		reports.Use(auth.RequireRole(models.Role.CanViewSubordinates, s.respondError))
		{
			reports.GET("/monthly", s.handleMonthlyReport)
			reports.GET("/yearly", s.handleYearlyReport)
			reports.GET("/export", s.handleExportReport)
		}
	}

	s.mountUploads()
	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) rateLimiter(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("server: rate limit %q: %w", formatted, err)
	}
	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			s.respondError(c, errRateLimited)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			s.respondError(c, fmt.Errorf("rate limiter: %w", err))
		}),
	), nil
}

// identity returns the caller stored by the auth middleware.
func identity(c *gin.Context) models.Identity {
	id, _ := auth.FromContext(c)
	return id
}

// parseID converts a path parameter to int64 with error handling.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, fmt.Errorf("%w: invalid identifier %q", errBadRequest, raw))
		return 0, false
	}
	return id, true
}

type apiError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

// respondError logs the error and writes the failure envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	attrs := []any{slog.String("path", c.Request.URL.Path), slog.Int("status", status), slog.String("error", err.Error())}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Debug("request rejected", attrs...)
	}
	c.AbortWithStatusJSON(status, envelope{Error: &apiError{Message: message, Status: status}})
}

// respondSuccess wraps a payload in the success envelope.
func respondSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, envelope{Success: true, Data: payload})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
