package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dalfonso89/forex-rates/internal/logger"
	"github.com/dalfonso89/forex-rates/internal/middleware"
	"github.com/dalfonso89/forex-rates/internal/models"
	"github.com/dalfonso89/forex-rates/internal/ratelimit"
	"github.com/dalfonso89/forex-rates/internal/ratetable"
	"github.com/dalfonso89/forex-rates/internal/session"
)

const (
	// ClientCookie carries the client ID that selects a view
	ClientCookie = "forex_client"

	clientCookieMaxAge = 365 * 24 * 60 * 60
	indexTemplate      = "index.html.tmpl"
	version            = "1.0.0"
)

//go:embed templates/*.tmpl
var templates embed.FS

// HandlerConfig holds dependencies for handlers
type HandlerConfig struct {
	Logger       *logger.Logger
	Sessions     *session.Manager
	RateLimiter  *ratelimit.Limiter
	CookieSecure bool
	// ViewDefaults shapes the page shown before a client has a view
	ViewDefaults ratetable.Options
}

// Handlers contains all HTTP handlers
type Handlers struct {
	logger       *logger.Logger
	sessions     *session.Manager
	rateLimiter  *ratelimit.Limiter
	cookieSecure bool
	viewDefaults ratetable.Options
	template     *template.Template
	startTime    time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(handlerConfig HandlerConfig) *Handlers {
	return &Handlers{
		logger:       handlerConfig.Logger,
		sessions:     handlerConfig.Sessions,
		rateLimiter:  handlerConfig.RateLimiter,
		cookieSecure: handlerConfig.CookieSecure,
		viewDefaults: handlerConfig.ViewDefaults,
		template:     template.Must(template.ParseFS(templates, "templates/*.tmpl")),
		startTime:    time.Now(),
	}
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(handlers.template)

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimiter.Middleware())
	}

	router.GET("/", handlers.Index)
	router.POST("/base", handlers.SelectBase)
	router.POST("/sort", handlers.SelectSort)
	router.POST("/page", handlers.GoToPage)
	router.POST("/theme", handlers.ToggleTheme)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/view", handlers.GetView)
	}

	return router
}

// Index renders the rate table of the calling client
func (handlers *Handlers) Index(context *gin.Context) {
	context.Header("Cache-Control", "no-store")

	view, ok := handlers.view(context)
	if !ok {
		// reload once the browser sends the cookie back
		page := ratetable.Placeholder(handlers.viewDefaults)
		page.Pending = true
		context.HTML(http.StatusOK, indexTemplate, page)
		return
	}
	context.HTML(http.StatusOK, indexTemplate, view.Render())
}

// GetView returns the render model of the calling client as JSON
func (handlers *Handlers) GetView(context *gin.Context) {
	view, ok := handlers.view(context)
	if !ok {
		context.JSON(http.StatusOK, ratetable.Placeholder(handlers.viewDefaults))
		return
	}
	context.JSON(http.StatusOK, view.Render())
}

// SelectBase switches the base currency
func (handlers *Handlers) SelectBase(context *gin.Context) {
	view, ok := handlers.view(context)
	if !ok {
		handlers.redirectHome(context)
		return
	}

	// the fetch outlives this request, so it runs under the manager's context
	if err := view.SelectBase(handlers.sessions.Context(), context.PostForm("base")); err != nil {
		if errors.Is(err, ratetable.ErrUnsupportedCurrency) {
			handlers.writeErrorResponse(context, http.StatusBadRequest, "Invalid base currency", err.Error())
			return
		}
		handlers.writeErrorResponse(context, http.StatusInternalServerError, "Failed to select base currency", err.Error())
		return
	}
	handlers.redirectHome(context)
}

// SelectSort changes the table ordering
func (handlers *Handlers) SelectSort(context *gin.Context) {
	option, err := ratetable.ParseSortOption(context.PostForm("sort"))
	if err != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "Invalid sort option", err.Error())
		return
	}

	if view, ok := handlers.view(context); ok {
		view.SelectSort(option)
	}
	handlers.redirectHome(context)
}

// GoToPage moves to the requested page
func (handlers *Handlers) GoToPage(context *gin.Context) {
	page, err := strconv.Atoi(context.PostForm("page"))
	if err != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "Invalid page", "Page must be a number")
		return
	}

	if view, ok := handlers.view(context); ok {
		view.GoToPage(page)
	}
	handlers.redirectHome(context)
}

// ToggleTheme flips dark mode and persists it
func (handlers *Handlers) ToggleTheme(context *gin.Context) {
	view, ok := handlers.view(context)
	if !ok {
		handlers.redirectHome(context)
		return
	}

	enabled, err := view.ToggleDarkMode(context.Request.Context())
	if err != nil {
		handlers.logger.Component("api").WithError(err).Warn("Failed to persist dark mode")
	}
	handlers.logger.Component("api").WithField("dark_mode", enabled).Debug("Toggled theme")
	handlers.redirectHome(context)
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	context.JSON(http.StatusOK, models.HealthCheck{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version,
		Uptime:    time.Since(handlers.startTime).String(),
		Sessions:  handlers.sessions.Len(),
	})
}

// view resolves the client cookie. A client without a valid cookie gets a
// fresh ID and no view; the view is created when that cookie comes back.
func (handlers *Handlers) view(context *gin.Context) (*ratetable.View, bool) {
	clientID, err := context.Cookie(ClientCookie)
	known := err == nil && session.ValidClientID(clientID)
	if !known {
		clientID = session.NewClientID()
	}

	// refresh the expiry on every request
	context.SetSameSite(http.SameSiteLaxMode)
	context.SetCookie(ClientCookie, clientID, clientCookieMaxAge, "/", "", handlers.cookieSecure, true)
	if !known {
		return nil, false
	}
	return handlers.sessions.View(clientID), true
}

func (handlers *Handlers) redirectHome(context *gin.Context) {
	context.Redirect(http.StatusSeeOther, "/")
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	errorResponse := models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	}

	context.JSON(statusCode, errorResponse)
}
