// Package api exposes the steel engine over HTTP: host events come in, tree
// and label state goes out.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chazu/steelhook/pkg/hooks"
	"github.com/chazu/steelhook/pkg/labels"
	"github.com/chazu/steelhook/pkg/model"
	"github.com/chazu/steelhook/pkg/steel"
)

// ObjectWriter registers surface objects on behalf of the host.
type ObjectWriter interface {
	Put(ctx context.Context, o *model.SurfaceObject) error
}

// Dependencies holds all handler dependencies.
type Dependencies struct {
	Objects    ObjectWriter
	Labels     labels.Store
	Steel      *steel.Service
	Dispatcher *hooks.Dispatcher
	Events     *hooks.Bus
	Version    string
}

// Handlers serves every route.
type Handlers struct {
	objects    ObjectWriter
	labels     labels.Store
	steel      *steel.Service
	dispatcher *hooks.Dispatcher
	events     *hooks.Bus
	version    string
}

// NewHandlers creates the handlers.
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		objects:    deps.Objects,
		labels:     deps.Labels,
		steel:      deps.Steel,
		dispatcher: deps.Dispatcher,
		events:     deps.Events,
		version:    deps.Version,
	}
}

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/health", h.HandleHealth)

	objects := e.Group("/api/objects")
	objects.POST("", h.HandlePutObject)
	objects.POST("/:name/entered", h.HandleObjectEntered)
	objects.GET("/:name/labels", h.HandleGetLabels)

	e.POST("/api/reclassify", h.HandleReclassify)
	e.POST("/api/labels/refresh", h.HandleRefreshLabels)

	arrangements := e.Group("/api/arrangements")
	arrangements.GET("", h.HandleGetArrangements)
	arrangements.GET("/snapshot.msgpack", h.HandleGetArrangementsMsgpack)
	arrangements.GET("/path", h.HandleGetPath)

	e.PUT("/api/hooks/enabled", h.HandleSetHooksEnabled)
}

// SetupMiddleware configures common middleware.
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.Recover())
}
