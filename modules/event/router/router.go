package router

import (
	"calshare/core/middleware"
	"calshare/modules/event/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	controller *controller.EventController
}

func NewEventRouter(controller *controller.EventController) *EventRouter {
	return &EventRouter{controller: controller}
}

func (r *EventRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	events := g.Group("/events")
	events.Use(mw.AuthMiddleware())

	events.POST("", r.controller.Create)
	events.GET("", r.controller.List)
	events.GET("/:event_id", r.controller.Get)
	events.PUT("/:event_id", r.controller.Update)
	events.DELETE("/:event_id", r.controller.Delete)
}
