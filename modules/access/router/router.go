package router

import (
	"calshare/core/middleware"
	"calshare/modules/access/controller"

	"github.com/labstack/echo/v4"
)

type AccessRouter struct {
	controller *controller.AccessController
}

func NewAccessRouter(controller *controller.AccessController) *AccessRouter {
	return &AccessRouter{controller: controller}
}

func (r *AccessRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	shares := g.Group("/events/:event_id/share")
	shares.Use(mw.AuthMiddleware())

	shares.POST("", r.controller.ShareEvent)
	shares.DELETE("", r.controller.UnshareEvent)
	shares.GET("", r.controller.ListShares)
	shares.GET("/:user_id", r.controller.GetShare)
}
