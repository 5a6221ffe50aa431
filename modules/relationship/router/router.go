package router

import (
	"calshare/core/middleware"
	"calshare/modules/relationship/controller"

	"github.com/labstack/echo/v4"
)

type RelationshipRouter struct {
	controller *controller.RelationshipController
}

func NewRelationshipRouter(controller *controller.RelationshipController) *RelationshipRouter {
	return &RelationshipRouter{controller: controller}
}

func (r *RelationshipRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	users := g.Group("/users/:user_id")
	users.Use(mw.AuthMiddleware())

	users.POST("/follow", r.controller.Follow)
	users.DELETE("/follow", r.controller.Unfollow)
	users.DELETE("/friend", r.controller.RemoveFriend)
	users.POST("/block", r.controller.Block)
	users.DELETE("/block", r.controller.Unblock)
	users.DELETE("/follower", r.controller.RemoveFollower)
	users.POST("/labels/:label_id", r.controller.AssignLabel)
	users.DELETE("/labels/:label_id", r.controller.UnassignLabel)

	relationships := g.Group("/relationships")
	relationships.Use(mw.AuthMiddleware())

	relationships.GET("/friends", r.controller.ListFriends)
	relationships.GET("/following", r.controller.ListFollowing)
	relationships.GET("/followers", r.controller.ListFollowers)
}
