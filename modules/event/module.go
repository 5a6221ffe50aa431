package event

import (
	"calshare/core/database"
	"calshare/core/middleware"
	accessRepo "calshare/modules/access/repository"
	accessService "calshare/modules/access/service"
	dsRepo "calshare/modules/defaultshare/repository"
	"calshare/modules/event/controller"
	"calshare/modules/event/repository"
	"calshare/modules/event/router"
	"calshare/modules/event/service"

	"github.com/labstack/echo/v4"
)

// Init wires the event module. Deleting an event cascades through the access
// and default-share repositories, so those are injected alongside the access
// service that holds the authorization logic.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, access accessService.AccessServiceInterface, accessRepository accessRepo.AccessRepositoryInterface, defaultShares dsRepo.DefaultShareRepositoryInterface) *service.EventService {
	repo := repository.NewEventRepository(db)
	svc := service.NewEventService(&db, repo, accessRepository, defaultShares, access)
	ctrl := controller.NewEventController(svc)
	r := router.NewEventRouter(ctrl)

	r.Register(g, mw)

	return svc
}
