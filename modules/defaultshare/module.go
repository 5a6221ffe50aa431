package defaultshare

import (
	"calshare/core/database"
	"calshare/core/middleware"
	accessService "calshare/modules/access/service"
	"calshare/modules/defaultshare/controller"
	"calshare/modules/defaultshare/repository"
	"calshare/modules/defaultshare/router"
	"calshare/modules/defaultshare/service"
	labelRepo "calshare/modules/label/repository"
	relRepo "calshare/modules/relationship/repository"

	"github.com/labstack/echo/v4"
)

// Init wires the default-share module. The repository is built by the caller
// because the label and event modules cascade deletions through it.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, repo repository.DefaultShareRepositoryInterface, labels labelRepo.LabelRepositoryInterface, relationships relRepo.RelationshipRepositoryInterface, access accessService.AccessServiceInterface) *service.DefaultShareService {
	svc := service.NewDefaultShareService(&db, repo, labels, relationships, access)
	ctrl := controller.NewDefaultShareController(svc)
	r := router.NewDefaultShareRouter(ctrl)

	r.Register(g, mw)

	return svc
}
