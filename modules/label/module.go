package label

import (
	"calshare/core/database"
	"calshare/core/middleware"
	accessService "calshare/modules/access/service"
	dsRepo "calshare/modules/defaultshare/repository"
	"calshare/modules/label/controller"
	"calshare/modules/label/repository"
	"calshare/modules/label/router"
	"calshare/modules/label/service"
	relRepo "calshare/modules/relationship/repository"

	"github.com/labstack/echo/v4"
)

// Init wires the label module. The repository is built by the caller because
// the relationship and default-share modules read label ownership through it.
func Init(g *echo.Group, db database.Database, mw *middleware.Middleware, repo repository.LabelRepositoryInterface, relationships relRepo.RelationshipRepositoryInterface, defaultShares dsRepo.DefaultShareRepositoryInterface, access accessService.AccessServiceInterface) *service.LabelService {
	svc := service.NewLabelService(&db, repo, relationships, defaultShares, access)
	ctrl := controller.NewLabelController(svc)
	r := router.NewLabelRouter(ctrl)

	r.Register(g, mw)

	return svc
}
