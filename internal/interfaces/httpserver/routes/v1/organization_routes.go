package v1

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/interfaces/httpserver/handlers"
)

func registerOrganizationRoutes(group *gin.RouterGroup, handler *handlers.OrganizationHandler) {
	group.GET("/organizations", handler.List)
}
