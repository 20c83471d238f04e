package v1

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/interfaces/httpserver/handlers"
)

func registerConnectorRoutes(group *gin.RouterGroup, handler *handlers.ConnectorHandler) {
	group.GET("/connectors/accounts", handler.ListAccounts)
	group.POST("/connectors/accounts/refresh", handler.Refresh)
	group.DELETE("/connectors/accounts/:account_id", handler.DeleteAccount)
	group.GET("/connectors/toolkits", handler.ListToolkits)
	group.POST("/connectors/authorize", handler.Authorize)
}
