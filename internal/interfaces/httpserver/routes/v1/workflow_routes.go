package v1

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/interfaces/httpserver/handlers"
)

func registerWorkflowRoutes(group *gin.RouterGroup, handler *handlers.WorkflowHandler) {
	group.GET("/workflows", handler.List)
	group.POST("/workflows", handler.Create)
	group.GET("/workflows/:workflow_id", handler.Get)
	group.PATCH("/workflows/:workflow_id", handler.Update)
	group.DELETE("/workflows/:workflow_id", handler.Delete)
}
