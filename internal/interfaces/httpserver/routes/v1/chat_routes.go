package v1

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(group *gin.RouterGroup, sessions *handlers.ChatSessionHandler, stream *handlers.StreamHandler) {
	group.POST("/sessions", sessions.Create)
	group.GET("/sessions", sessions.List)
	group.GET("/sessions/:session_id", sessions.Get)
	group.PATCH("/sessions/:session_id", sessions.Rename)
	group.PUT("/sessions/:session_id/workflow", sessions.ChangeWorkflow)
	group.DELETE("/sessions/:session_id", sessions.Delete)

	group.GET("/chat/stream", stream.Stream)
}
