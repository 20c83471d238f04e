package v1

import (
	"github.com/gin-gonic/gin"

	"invision-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{
		handlers: handlerProvider,
	}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")
	registerChatRoutes(group, r.handlers.ChatSession, r.handlers.Stream)
	registerWorkflowRoutes(group, r.handlers.Workflow)
	registerConnectorRoutes(group, r.handlers.Connector)
	registerOrganizationRoutes(group, r.handlers.Organization)
}
