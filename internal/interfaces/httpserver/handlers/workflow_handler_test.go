package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/auth"
	"invision-server/internal/interfaces/httpserver/dto"
	"invision-server/internal/interfaces/httpserver/handlers"
)

func newWorkflowRouter(t *testing.T, identity auth.Identity, role string, definitions ...*workflow.Definition) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	workflowRepo := newMemoryWorkflowRepo(definitions...)
	orgRepo := &memoryOrgRepo{memberships: []*organization.Membership{
		{OrganizationID: "org-1", UserID: identity.UserID, Role: role, CreatedAt: time.Now()},
	}}

	handler := handlers.NewWorkflowHandler(workflow.NewService(workflowRepo), organization.NewService(orgRepo), zerolog.Nop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetIdentity(c, identity)
	})
	router.GET("/v1/workflows", handler.List)

	return router
}

func listWorkflows(t *testing.T, router *gin.Engine) []dto.WorkflowSummaryPayload {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/workflows", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", recorder.Code, recorder.Body.String())
	}

	var payload struct {
		Data []dto.WorkflowSummaryPayload `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload.Data
}

func TestListWorkflowsHonorsRoleAllowList(t *testing.T) {
	open := testDefinition()

	restricted := testDefinition()
	restricted.PublicID = "wf_test0000000002"
	restricted.Name = "Billing export"
	restricted.AllowedRoles = []string{"admin"}

	router := newWorkflowRouter(t, callerIdentity(), organization.RoleMember, open, restricted)
	listed := listWorkflows(t, router)

	if len(listed) != 1 || listed[0].ID != "wf_test0000000001" {
		t.Fatalf("listed = %+v, want only the unrestricted workflow", listed)
	}

	admin := auth.Identity{UserID: "user-9", OrganizationID: "org-1", Role: "admin"}
	router = newWorkflowRouter(t, admin, organization.RoleAdmin, open, restricted)
	if listed := listWorkflows(t, router); len(listed) != 2 {
		t.Fatalf("admin listing = %+v, want both workflows", listed)
	}
}

func TestListWorkflowsHonorsUserAllowList(t *testing.T) {
	restricted := testDefinition()
	restricted.AllowedUsers = []string{"someone-else"}

	router := newWorkflowRouter(t, callerIdentity(), organization.RoleMember, restricted)
	if listed := listWorkflows(t, router); len(listed) != 0 {
		t.Fatalf("listed = %+v, want no workflows for a non-listed user", listed)
	}
}
