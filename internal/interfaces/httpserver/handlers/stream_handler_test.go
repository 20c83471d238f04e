package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invision-server/internal/config"
	"invision-server/internal/domain/chatsession"
	"invision-server/internal/domain/connector"
	"invision-server/internal/domain/organization"
	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/auth"
	"invision-server/internal/infrastructure/flowengine"
	"invision-server/internal/interfaces/httpserver/handlers"
)

type memorySessionRepo struct {
	sessions map[string]*chatsession.ChatSession
}

func newMemorySessionRepo(sessions ...*chatsession.ChatSession) *memorySessionRepo {
	repo := &memorySessionRepo{sessions: make(map[string]*chatsession.ChatSession)}
	for _, session := range sessions {
		repo.sessions[session.PublicID] = session
	}
	return repo
}

func (r *memorySessionRepo) Create(ctx context.Context, session *chatsession.ChatSession) error {
	r.sessions[session.PublicID] = session
	return nil
}

func (r *memorySessionRepo) Update(ctx context.Context, session *chatsession.ChatSession) error {
	r.sessions[session.PublicID] = session
	return nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, session *chatsession.ChatSession) error {
	delete(r.sessions, session.PublicID)
	return nil
}

func (r *memorySessionRepo) FindByPublicID(ctx context.Context, publicID string) (*chatsession.ChatSession, error) {
	return r.sessions[publicID], nil
}

func (r *memorySessionRepo) FindByUser(ctx context.Context, userID, organizationID string) ([]*chatsession.ChatSession, error) {
	var result []*chatsession.ChatSession
	for _, session := range r.sessions {
		if session.UserID == userID && session.OrganizationID == organizationID {
			result = append(result, session)
		}
	}
	return result, nil
}

type memoryWorkflowRepo struct {
	definitions map[string]*workflow.Definition
}

func newMemoryWorkflowRepo(definitions ...*workflow.Definition) *memoryWorkflowRepo {
	repo := &memoryWorkflowRepo{definitions: make(map[string]*workflow.Definition)}
	for _, definition := range definitions {
		repo.definitions[definition.PublicID] = definition
	}
	return repo
}

func (r *memoryWorkflowRepo) Create(ctx context.Context, definition *workflow.Definition) error {
	r.definitions[definition.PublicID] = definition
	return nil
}

func (r *memoryWorkflowRepo) Update(ctx context.Context, definition *workflow.Definition) error {
	r.definitions[definition.PublicID] = definition
	return nil
}

func (r *memoryWorkflowRepo) Delete(ctx context.Context, definition *workflow.Definition) error {
	delete(r.definitions, definition.PublicID)
	return nil
}

func (r *memoryWorkflowRepo) FindByPublicID(ctx context.Context, publicID string) (*workflow.Definition, error) {
	return r.definitions[publicID], nil
}

func (r *memoryWorkflowRepo) List(ctx context.Context, organizationID string) ([]*workflow.Definition, error) {
	var result []*workflow.Definition
	for _, definition := range r.definitions {
		if definition.Active {
			result = append(result, definition)
		}
	}
	return result, nil
}

type memoryOrgRepo struct {
	memberships []*organization.Membership
}

func (r *memoryOrgRepo) FindByPublicID(ctx context.Context, publicID string) (*organization.Organization, error) {
	return nil, nil
}

func (r *memoryOrgRepo) ListMemberships(ctx context.Context, userID string) ([]*organization.Membership, error) {
	var result []*organization.Membership
	for _, membership := range r.memberships {
		if membership.UserID == userID {
			result = append(result, membership)
		}
	}
	return result, nil
}

func (r *memoryOrgRepo) FindMembership(ctx context.Context, userID, organizationID string) (*organization.Membership, error) {
	for _, membership := range r.memberships {
		if membership.UserID == userID && membership.OrganizationID == organizationID {
			return membership, nil
		}
	}
	return nil, nil
}

type stubBrokerClient struct {
	accounts []connector.Account
	toolkits []connector.Toolkit
}

func (c *stubBrokerClient) ListAccounts(ctx context.Context, userID string) ([]connector.Account, error) {
	return c.accounts, nil
}

func (c *stubBrokerClient) ListToolkits(ctx context.Context) ([]connector.Toolkit, error) {
	return c.toolkits, nil
}

func (c *stubBrokerClient) Authorize(ctx context.Context, userID, toolkitSlug string) (string, error) {
	return "https://broker.example/authorize/" + toolkitSlug, nil
}

func (c *stubBrokerClient) DeleteAccount(ctx context.Context, accountID string) error {
	return nil
}

type streamFixture struct {
	sessions  *memorySessionRepo
	workflows *memoryWorkflowRepo
	router    *gin.Engine
}

func newStreamFixture(t *testing.T, upstreamURL string, definition *workflow.Definition, session *chatsession.ChatSession, accounts []connector.Account) *streamFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessionRepo := newMemorySessionRepo(session)
	workflowRepo := newMemoryWorkflowRepo(definition)
	orgRepo := &memoryOrgRepo{memberships: []*organization.Membership{
		{OrganizationID: "org-1", UserID: "user-1", Role: organization.RoleMember, CreatedAt: time.Now()},
	}}

	workflowService := workflow.NewService(workflowRepo)
	sessionService := chatsession.NewService(sessionRepo, workflowService)
	organizationService := organization.NewService(orgRepo)
	connectorService := connector.NewService(&stubBrokerClient{accounts: accounts})

	cfg := &config.Config{
		FlowEngineURL: upstreamURL,
		StreamTimeout: 5 * time.Second,
	}
	engine := flowengine.NewClient(cfg, zerolog.Nop())

	handler := handlers.NewStreamHandler(sessionService, organizationService, connectorService, engine, zerolog.Nop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{UserID: "user-1", OrganizationID: "org-1", Role: "member"})
	})
	router.GET("/v1/chat/stream", handler.Stream)

	return &streamFixture{
		sessions:  sessionRepo,
		workflows: workflowRepo,
		router:    router,
	}
}

func testDefinition() *workflow.Definition {
	return &workflow.Definition{
		PublicID: "wf_test0000000001",
		Name:     "Analytics",
		Slug:     "analytics",
		FlowID:   "flow-1",
		Tweaks: map[string]any{
			"Agent-x": map[string]any{"session_id": "{{sessionId}}"},
		},
		Active: true,
	}
}

func testSession() *chatsession.ChatSession {
	return &chatsession.ChatSession{
		PublicID:       "sess_test000000001",
		UserID:         "user-1",
		OrganizationID: "org-1",
		WorkflowID:     "wf_test0000000001",
		Title:          "New conversation",
		Messages:       []chatsession.Message{},
	}
}

func engineUpstream(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
		}
	}))
}

func TestStreamRelaysEngineEvents(t *testing.T) {
	upstream := engineUpstream(t,
		`{"event":"token","data":{"chunk":"Your rate "}}`,
		`{"event":"token","data":{"chunk":"is 4.2%"}}`,
		`{"event":"end","data":{"result":{"outputs":[{"outputs":[{"results":{"message":{"text":"Your rate is 4.2%"}}}]}]}}}`,
	)
	defer upstream.Close()

	fixture := newStreamFixture(t, upstream.URL, testDefinition(), testSession(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=conversion+rate", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	body := recorder.Body.String()
	frames := []string{
		`event: token`,
		`{"chunk":"Your rate "}`,
		`{"chunk":"is 4.2%"}`,
		`event: message`,
		`{"complete":true,"text":"Your rate is 4.2%"}`,
		`event: end`,
	}
	offset := 0
	for _, frame := range frames {
		index := strings.Index(body[offset:], frame)
		if index < 0 {
			t.Fatalf("frame %q missing or out of order in body:\n%s", frame, body)
		}
		offset += index
	}

	session := fixture.sessions.sessions["sess_test000000001"]
	if len(session.Messages) != 2 {
		t.Fatalf("messages = %d, want user + assistant", len(session.Messages))
	}
	if session.Messages[0].Role != chatsession.RoleUser || session.Messages[0].Content != "conversion rate" {
		t.Fatalf("user message = %+v", session.Messages[0])
	}
	if session.Messages[1].Role != chatsession.RoleAssistant || session.Messages[1].Content != "Your rate is 4.2%" {
		t.Fatalf("assistant message = %+v", session.Messages[1])
	}
	if session.Title != "conversion rate" {
		t.Fatalf("title = %q, want derived from first message", session.Title)
	}
}

func TestStreamFinalizationIsIdempotent(t *testing.T) {
	frames := []string{
		`{"event":"end","data":{"result":{"text":"the answer"}}}`,
	}
	upstream := engineUpstream(t, frames...)
	defer upstream.Close()

	session := testSession()
	fixture := newStreamFixture(t, upstream.URL, testDefinition(), session, nil)

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
		fixture.router.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusOK {
			t.Fatalf("run %d status = %d", i, recorder.Code)
		}
	}

	stored := fixture.sessions.sessions["sess_test000000001"]
	assistant := 0
	for _, message := range stored.Messages {
		if message.Role == chatsession.RoleAssistant && message.Content == "the answer" {
			assistant++
		}
	}
	if assistant != 1 {
		t.Fatalf("assistant copies = %d, want exactly 1", assistant)
	}
}

func TestStreamMissingParams(t *testing.T) {
	fixture := newStreamFixture(t, "http://unused.invalid", testDefinition(), testSession(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestStreamMalformedSessionID(t *testing.T) {
	fixture := newStreamFixture(t, "http://unused.invalid", testDefinition(), testSession(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=SESS-0001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestStreamInactiveWorkflowIsNotFound(t *testing.T) {
	definition := testDefinition()
	definition.Active = false
	session := testSession()
	fixture := newStreamFixture(t, "http://unused.invalid", definition, session, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
	if got := len(fixture.sessions.sessions["sess_test000000001"].Messages); got != 0 {
		t.Fatalf("messages persisted on failed resolve: %d", got)
	}
}

func TestStreamForeignSessionIsNotFound(t *testing.T) {
	session := testSession()
	session.UserID = "someone-else"
	fixture := newStreamFixture(t, "http://unused.invalid", testDefinition(), session, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestStreamMissingConnectorIsPrecondition(t *testing.T) {
	definition := testDefinition()
	definition.RequiredConnectors = []string{"stripe"}
	session := testSession()
	fixture := newStreamFixture(t, "http://unused.invalid", definition, session, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412", recorder.Code)
	}

	var payload struct {
		MissingConnectors []string `json:"missing_connectors"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.MissingConnectors) != 1 || payload.MissingConnectors[0] != "stripe" {
		t.Fatalf("missing_connectors = %v, want [stripe]", payload.MissingConnectors)
	}
	if got := len(fixture.sessions.sessions["sess_test000000001"].Messages); got != 0 {
		t.Fatalf("messages persisted despite precondition failure: %d", got)
	}
}

func TestStreamConnectedConnectorPasses(t *testing.T) {
	upstream := engineUpstream(t, `{"event":"end","data":{"result":{"text":"done"}}}`)
	defer upstream.Close()

	definition := testDefinition()
	definition.RequiredConnectors = []string{"stripe"}
	accounts := []connector.Account{{ID: "ca_1", Toolkit: "stripe", Status: connector.AccountStatusActive}}
	fixture := newStreamFixture(t, upstream.URL, definition, testSession(), accounts)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", recorder.Code, recorder.Body.String())
	}
}

func TestStreamEngineErrorEmitsSingleErrorEvent(t *testing.T) {
	upstream := engineUpstream(t,
		`{"event":"token","data":{"chunk":"partial"}}`,
		`{"event":"error","data":{"error":"flow crashed"}}`,
	)
	defer upstream.Close()

	fixture := newStreamFixture(t, upstream.URL, testDefinition(), testSession(), nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/stream?sessionId=sess_test000000001&message=hi", nil)
	fixture.router.ServeHTTP(recorder, request)

	body := recorder.Body.String()
	if count := strings.Count(body, "event: error"); count != 1 {
		t.Fatalf("error events = %d, want 1 (body %s)", count, body)
	}
	if strings.Contains(body, "event: end") {
		t.Fatalf("end event emitted after engine failure:\n%s", body)
	}

	// The user's message survives the failed turn so it can be retried.
	stored := fixture.sessions.sessions["sess_test000000001"]
	if len(stored.Messages) != 1 || stored.Messages[0].Role != chatsession.RoleUser {
		t.Fatalf("messages = %+v, want only the user message", stored.Messages)
	}
}
