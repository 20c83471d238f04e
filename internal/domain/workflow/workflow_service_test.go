package workflow

import (
	"context"
	"testing"

	"invision-server/internal/utils/platformerrors"
)

type mockRepository struct {
	CreateFunc         func(ctx context.Context, definition *Definition) error
	UpdateFunc         func(ctx context.Context, definition *Definition) error
	DeleteFunc         func(ctx context.Context, definition *Definition) error
	FindByPublicIDFunc func(ctx context.Context, publicID string) (*Definition, error)
	ListFunc           func(ctx context.Context, organizationID string) ([]*Definition, error)
}

func (m *mockRepository) Create(ctx context.Context, definition *Definition) error {
	return m.CreateFunc(ctx, definition)
}

func (m *mockRepository) Update(ctx context.Context, definition *Definition) error {
	return m.UpdateFunc(ctx, definition)
}

func (m *mockRepository) Delete(ctx context.Context, definition *Definition) error {
	return m.DeleteFunc(ctx, definition)
}

func (m *mockRepository) FindByPublicID(ctx context.Context, publicID string) (*Definition, error) {
	return m.FindByPublicIDFunc(ctx, publicID)
}

func (m *mockRepository) List(ctx context.Context, organizationID string) ([]*Definition, error) {
	return m.ListFunc(ctx, organizationID)
}

func TestCreateDefinition(t *testing.T) {
	var created *Definition
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, definition *Definition) error {
			created = definition
			return nil
		},
	}
	svc := NewService(repo)

	definition, err := svc.CreateDefinition(context.Background(), CreateDefinitionInput{
		Name:   "Sales Insights",
		FlowID: "f81b6a32-0c9e-4f51-9a77-2f5b3a1d9e0c",
		Tweaks: map[string]any{
			"SupabaseFetch-a1": map[string]any{"organization_id": "{{organizationId}}"},
		},
		RequiredConnectors: []string{"hubspot"},
	})
	if err != nil {
		t.Fatalf("CreateDefinition() error = %v", err)
	}
	if created == nil {
		t.Fatal("repository Create was not called")
	}
	if definition.Slug != "sales-insights" {
		t.Errorf("Slug = %q, want %q", definition.Slug, "sales-insights")
	}
	if !definition.Active {
		t.Error("new definition should be active")
	}
	if definition.PublicID == "" || definition.PublicID[:3] != "wf_" {
		t.Errorf("PublicID = %q, want wf_ prefix", definition.PublicID)
	}
}

func TestCreateDefinition_Validation(t *testing.T) {
	svc := NewService(&mockRepository{})

	_, err := svc.CreateDefinition(context.Background(), CreateDefinitionInput{FlowID: "flow"})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("missing name: error = %v, want validation error", err)
	}

	_, err = svc.CreateDefinition(context.Background(), CreateDefinitionInput{Name: "x"})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("missing flow ID: error = %v, want validation error", err)
	}
}

func TestResolveActive(t *testing.T) {
	tests := []struct {
		name           string
		definition     *Definition
		organizationID string
		wantErrType    platformerrors.ErrorType
	}{
		{
			name:           "active global workflow resolves",
			definition:     &Definition{PublicID: "wf_a", Active: true},
			organizationID: "org_1",
		},
		{
			name:           "allow-listed tenant resolves",
			definition:     &Definition{PublicID: "wf_a", Active: true, AllowedOrganizations: []string{"org_1", "org_3"}},
			organizationID: "org_1",
		},
		{
			name:           "inactive workflow is hidden",
			definition:     &Definition{PublicID: "wf_a", Active: false},
			organizationID: "org_1",
			wantErrType:    platformerrors.ErrorTypeNotFound,
		},
		{
			name:           "tenant outside the allow-list is hidden",
			definition:     &Definition{PublicID: "wf_a", Active: true, AllowedOrganizations: []string{"org_2"}},
			organizationID: "org_1",
			wantErrType:    platformerrors.ErrorTypeNotFound,
		},
		{
			name:           "missing workflow",
			definition:     nil,
			organizationID: "org_1",
			wantErrType:    platformerrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				FindByPublicIDFunc: func(ctx context.Context, publicID string) (*Definition, error) {
					return tt.definition, nil
				},
			}
			svc := NewService(repo)

			definition, err := svc.ResolveActive(context.Background(), "wf_a", tt.organizationID)
			if tt.wantErrType != "" {
				if !platformerrors.IsErrorType(err, tt.wantErrType) {
					t.Errorf("ResolveActive() error = %v, want type %s", err, tt.wantErrType)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveActive() error = %v", err)
			}
			if definition != tt.definition {
				t.Error("ResolveActive() returned unexpected definition")
			}
		})
	}
}

func TestAccessibleBy(t *testing.T) {
	definition := &Definition{
		Active:               true,
		AllowedOrganizations: []string{"org_1"},
		AllowedRoles:         []string{"admin"},
	}

	if !definition.AccessibleBy(Access{OrganizationID: "org_1", Role: "admin", UserID: "user_1"}) {
		t.Error("allow-listed caller should have access")
	}
	if definition.AccessibleBy(Access{OrganizationID: "org_1", Role: "member"}) {
		t.Error("role outside the allow-list should be denied")
	}

	unrestricted := &Definition{Active: true}
	if !unrestricted.AccessibleBy(Access{OrganizationID: "org_9", Role: "member", UserID: "user_9"}) {
		t.Error("empty allow-lists should admit everyone")
	}
}

func TestUpdateDefinition_Deactivate(t *testing.T) {
	stored := &Definition{PublicID: "wf_a", Name: "Old", Slug: "old", Active: true}
	repo := &mockRepository{
		FindByPublicIDFunc: func(ctx context.Context, publicID string) (*Definition, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, definition *Definition) error {
			return nil
		},
	}
	svc := NewService(repo)

	inactive := false
	definition, err := svc.UpdateDefinition(context.Background(), "wf_a", UpdateDefinitionInput{Active: &inactive})
	if err != nil {
		t.Fatalf("UpdateDefinition() error = %v", err)
	}
	if definition.Active {
		t.Error("definition should be inactive after update")
	}
	if definition.Name != "Old" {
		t.Errorf("Name = %q, want unchanged", definition.Name)
	}
}
