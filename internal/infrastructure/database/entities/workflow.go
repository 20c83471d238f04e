package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"invision-server/internal/domain/workflow"
)

// Workflow represents the database schema for workflow definitions.
type Workflow struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID             string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name                 string         `gorm:"type:varchar(256);not null"`
	Slug                 string         `gorm:"type:varchar(256);index;not null"`
	Description          string         `gorm:"type:text"`
	Category             string         `gorm:"type:varchar(64);index"`
	FlowID               string         `gorm:"type:varchar(64);not null"`
	Tweaks               datatypes.JSON `gorm:"type:jsonb"`
	RequiredConnectors   JSONStrings    `gorm:"type:jsonb"`
	AllowedOrganizations JSONStrings    `gorm:"type:jsonb"`
	AllowedRoles         JSONStrings    `gorm:"type:jsonb"`
	AllowedUsers         JSONStrings    `gorm:"type:jsonb"`
	Active               bool           `gorm:"not null;default:true;index"`
}

// TableName specifies the table name for Workflow.
func (Workflow) TableName() string {
	return "workflows"
}

// JSONStrings stores a list of strings as a JSON array.
type JSONStrings []string

func (s JSONStrings) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *JSONStrings) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// EtoD converts database entity to domain model.
func (w *Workflow) EtoD() *workflow.Definition {
	var tweaks map[string]any
	if len(w.Tweaks) > 0 {
		_ = json.Unmarshal(w.Tweaks, &tweaks)
	}

	return &workflow.Definition{
		ID:                   w.ID,
		PublicID:             w.PublicID,
		Name:                 w.Name,
		Slug:                 w.Slug,
		Description:          w.Description,
		Category:             w.Category,
		FlowID:               w.FlowID,
		Tweaks:               tweaks,
		RequiredConnectors:   w.RequiredConnectors,
		AllowedOrganizations: w.AllowedOrganizations,
		AllowedRoles:         w.AllowedRoles,
		AllowedUsers:         w.AllowedUsers,
		Active:               w.Active,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
}

// NewSchemaWorkflow creates a database entity from domain model.
func NewSchemaWorkflow(d *workflow.Definition) *Workflow {
	tweaks := datatypes.JSON("{}")
	if d.Tweaks != nil {
		if raw, err := json.Marshal(d.Tweaks); err == nil {
			tweaks = raw
		}
	}

	return &Workflow{
		ID:                   d.ID,
		PublicID:             d.PublicID,
		Name:                 d.Name,
		Slug:                 d.Slug,
		Description:          d.Description,
		Category:             d.Category,
		FlowID:               d.FlowID,
		Tweaks:               tweaks,
		RequiredConnectors:   JSONStrings(d.RequiredConnectors),
		AllowedOrganizations: JSONStrings(d.AllowedOrganizations),
		AllowedRoles:         JSONStrings(d.AllowedRoles),
		AllowedUsers:         JSONStrings(d.AllowedUsers),
		Active:               d.Active,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}
