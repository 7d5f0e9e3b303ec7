package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RemediationRunModel backs one "practice all my mistakes" ticket.
// QuestionMapping maps each copied question id to the permanent question it came from.
type RemediationRunModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code   string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_remediation_runs_code" json:"code"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	// nil once the temporary ticket is torn down
	TicketID *uuid.UUID `gorm:"type:uuid;index" json:"ticket_id,omitempty"`

	StartedErrorCount   int            `gorm:"not null;default:0" json:"started_error_count"`
	QuestionMapping     datatypes.JSON `gorm:"not null" json:"question_mapping"`
	ResolvedCount       int            `gorm:"not null;default:0" json:"resolved_count"`
	RemainingErrorCount *int           `json:"remaining_error_count,omitempty"`

	ClosedAt  *time.Time `gorm:"index" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RemediationRunModel) TableName() string {
	return "remediation_runs"
}

func (m *RemediationRunModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Code == "" {
		code, err := gonanoid.New(12)
		if err != nil {
			return err
		}
		m.Code = code
	}
	if len(m.QuestionMapping) == 0 {
		m.QuestionMapping = datatypes.JSON("{}")
	}
	return nil
}

func (m *RemediationRunModel) IsOpen() bool {
	return m.ClosedAt == nil
}

// Mapping decodes QuestionMapping.
func (m *RemediationRunModel) Mapping() (map[uuid.UUID]uuid.UUID, error) {
	out := map[uuid.UUID]uuid.UUID{}
	if len(m.QuestionMapping) == 0 {
		return out, nil
	}
	var raw map[string]string
	if err := json.Unmarshal(m.QuestionMapping, &raw); err != nil {
		return nil, fmt.Errorf("decode question mapping: %w", err)
	}
	for k, v := range raw {
		kid, err := uuid.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("decode question mapping key %q: %w", k, err)
		}
		vid, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("decode question mapping value %q: %w", v, err)
		}
		out[kid] = vid
	}
	return out, nil
}

func (m *RemediationRunModel) SetMapping(mapping map[uuid.UUID]uuid.UUID) error {
	raw := make(map[string]string, len(mapping))
	for k, v := range mapping {
		raw[k.String()] = v.String()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	m.QuestionMapping = datatypes.JSON(b)
	return nil
}
