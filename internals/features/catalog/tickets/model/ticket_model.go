package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketKind is the lifecycle state of a ticket.
type TicketKind string

const (
	TicketKindPermanent          TicketKind = "permanent"
	TicketKindTemporaryFor       TicketKind = "temporary_for"
	TicketKindTemporaryAggregate TicketKind = "temporary_aggregate"
)

func (k TicketKind) Valid() bool {
	switch k {
	case TicketKindPermanent, TicketKindTemporaryFor, TicketKindTemporaryAggregate:
		return true
	}
	return false
}

func (k TicketKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid ticket kind: %q", string(k))
	}
	return string(k), nil
}

func (k *TicketKind) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*k = TicketKind(v)
	case []byte:
		*k = TicketKind(string(v))
	case nil:
		*k = ""
	default:
		return fmt.Errorf("cannot scan %T into TicketKind", value)
	}
	return nil
}

var ErrInvalidTicketKind = errors.New("ticket kind and original ticket do not match")

// TicketModel is an exam unit: a themed set of questions.
//
// Temporary tickets are owned by a single user and removed once finished.
// temporary_for points at the ticket it mirrors; temporary_aggregate has no
// original and is backed by a remediation run.
type TicketModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ThemeID     *uuid.UUID `gorm:"type:uuid;index" json:"theme_id,omitempty"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	SortOrder   int        `gorm:"not null;default:0" json:"sort_order"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`

	Kind             TicketKind `gorm:"type:varchar(30);not null;index" json:"kind"`
	OriginalTicketID *uuid.UUID `gorm:"type:uuid;index" json:"original_ticket_id,omitempty"`
	OwnerUserID      *uuid.UUID `gorm:"type:uuid;index" json:"owner_user_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TicketModel) TableName() string {
	return "tickets"
}

// OrderBy is the canonical listing order for tickets.
const OrderBy = "sort_order ASC, created_at ASC"

func (m *TicketModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Kind == "" {
		m.Kind = TicketKindPermanent
	}
	return nil
}

func (m *TicketModel) BeforeSave(tx *gorm.DB) error {
	if m.Kind == "" {
		// partial updates through Model(&TicketModel{...}) carry no kind
		if m.OriginalTicketID == nil && m.OwnerUserID == nil {
			return nil
		}
		m.Kind = TicketKindPermanent
	}
	return m.ValidateKind()
}

// ValidateKind enforces the kind/original_ticket pairing.
func (m *TicketModel) ValidateKind() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTicketKind, string(m.Kind))
	}
	hasOriginal := m.OriginalTicketID != nil && *m.OriginalTicketID != uuid.Nil
	switch m.Kind {
	case TicketKindTemporaryFor:
		if !hasOriginal {
			return fmt.Errorf("%w: temporary_for requires an original ticket", ErrInvalidTicketKind)
		}
	default:
		if hasOriginal {
			return fmt.Errorf("%w: %s must not reference an original ticket", ErrInvalidTicketKind, m.Kind)
		}
	}
	if m.Kind != TicketKindPermanent && (m.OwnerUserID == nil || *m.OwnerUserID == uuid.Nil) {
		return fmt.Errorf("%w: temporary tickets need an owner", ErrInvalidTicketKind)
	}
	return nil
}

func (m *TicketModel) IsTemporary() bool {
	return m.Kind == TicketKindTemporaryFor || m.Kind == TicketKindTemporaryAggregate
}

// OriginalID returns the mirrored ticket for temporary_for tickets.
func (m *TicketModel) OriginalID() (uuid.UUID, bool) {
	if m.Kind != TicketKindTemporaryFor || m.OriginalTicketID == nil {
		return uuid.Nil, false
	}
	return *m.OriginalTicketID, true
}

// VisibleTo reports whether the user may open this ticket.
func (m *TicketModel) VisibleTo(userID uuid.UUID) bool {
	if !m.IsActive {
		return false
	}
	if !m.IsTemporary() {
		return true
	}
	return m.OwnerUserID != nil && *m.OwnerUserID == userID
}
