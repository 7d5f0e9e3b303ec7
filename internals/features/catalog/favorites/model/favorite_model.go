package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetKind string

const (
	TargetTheme  TargetKind = "theme"
	TargetTicket TargetKind = "ticket"
)

func (k TargetKind) Valid() bool {
	return k == TargetTheme || k == TargetTicket
}

func (k TargetKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid favorite target kind: %q", string(k))
	}
	return string(k), nil
}

func (k *TargetKind) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*k = TargetKind(v)
	case []byte:
		*k = TargetKind(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TargetKind", value)
	}
	return nil
}

// Target is a bookmark destination: a theme or a ticket.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

func ThemeTarget(id uuid.UUID) Target  { return Target{Kind: TargetTheme, ID: id} }
func TicketTarget(id uuid.UUID) Target { return Target{Kind: TargetTicket, ID: id} }

// ParseTarget builds a Target from a raw kind; unknown kinds come back with
// ok=false.
func ParseTarget(kind string, id uuid.UUID) (Target, bool) {
	switch TargetKind(strings.ToLower(strings.TrimSpace(kind))) {
	case TargetTheme:
		return ThemeTarget(id), true
	case TargetTicket:
		return TicketTarget(id), true
	}
	return Target{Kind: TargetKind(kind), ID: id}, false
}

type FavoriteModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_favorites_user_target" json:"user_id"`
	TargetKind TargetKind `gorm:"type:varchar(20);not null;uniqueIndex:uq_favorites_user_target" json:"target_kind"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_favorites_user_target" json:"target_id"`
	AddedAt    time.Time  `gorm:"not null;index" json:"added_at"`
}

func (FavoriteModel) TableName() string {
	return "favorites"
}

func (m *FavoriteModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now()
	}
	return nil
}

func (m *FavoriteModel) Target() Target {
	return Target{Kind: m.TargetKind, ID: m.TargetID}
}
