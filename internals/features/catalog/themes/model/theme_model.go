package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ThemeModel groups tickets by subject. Authored by staff.
type ThemeModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ThemeModel) TableName() string {
	return "themes"
}

func (m *ThemeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// OrderBy is the canonical listing order for themes.
const OrderBy = "sort_order ASC, created_at ASC"
