package mystery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DisplayStatusDraft      = "draft"
	DisplayStatusGenerating = "generating"
	DisplayStatusPurchased  = "purchased"
)

// Conversation is the parent record a package is generated for. The flag
// columns are advisory: they are written by several parties and only ever
// used as completion hints.
type Conversation struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Theme                  string    `gorm:"column:theme" json:"theme"`
	PlayerCount            int       `gorm:"column:player_count" json:"player_count"`
	ScriptType             string    `gorm:"column:script_type" json:"script_type"`
	HasAccomplice          bool      `gorm:"column:has_accomplice" json:"has_accomplice"`
	AdditionalDetails      string    `gorm:"column:additional_details;type:text" json:"additional_details,omitempty"`
	NeedsPackageGeneration bool      `gorm:"column:needs_package_generation" json:"needs_package_generation"`
	HasCompletePackage     bool      `gorm:"column:has_complete_package" json:"has_complete_package"`
	IsPaid                 bool      `gorm:"column:is_paid" json:"is_paid"`
	DisplayStatus          string    `gorm:"column:display_status" json:"display_status"`
	CreatedAt              time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt              time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Conversation) TableName() string { return "mystery_conversation" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.DisplayStatus == "" {
		c.DisplayStatus = DisplayStatusDraft
	}
	return nil
}

// ConversationFlags is the subset of Conversation the status reconciler reads.
type ConversationFlags struct {
	NeedsPackageGeneration bool
	HasCompletePackage     bool
	IsPaid                 bool
	DisplayStatus          string
}

func (c *Conversation) Flags() ConversationFlags {
	if c == nil {
		return ConversationFlags{}
	}
	return ConversationFlags{
		NeedsPackageGeneration: c.NeedsPackageGeneration,
		HasCompletePackage:     c.HasCompletePackage,
		IsPaid:                 c.IsPaid,
		DisplayStatus:          c.DisplayStatus,
	}
}
