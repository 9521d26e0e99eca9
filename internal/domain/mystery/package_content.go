package mystery

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PackageContent is the stored output of a generation run.
type PackageContent struct {
	ID                      uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"conversation_id"`
	Title                   string      `gorm:"column:title" json:"title"`
	GameOverview            string      `gorm:"column:game_overview;type:text" json:"game_overview"`
	HostGuide               string      `gorm:"column:host_guide;type:text" json:"host_guide"`
	Materials               string      `gorm:"column:materials;type:text" json:"materials"`
	PreparationInstructions string      `gorm:"column:preparation_instructions;type:text" json:"preparation_instructions"`
	Timeline                string      `gorm:"column:timeline;type:text" json:"timeline"`
	HostingTips             string      `gorm:"column:hosting_tips;type:text" json:"hosting_tips"`
	EvidenceCards           string      `gorm:"column:evidence_cards;type:text" json:"evidence_cards"`
	RelationshipMatrix      string      `gorm:"column:relationship_matrix;type:text" json:"relationship_matrix"`
	DetectiveScript         string      `gorm:"column:detective_script;type:text" json:"detective_script"`
	HostAccessToken         string      `gorm:"column:host_access_token;index" json:"host_access_token,omitempty"`
	Characters              []Character `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"characters"`
	CreatedAt               time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time   `gorm:"not null" json:"updated_at"`
}

func (PackageContent) TableName() string { return "mystery_package" }

func (p *PackageContent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ContentSignals is the minimal view of stored content needed to decide
// whether a package is complete.
type ContentSignals struct {
	HasTitle       bool
	HasHostGuide   bool
	CharacterCount int
}

// Complete requires a title, a host guide and at least one character.
func (s ContentSignals) Complete() bool {
	return s.HasTitle && s.HasHostGuide && s.CharacterCount > 0
}

func (p *PackageContent) Signals() ContentSignals {
	if p == nil {
		return ContentSignals{}
	}
	return ContentSignals{
		HasTitle:       Present(p.Title),
		HasHostGuide:   Present(p.HostGuide),
		CharacterCount: len(p.Characters),
	}
}

// Present treats whitespace-only strings as absent.
func Present(s string) bool {
	return strings.TrimSpace(s) != ""
}
