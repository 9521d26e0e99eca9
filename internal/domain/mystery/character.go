package mystery

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Character struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID    uuid.UUID `gorm:"type:uuid;not null;index" json:"package_id"`
	Position     int       `gorm:"column:position;not null" json:"position"`
	AccessToken  string    `gorm:"column:access_token;index" json:"access_token,omitempty"`
	Name         string    `gorm:"column:name" json:"name"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	Background   string    `gorm:"column:background;type:text" json:"background"`
	Secret       string    `gorm:"column:secret;type:text" json:"secret"`
	Introduction string    `gorm:"column:introduction;type:text" json:"introduction"`
	Rumors       string    `gorm:"column:rumors;type:text" json:"rumors"`

	Round2Questions  string `gorm:"column:round2_questions;type:text" json:"round2_questions"`
	Round2Innocent   string `gorm:"column:round2_innocent;type:text" json:"round2_innocent"`
	Round2Guilty     string `gorm:"column:round2_guilty;type:text" json:"round2_guilty"`
	Round2Accomplice string `gorm:"column:round2_accomplice;type:text" json:"round2_accomplice"`

	Round3Questions  string `gorm:"column:round3_questions;type:text" json:"round3_questions"`
	Round3Innocent   string `gorm:"column:round3_innocent;type:text" json:"round3_innocent"`
	Round3Guilty     string `gorm:"column:round3_guilty;type:text" json:"round3_guilty"`
	Round3Accomplice string `gorm:"column:round3_accomplice;type:text" json:"round3_accomplice"`

	Round4Questions  string `gorm:"column:round4_questions;type:text" json:"round4_questions"`
	Round4Innocent   string `gorm:"column:round4_innocent;type:text" json:"round4_innocent"`
	Round4Guilty     string `gorm:"column:round4_guilty;type:text" json:"round4_guilty"`
	Round4Accomplice string `gorm:"column:round4_accomplice;type:text" json:"round4_accomplice"`

	FinalQuestions  string `gorm:"column:final_questions;type:text" json:"final_questions"`
	FinalInnocent   string `gorm:"column:final_innocent;type:text" json:"final_innocent"`
	FinalGuilty     string `gorm:"column:final_guilty;type:text" json:"final_guilty"`
	FinalAccomplice string `gorm:"column:final_accomplice;type:text" json:"final_accomplice"`
}

func (Character) TableName() string { return "mystery_character" }

func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GuideFields returns the guide parts in reading order.
func (c *Character) GuideFields() []string {
	return []string{
		c.Description,
		c.Background,
		c.Secret,
		c.Introduction,
		c.Rumors,
		c.Round2Questions, c.Round2Innocent, c.Round2Guilty, c.Round2Accomplice,
		c.Round3Questions, c.Round3Innocent, c.Round3Guilty, c.Round3Accomplice,
		c.Round4Questions, c.Round4Innocent, c.Round4Guilty, c.Round4Accomplice,
		c.FinalQuestions, c.FinalInnocent, c.FinalGuilty, c.FinalAccomplice,
	}
}

// Guide joins the non-empty guide fields with a blank line. No headings are
// inserted.
func (c *Character) Guide() string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, 8)
	for _, f := range c.GuideFields() {
		if Present(f) {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "\n\n")
}
