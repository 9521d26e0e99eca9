package jobs

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GenerationJob tracks one content-generation attempt for a conversation. The
// row is written both by this service and by the external generation service,
// so any field may be missing or stale.
type GenerationJob struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Status         string         `gorm:"column:status;index" json:"status"`
	Progress       *int           `gorm:"column:progress" json:"progress,omitempty"`
	CurrentStep    string         `gorm:"column:current_step" json:"current_step,omitempty"`
	Sections       datatypes.JSON `gorm:"column:sections" json:"sections,omitempty"`
	Resumable      *bool          `gorm:"column:resumable" json:"resumable,omitempty"`
	StartedAt      *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (GenerationJob) TableName() string { return "generation_job" }

func (j *GenerationJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// State returns the parsed status and whether it was a recognized value.
func (j *GenerationJob) State() (GenerationState, bool) {
	if j == nil {
		return "", false
	}
	return ParseGenerationState(j.Status)
}

// SectionFlags decodes the stored sections, dropping null entries.
func (j *GenerationJob) SectionFlags() map[string]bool {
	if j == nil {
		return map[string]bool{}
	}
	return DecodeSections(j.Sections)
}

type GenerationState string

const (
	StateNotStarted GenerationState = "not_started"
	StateInProgress GenerationState = "in_progress"
	StateCompleted  GenerationState = "completed"
	StateFailed     GenerationState = "failed"
)

func ParseGenerationState(raw string) (GenerationState, bool) {
	switch s := GenerationState(strings.ToLower(strings.TrimSpace(raw))); s {
	case StateNotStarted, StateInProgress, StateCompleted, StateFailed:
		return s, true
	default:
		return "", false
	}
}

const (
	SectionHostGuide       = "hostGuide"
	SectionCharacters      = "characters"
	SectionClues           = "clues"
	SectionInspectorScript = "inspectorScript"
	SectionCharacterMatrix = "characterMatrix"
)

func SectionNames() []string {
	return []string{
		SectionHostGuide,
		SectionCharacters,
		SectionClues,
		SectionInspectorScript,
		SectionCharacterMatrix,
	}
}

func AllSectionsComplete() map[string]bool {
	out := make(map[string]bool, 5)
	for _, name := range SectionNames() {
		out[name] = true
	}
	return out
}

func DecodeSections(raw datatypes.JSON) map[string]bool {
	out := map[string]bool{}
	if len(raw) == 0 {
		return out
	}
	var decoded map[string]*bool
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return out
	}
	for k, v := range decoded {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func EncodeSections(sections map[string]bool) datatypes.JSON {
	if sections == nil {
		sections = map[string]bool{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}
