package domain

import (
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
)

type GenerationJob = jobs.GenerationJob
type GenerationState = jobs.GenerationState
type GenerationStatus = jobs.GenerationStatus

const (
	StateNotStarted = jobs.StateNotStarted
	StateInProgress = jobs.StateInProgress
	StateCompleted  = jobs.StateCompleted
	StateFailed     = jobs.StateFailed
)

type Conversation = mystery.Conversation
type ConversationFlags = mystery.ConversationFlags
type PackageContent = mystery.PackageContent
type Character = mystery.Character
type ContentSignals = mystery.ContentSignals

const (
	DisplayStatusDraft      = mystery.DisplayStatusDraft
	DisplayStatusGenerating = mystery.DisplayStatusGenerating
	DisplayStatusPurchased  = mystery.DisplayStatusPurchased
)

func PresentText(s string) bool { return mystery.Present(s) }

var (
	ErrInvalidArgument = mystery.ErrInvalidArgument
	ErrNotFound        = mystery.ErrNotFound
	ErrForbidden       = mystery.ErrForbidden
	ErrConflict        = mystery.ErrConflict
)

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&mystery.Conversation{},
		&mystery.PackageContent{},
		&mystery.Character{},
		&jobs.GenerationJob{},
	}
}
