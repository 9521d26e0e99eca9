package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"gorm.io/gorm"
)

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:                     uuid.New(),
		UserID:                 userID,
		Theme:                  "1920s speakeasy",
		PlayerCount:            6,
		ScriptType:             "full",
		NeedsPackageGeneration: true,
		DisplayStatus:          types.DisplayStatusDraft,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, status string, progress int, updatedAt time.Time) *types.GenerationJob {
	tb.Helper()
	p := progress
	j := &types.GenerationJob{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Status:         status,
		Progress:       &p,
		CurrentStep:    "seeded",
		Sections:       jobs.EncodeSections(nil),
		CreatedAt:      updatedAt,
		UpdatedAt:      updatedAt,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed generation job: %v", err)
	}
	return j
}

// CompletePackage builds an unsaved package that satisfies content completeness.
func CompletePackage(conversationID uuid.UUID, characters int) *types.PackageContent {
	pkg := &types.PackageContent{
		ConversationID: conversationID,
		Title:          "Murder at the Blue Parrot",
		GameOverview:   "A jazz singer is found dead.",
		HostGuide:      "Read the opening aloud.",
	}
	for i := 0; i < characters; i++ {
		pkg.Characters = append(pkg.Characters, types.Character{
			Name:        fmt.Sprintf("Suspect %d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
			Background:  "Background",
			Secret:      "Secret",
		})
	}
	return pkg
}
