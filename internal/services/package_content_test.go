package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
)

func newContentFixture(t *testing.T) (*testEnv, *recordingNotifier, ContentService) {
	t.Helper()
	env := newTestEnv(t)
	n := &recordingNotifier{}
	svc := NewContentService(env.db, testutil.Logger(t), env.packages, env.jobs, env.conversations, n)
	return env, n, svc
}

func writerPayload() map[string]any {
	return map[string]any{
		"title":         "Death at the Gala",
		"hostGuide":     "Welcome your guests.",
		"game_overview": "A curator is poisoned.",
		"evidenceCards": []any{"Torn glove", "Wine glass"},
		"characters": []any{
			map[string]any{
				"name":            "Lady Ash",
				"description":     "A patron",
				"round2Questions": "Where were you?",
				"access_token":    "writer-supplied",
			},
			map[string]any{
				"name":              "Mr. Pike",
				"round_2_questions": "Who saw you?",
				"finalGuilty":       "Confess.",
			},
		},
	}
}

func TestSaveFromWriterNormalizesAndIssuesTokens(t *testing.T) {
	env, n, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())

	pkg, err := svc.SaveFromWriter(context.Background(), conv.ID, writerPayload())
	require.NoError(t, err)
	assert.Equal(t, "Welcome your guests.", pkg.HostGuide)
	assert.Equal(t, "A curator is poisoned.", pkg.GameOverview)
	assert.Equal(t, "Torn glove\nWine glass", pkg.EvidenceCards)
	assert.NotEmpty(t, pkg.HostAccessToken)
	require.Len(t, pkg.Characters, 2)
	assert.Equal(t, "Where were you?", pkg.Characters[0].Round2Questions)
	assert.Equal(t, "Who saw you?", pkg.Characters[1].Round2Questions)
	assert.Equal(t, "Confess.", pkg.Characters[1].FinalGuilty)
	assert.NotEqual(t, "writer-supplied", pkg.Characters[0].AccessToken)
	assert.NotEmpty(t, pkg.Characters[0].AccessToken)
	assert.NotEqual(t, pkg.Characters[0].AccessToken, pkg.Characters[1].AccessToken)
	assert.Equal(t, 1, n.Count())
}

func TestSaveFromWriterCarriesTokensByName(t *testing.T) {
	env, _, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())
	ctx := context.Background()

	first, err := svc.SaveFromWriter(ctx, conv.ID, writerPayload())
	require.NoError(t, err)

	second, err := svc.SaveFromWriter(ctx, conv.ID, map[string]any{
		"title":      "Death at the Gala (revised)",
		"host_guide": "Welcome back.",
		"characters": []any{
			map[string]any{"name": "Mr. Pike"},
			map[string]any{"name": "Inspector Vale"},
			map[string]any{"name": "lady ash "},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.HostAccessToken, second.HostAccessToken)
	require.Len(t, second.Characters, 3)
	assert.Equal(t, first.Characters[1].AccessToken, second.Characters[0].AccessToken)
	assert.Equal(t, first.Characters[0].AccessToken, second.Characters[2].AccessToken)
	assert.NotEqual(t, first.Characters[0].AccessToken, second.Characters[1].AccessToken)
	assert.NotEqual(t, first.Characters[1].AccessToken, second.Characters[1].AccessToken)

	stored, err := env.packages.GetByConversationID(env.dbc(), conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Characters, 3)
	assert.Equal(t, "Inspector Vale", stored.Characters[1].Name)
}

func TestSaveFromWriterValidation(t *testing.T) {
	env, _, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())
	ctx := context.Background()

	_, err := svc.SaveFromWriter(ctx, conv.ID, map[string]any{})
	assert.ErrorIs(t, err, mystery.ErrInvalidArgument)

	_, err = svc.SaveFromWriter(ctx, conv.ID, map[string]any{"title": "x", "characters": "nope"})
	assert.ErrorIs(t, err, mystery.ErrInvalidArgument)

	_, err = svc.SaveFromWriter(ctx, uuid.New(), map[string]any{"title": "x"})
	assert.ErrorIs(t, err, mystery.ErrNotFound)
}

func TestApplyWriterStatus(t *testing.T) {
	env, n, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())
	ctx := context.Background()

	st, err := svc.ApplyWriterStatus(ctx, conv.ID, map[string]any{
		"status":      "in_progress",
		"progress":    45.0,
		"currentStep": "Writing characters",
		"sections":    map[string]any{"host_guide": true, "characters": false, "bogus": true},
	})
	require.NoError(t, err)
	assert.Equal(t, types.StateInProgress, st.Status)
	assert.Equal(t, 45, st.Progress)
	assert.Equal(t, "Writing characters", st.CurrentStep)
	assert.Equal(t, map[string]bool{jobs.SectionHostGuide: true, jobs.SectionCharacters: false}, st.Sections)
	assert.NotNil(t, env.latest(t, conv.ID).StartedAt)

	st, err = svc.ApplyWriterStatus(ctx, conv.ID, map[string]any{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, 100, st.Progress)
	assert.NotNil(t, env.latest(t, conv.ID).CompletedAt)

	st, err = svc.ApplyWriterStatus(ctx, conv.ID, map[string]any{"status": "in_progress", "progress": 10})
	require.NoError(t, err)
	assert.Equal(t, types.StateCompleted, st.Status, "late downgrade is ignored")
	assert.Equal(t, "completed", env.latest(t, conv.ID).Status)
	assert.Equal(t, 2, n.Count())
}

func TestApplyWriterStatusRejectsUnknownStatus(t *testing.T) {
	env, _, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())

	_, err := svc.ApplyWriterStatus(context.Background(), conv.ID, map[string]any{"status": "exploded"})
	assert.ErrorIs(t, err, mystery.ErrInvalidArgument)

	_, err = svc.ApplyWriterStatus(context.Background(), conv.ID, map[string]any{"unrelated": 1})
	assert.ErrorIs(t, err, mystery.ErrInvalidArgument)
	assert.Nil(t, env.latest(t, conv.ID))
}

func TestGetPackageForOwner(t *testing.T) {
	env, _, svc := newContentFixture(t)
	owner := uuid.New()
	conv := env.conversation(t, owner)

	_, err := svc.GetPackageForOwner(dbctx.Context{Ctx: ownerContext(owner)}, conv.ID)
	assert.ErrorIs(t, err, mystery.ErrNotFound, "no package yet")

	env.completePackage(t, conv.ID, 2)
	pkg, err := svc.GetPackageForOwner(dbctx.Context{Ctx: ownerContext(owner)}, conv.ID)
	require.NoError(t, err)
	assert.Len(t, pkg.Characters, 2)

	_, err = svc.GetPackageForOwner(dbctx.Context{Ctx: ownerContext(uuid.New())}, conv.ID)
	assert.ErrorIs(t, err, mystery.ErrNotFound)

	_, err = svc.GetPackageForOwner(dbctx.Context{Ctx: context.Background()}, conv.ID)
	assert.ErrorIs(t, err, mystery.ErrForbidden)
}

func TestCompletionHandlerMarksConversationPurchased(t *testing.T) {
	env := newTestEnv(t)
	conv := env.conversation(t, uuid.New())
	env.completePackage(t, conv.ID, 1)
	h := NewCompletionHandler(testutil.Logger(t), env.packages, env.conversations, nil)

	pkg, err := h.HandleFirstCompletion(context.Background(), conv.ID)
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Len(t, pkg.Characters, 1)

	got, err := env.conversations.GetByID(env.dbc(), conv.ID)
	require.NoError(t, err)
	assert.True(t, got.HasCompletePackage)
	assert.True(t, got.IsPaid)
	assert.False(t, got.NeedsPackageGeneration)
	assert.Equal(t, types.DisplayStatusPurchased, got.DisplayStatus)
}

func TestEndToEndDriftThroughWriterBoundary(t *testing.T) {
	env, _, svc := newContentFixture(t)
	conv := env.conversation(t, uuid.New())
	ctx := context.Background()
	testutil.SeedJob(t, ctx, env.db, conv.ID, "in_progress", 30, time.Now())

	_, err := svc.SaveFromWriter(ctx, conv.ID, writerPayload())
	require.NoError(t, err)

	r := NewStatusReconciler(testutil.Logger(t), env.jobs, env.packages, env.conversations, nil)
	st := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, jobs.CompletedStatus(), st)
}
