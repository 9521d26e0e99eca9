package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
)

func TestConversationCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		in   CreateConversationInput
		ok   bool
	}{
		{name: "valid", in: CreateConversationInput{Theme: "Noir", PlayerCount: 8, ScriptType: "Full"}, ok: true},
		{name: "default script", in: CreateConversationInput{Theme: "Noir", PlayerCount: 2}, ok: true},
		{name: "blank theme", in: CreateConversationInput{Theme: "  ", PlayerCount: 8}},
		{name: "too few", in: CreateConversationInput{Theme: "Noir", PlayerCount: 1}},
		{name: "too many", in: CreateConversationInput{Theme: "Noir", PlayerCount: 41}},
		{name: "bad script", in: CreateConversationInput{Theme: "Noir", PlayerCount: 8, ScriptType: "haiku"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewConversationService(testutil.Logger(t), env.conversations)
			conv, err := svc.Create(dbctx.Context{Ctx: ownerContext(uuid.New())}, tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, mystery.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.True(t, conv.NeedsPackageGeneration)
			assert.Equal(t, types.DisplayStatusDraft, conv.DisplayStatus)
			assert.Contains(t, []string{ScriptTypeFull, ScriptTypePointers}, conv.ScriptType)
		})
	}
}

func TestConversationOwnership(t *testing.T) {
	env := newTestEnv(t)
	svc := NewConversationService(testutil.Logger(t), env.conversations)
	owner := uuid.New()

	_, err := svc.Create(dbctx.Context{Ctx: context.Background()}, CreateConversationInput{Theme: "Noir", PlayerCount: 4})
	assert.ErrorIs(t, err, mystery.ErrForbidden)

	conv, err := svc.Create(dbctx.Context{Ctx: ownerContext(owner)}, CreateConversationInput{Theme: "Noir", PlayerCount: 4})
	require.NoError(t, err)

	got, err := svc.GetForOwner(dbctx.Context{Ctx: ownerContext(owner)}, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = svc.GetForOwner(dbctx.Context{Ctx: ownerContext(uuid.New())}, conv.ID)
	assert.ErrorIs(t, err, mystery.ErrNotFound)
	_, err = svc.GetForOwner(dbctx.Context{Ctx: ownerContext(owner)}, uuid.New())
	assert.ErrorIs(t, err, mystery.ErrNotFound)
}
