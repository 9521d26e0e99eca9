package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos/testutil"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
)

func TestAccessViews(t *testing.T) {
	env := newTestEnv(t)
	conv := env.conversation(t, uuid.New())
	pkg := env.completePackage(t, conv.ID, 2)
	svc := NewAccessService(testutil.Logger(t), env.packages, NewLinkBuilder("https://party.example.com"))

	host, err := svc.HostView(env.dbc(), pkg.HostAccessToken)
	require.NoError(t, err)
	assert.Equal(t, pkg.Title, host.Title)
	assert.Equal(t, pkg.HostGuide, host.HostGuide)
	require.Len(t, host.Characters, 2)
	assert.Equal(t, "https://party.example.com/character/"+pkg.Characters[0].AccessToken, host.Characters[0].Link)
	assert.Equal(t, pkg.Characters[0].Guide(), host.Characters[0].Guide)

	ch, err := svc.CharacterView(env.dbc(), pkg.Characters[1].AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pkg.Title, ch.Title)
	assert.Equal(t, pkg.Characters[1].Name, ch.Character.Name)
	assert.Equal(t, "Description 2\n\nBackground\n\nSecret", ch.Character.Guide)

	// A host token does not open a character dossier and vice versa.
	_, err = svc.CharacterView(env.dbc(), pkg.HostAccessToken)
	assert.ErrorIs(t, err, mystery.ErrNotFound)
	_, err = svc.HostView(env.dbc(), pkg.Characters[0].AccessToken)
	assert.ErrorIs(t, err, mystery.ErrNotFound)
	_, err = svc.HostView(env.dbc(), "  ")
	assert.ErrorIs(t, err, mystery.ErrNotFound)
}

func TestLinkBuilder(t *testing.T) {
	b := NewLinkBuilder(" https://party.example.com/ ")
	assert.Equal(t, "https://party.example.com/host/abc", b.Host("abc"))
	assert.Equal(t, "https://party.example.com/character/abc#final-round", b.Character("abc", "final-round"))
	assert.Equal(t, "https://party.example.com/character/abc", b.Character("abc", " "))
}

func TestNewAccessTokenIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := NewAccessToken()
		require.NoError(t, err)
		assert.Len(t, tok, 32)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}
