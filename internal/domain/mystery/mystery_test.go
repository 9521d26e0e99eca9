package mystery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterGuideJoinsNonEmptyFieldsInOrder(t *testing.T) {
	c := &Character{Description: "D", Background: "B", Secret: "S"}
	assert.Equal(t, "D\n\nB\n\nS", c.Guide())

	c = &Character{Description: "D", Background: "  ", Rumors: "R", FinalAccomplice: "FA"}
	assert.Equal(t, "D\n\nR\n\nFA", c.Guide())

	assert.Equal(t, "", (&Character{}).Guide())
}

func TestContentSignalsComplete(t *testing.T) {
	cases := []struct {
		name string
		pkg  *PackageContent
		want bool
	}{
		{"nil", nil, false},
		{"no characters", &PackageContent{Title: "T", HostGuide: "G"}, false},
		{"blank title", &PackageContent{Title: " ", HostGuide: "G", Characters: []Character{{Name: "a"}}}, false},
		{"no host guide", &PackageContent{Title: "T", Characters: []Character{{Name: "a"}}}, false},
		{"complete", &PackageContent{Title: "T", HostGuide: "G", Characters: []Character{{Name: "a"}}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pkg.Signals().Complete())
		})
	}
}

func TestErrorCodes(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeUpstream, "trigger", cause)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUpstream))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "trigger: boom (upstream)", err.Error())
	assert.Nil(t, Wrap(CodeInternal, "noop", nil))
	assert.Equal(t, ErrorCode(""), CodeOf(cause))

	nf := NewError(CodeNotFound, "package", "no package for conversation", nil)
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrForbidden)
}
