package sendgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMailSend(t *testing.T) {
	cfg := Config{DefaultFromEmail: " party@example.com ", DefaultFromName: "Mystery Party", SandboxMode: true}
	wire, err := buildMailSend(SendEmailRequest{
		To:         []EmailAddress{{Email: " guest@example.com ", Name: "Guest"}, {Email: "  "}},
		Subject:    "  Your dossier  ",
		Text:       "plain",
		HTML:       "<p>rich</p>",
		CustomArgs: map[string]string{"conversation_id": "abc"},
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, EmailAddress{Email: "party@example.com", Name: "Mystery Party"}, wire.From)
	require.Len(t, wire.Personalizations, 1)
	assert.Equal(t, []EmailAddress{{Email: "guest@example.com", Name: "Guest"}}, wire.Personalizations[0].To)
	assert.Equal(t, "abc", wire.Personalizations[0].CustomArgs["conversation_id"])
	assert.Equal(t, "Your dossier", wire.Subject)
	require.Len(t, wire.Content, 2)
	assert.Equal(t, "text/plain", wire.Content[0].Type)
	require.NotNil(t, wire.MailSettings)
	assert.True(t, wire.MailSettings.SandboxMode.Enable)
}

func TestBuildMailSendRejects(t *testing.T) {
	base := SendEmailRequest{To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", Text: "t"}
	cfg := Config{DefaultFromEmail: "a@b.c"}

	cases := []struct {
		name string
		req  SendEmailRequest
		cfg  Config
		want error
	}{
		{"no_sender", base, Config{}, errNoSender},
		{"no_recipients", SendEmailRequest{Subject: "s", Text: "t"}, cfg, errNoTo},
		{"no_subject", SendEmailRequest{To: base.To, Text: "t"}, cfg, errNoSubject},
		{"no_content", SendEmailRequest{To: base.To, Subject: "s"}, cfg, errNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildMailSend(tc.req, tc.cfg)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	wire, err := buildMailSend(base, cfg)
	require.NoError(t, err)
	assert.Nil(t, wire.MailSettings)
}
