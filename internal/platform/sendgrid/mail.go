package sendgrid

import (
	"errors"
	"strings"
)

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendEmailRequest is one message to one or more recipients. From falls back
// to the configured default sender.
type SendEmailRequest struct {
	From       EmailAddress
	ReplyTo    *EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
	CustomArgs map[string]string
}

var (
	errNoSender  = errors.New("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	errNoTo      = errors.New("sendgrid: To required")
	errNoSubject = errors.New("sendgrid: Subject required")
	errNoContent = errors.New("sendgrid: Text or HTML content required")
)

// v3 mail-send wire types.
type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject,omitempty"`
	Content          []mailContent     `json:"content,omitempty"`
	Categories       []string          `json:"categories,omitempty"`
	MailSettings     *mailSettings     `json:"mail_settings,omitempty"`
}

type personalization struct {
	To         []EmailAddress    `json:"to"`
	CustomArgs map[string]string `json:"custom_args,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSettings struct {
	SandboxMode toggle `json:"sandbox_mode"`
}

type toggle struct {
	Enable bool `json:"enable"`
}

func trimAddress(a EmailAddress) EmailAddress {
	return EmailAddress{Email: strings.TrimSpace(a.Email), Name: strings.TrimSpace(a.Name)}
}

func buildMailSend(req SendEmailRequest, cfg Config) (*mailSendRequest, error) {
	from := trimAddress(req.From)
	if from.Email == "" {
		def := trimAddress(EmailAddress{Email: cfg.DefaultFromEmail, Name: cfg.DefaultFromName})
		from.Email = def.Email
		if from.Name == "" {
			from.Name = def.Name
		}
	}
	if from.Email == "" {
		return nil, errNoSender
	}

	to := make([]EmailAddress, 0, len(req.To))
	for _, a := range req.To {
		if a = trimAddress(a); a.Email != "" {
			to = append(to, a)
		}
	}
	if len(to) == 0 {
		return nil, errNoTo
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, errNoSubject
	}

	var contents []mailContent
	if t := strings.TrimSpace(req.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(req.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return nil, errNoContent
	}

	out := &mailSendRequest{
		Personalizations: []personalization{{To: to, CustomArgs: req.CustomArgs}},
		From:             from,
		Subject:          subject,
		Content:          contents,
		Categories:       req.Categories,
	}
	if req.ReplyTo != nil {
		rt := trimAddress(*req.ReplyTo)
		out.ReplyTo = &rt
	}
	if cfg.SandboxMode {
		out.MailSettings = &mailSettings{SandboxMode: toggle{Enable: true}}
	}
	return out, nil
}
