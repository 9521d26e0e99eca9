package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
	"github.com/yungbote/mysteryparty-backend/internal/platform/sendgrid"
)

//go:embed templates/*.html
var emailTemplateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(emailTemplateFS, "templates/*.html"))

const (
	EmailKindCharacterReady       = "character_ready"
	EmailKindHostReady            = "host_ready"
	EmailKindCharacterInvitations = "character_invitations"
)

type CharacterEmailInput struct {
	CharacterID    uuid.UUID `json:"characterId"`
	RecipientName  string    `json:"recipientName"`
	RecipientEmail string    `json:"recipientEmail"`
	Section        string    `json:"section,omitempty"`
}

type HostEmailInput struct {
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
}

type EmailResult struct {
	Kind      string `json:"kind"`
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type HostEmailResult struct {
	Success bool          `json:"success"`
	Results []EmailResult `json:"results"`
	// Error is the first delivery failure, if any.
	Error string `json:"error,omitempty"`
}

// EmailService sends the transactional "ready" emails for a finished package.
type EmailService interface {
	SendCharacterReady(dbc dbctx.Context, conversationID uuid.UUID, in CharacterEmailInput) (EmailResult, error)
	SendHostReady(dbc dbctx.Context, conversationID uuid.UUID, in HostEmailInput) (HostEmailResult, error)
}

type emailService struct {
	log           *logger.Logger
	mail          sendgrid.Client
	packages      repos.PackageContentRepo
	conversations repos.ConversationRepo
	links         LinkBuilder
	metrics       *observability.Metrics
}

func NewEmailService(
	baseLog *logger.Logger,
	mailClient sendgrid.Client,
	packageRepo repos.PackageContentRepo,
	conversationRepo repos.ConversationRepo,
	links LinkBuilder,
	metrics *observability.Metrics,
) EmailService {
	return &emailService{
		log:           baseLog.With("service", "EmailService"),
		mail:          mailClient,
		packages:      packageRepo,
		conversations: conversationRepo,
		links:         links,
		metrics:       metrics,
	}
}

func parseRecipient(op, name, email string) (sendgrid.EmailAddress, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return sendgrid.EmailAddress{}, mystery.NewError(mystery.CodeValidation, op, "recipient name is required", nil)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return sendgrid.EmailAddress{}, mystery.NewError(mystery.CodeValidation, op, "recipient email is invalid", nil)
	}
	return sendgrid.EmailAddress{Email: addr.Address, Name: name}, nil
}

// loadPackage returns the owner's package, which must already exist.
func (s *emailService) loadPackage(dbc dbctx.Context, op string, conversationID uuid.UUID) (*types.PackageContent, error) {
	if _, err := ownedConversation(dbc, s.conversations, conversationID); err != nil {
		return nil, err
	}
	pkg, err := s.packages.GetByConversationID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if pkg == nil || !pkg.Signals().Complete() {
		return nil, mystery.NewError(mystery.CodeConflict, op, "package is not ready", nil)
	}
	return pkg, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *emailService) send(ctx context.Context, kind string, conversationID uuid.UUID, req sendgrid.SendEmailRequest) (EmailResult, error) {
	req.Categories = append(req.Categories, kind)
	req.CustomArgs = map[string]string{"conversation_id": conversationID.String(), "kind": kind}
	ctx, span := observability.StartConversationSpan(ctx, "EmailService.Send", conversationID, observability.AttrEmailKind.String(kind))
	res, err := s.mail.Send(ctx, req)
	observability.EndSpan(span, err)
	s.metrics.IncEmail(kind, err == nil)
	if err != nil {
		s.log.Error("Email send failed", "kind", kind, "conversation_id", conversationID, "error", err)
		return EmailResult{Kind: kind, Error: err.Error()}, fmt.Errorf("send %s: %w", kind, err)
	}
	out := EmailResult{Kind: kind, Sent: true}
	if res != nil {
		out.MessageID = res.MessageID
	}
	s.log.Info("Email sent", "kind", kind, "conversation_id", conversationID, "message_id", out.MessageID)
	return out, nil
}

func (s *emailService) SendCharacterReady(dbc dbctx.Context, conversationID uuid.UUID, in CharacterEmailInput) (EmailResult, error) {
	const op = "email.character"
	to, err := parseRecipient(op, in.RecipientName, in.RecipientEmail)
	if err != nil {
		return EmailResult{}, err
	}
	pkg, err := s.loadPackage(dbc, op, conversationID)
	if err != nil {
		return EmailResult{}, err
	}
	char, err := s.packages.GetCharacter(dbc, pkg.ID, in.CharacterID)
	if err != nil {
		return EmailResult{}, fmt.Errorf("load character: %w", err)
	}
	if char == nil {
		return EmailResult{}, mystery.NewError(mystery.CodeNotFound, op, "character not found", nil)
	}
	if char.AccessToken == "" {
		return EmailResult{}, mystery.NewError(mystery.CodeConflict, op, "character has no access link", nil)
	}

	link := s.links.Character(char.AccessToken, in.Section)
	html, err := render("character_ready.html", map[string]any{
		"Title":         pkg.Title,
		"RecipientName": to.Name,
		"CharacterName": char.Name,
		"Description":   char.Description,
		"Link":          link,
	})
	if err != nil {
		return EmailResult{}, err
	}
	res, err := s.send(dbc.Ctx, EmailKindCharacterReady, conversationID, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{to},
		Subject: fmt.Sprintf("%s: your character, %s", pkg.Title, char.Name),
		Text:    fmt.Sprintf("Hello %s,\n\nYou are playing %s in %s.\nYour character guide: %s\n", to.Name, char.Name, pkg.Title, link),
		HTML:    html,
	})
	if err != nil {
		return res, mystery.NewError(mystery.CodeUpstream, op, "email delivery failed", err)
	}
	return res, nil
}

// SendHostReady sends the host guide email and the character invitations
// email concurrently and reports each result. Success requires both.
func (s *emailService) SendHostReady(dbc dbctx.Context, conversationID uuid.UUID, in HostEmailInput) (HostEmailResult, error) {
	const op = "email.host"
	to, err := parseRecipient(op, in.RecipientName, in.RecipientEmail)
	if err != nil {
		return HostEmailResult{}, err
	}
	pkg, err := s.loadPackage(dbc, op, conversationID)
	if err != nil {
		return HostEmailResult{}, err
	}
	if pkg.HostAccessToken == "" {
		return HostEmailResult{}, mystery.NewError(mystery.CodeConflict, op, "package has no host link", nil)
	}

	hostLink := s.links.Host(pkg.HostAccessToken)
	hostHTML, err := render("host_ready.html", map[string]any{
		"Title":         pkg.Title,
		"RecipientName": to.Name,
		"Link":          hostLink,
	})
	if err != nil {
		return HostEmailResult{}, err
	}

	type invite struct{ Name, Link string }
	invites := make([]invite, 0, len(pkg.Characters))
	var text strings.Builder
	for _, c := range pkg.Characters {
		if c.AccessToken == "" {
			continue
		}
		link := s.links.Character(c.AccessToken, "")
		invites = append(invites, invite{Name: c.Name, Link: link})
		fmt.Fprintf(&text, "%s: %s\n", c.Name, link)
	}
	inviteHTML, err := render("character_invitations.html", map[string]any{
		"Title":         pkg.Title,
		"RecipientName": to.Name,
		"Characters":    invites,
	})
	if err != nil {
		return HostEmailResult{}, err
	}

	results := make([]EmailResult, 2)
	// A plain Group: neither send cancels the other and each result is kept.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		results[0], err = s.send(dbc.Ctx, EmailKindHostReady, conversationID, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{to},
			Subject: fmt.Sprintf("%s: your host guide is ready", pkg.Title),
			Text:    fmt.Sprintf("Hello %s,\n\nYour host guide for %s: %s\n", to.Name, pkg.Title, hostLink),
			HTML:    hostHTML,
		})
		return err
	})
	g.Go(func() error {
		var err error
		results[1], err = s.send(dbc.Ctx, EmailKindCharacterInvitations, conversationID, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{to},
			Subject: fmt.Sprintf("%s: character links for your guests", pkg.Title),
			Text:    fmt.Sprintf("Hello %s,\n\nCharacter links for %s:\n%s", to.Name, pkg.Title, text.String()),
			HTML:    inviteHTML,
		})
		return err
	})

	out := HostEmailResult{Results: results}
	if err := g.Wait(); err != nil {
		out.Error = err.Error()
		s.log.Warn("Host emails partially delivered", "conversation_id", conversationID, "error", err)
		return out, nil
	}
	out.Success = true
	return out, nil
}
