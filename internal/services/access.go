package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type CharacterDossier struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Background   string    `json:"background"`
	Secret       string    `json:"secret"`
	Introduction string    `json:"introduction"`
	Rumors       string    `json:"rumors"`
	Guide        string    `json:"guide"`
}

type HostCharacter struct {
	CharacterDossier
	Link string `json:"link"`
}

// HostView is everything the host token unlocks.
type HostView struct {
	ConversationID          uuid.UUID       `json:"conversation_id"`
	Title                   string          `json:"title"`
	GameOverview            string          `json:"game_overview"`
	HostGuide               string          `json:"host_guide"`
	Materials               string          `json:"materials"`
	PreparationInstructions string          `json:"preparation_instructions"`
	Timeline                string          `json:"timeline"`
	HostingTips             string          `json:"hosting_tips"`
	EvidenceCards           string          `json:"evidence_cards"`
	RelationshipMatrix      string          `json:"relationship_matrix"`
	DetectiveScript         string          `json:"detective_script"`
	Characters              []HostCharacter `json:"characters"`
}

// CharacterView is the single dossier a character token unlocks.
type CharacterView struct {
	Title        string           `json:"title"`
	GameOverview string           `json:"game_overview"`
	Character    CharacterDossier `json:"character"`
}

type AccessService interface {
	HostView(dbc dbctx.Context, token string) (*HostView, error)
	CharacterView(dbc dbctx.Context, token string) (*CharacterView, error)
}

type accessService struct {
	log      *logger.Logger
	packages repos.PackageContentRepo
	links    LinkBuilder
}

func NewAccessService(baseLog *logger.Logger, packageRepo repos.PackageContentRepo, links LinkBuilder) AccessService {
	return &accessService{
		log:      baseLog.With("service", "AccessService"),
		packages: packageRepo,
		links:    links,
	}
}

func dossier(c *types.Character) CharacterDossier {
	return CharacterDossier{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Background:   c.Background,
		Secret:       c.Secret,
		Introduction: c.Introduction,
		Rumors:       c.Rumors,
		Guide:        c.Guide(),
	}
}

func accessNotFound(op string) error {
	return mystery.NewError(mystery.CodeNotFound, op, "invalid or expired link", nil)
}

func (s *accessService) HostView(dbc dbctx.Context, token string) (*HostView, error) {
	const op = "access.host"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, accessNotFound(op)
	}
	pkg, err := s.packages.GetByHostToken(dbc, token)
	if err != nil {
		return nil, fmt.Errorf("host lookup: %w", err)
	}
	if pkg == nil {
		return nil, accessNotFound(op)
	}
	view := &HostView{
		ConversationID:          pkg.ConversationID,
		Title:                   pkg.Title,
		GameOverview:            pkg.GameOverview,
		HostGuide:               pkg.HostGuide,
		Materials:               pkg.Materials,
		PreparationInstructions: pkg.PreparationInstructions,
		Timeline:                pkg.Timeline,
		HostingTips:             pkg.HostingTips,
		EvidenceCards:           pkg.EvidenceCards,
		RelationshipMatrix:      pkg.RelationshipMatrix,
		DetectiveScript:         pkg.DetectiveScript,
		Characters:              make([]HostCharacter, 0, len(pkg.Characters)),
	}
	for i := range pkg.Characters {
		c := &pkg.Characters[i]
		hc := HostCharacter{CharacterDossier: dossier(c)}
		if c.AccessToken != "" {
			hc.Link = s.links.Character(c.AccessToken, "")
		}
		view.Characters = append(view.Characters, hc)
	}
	return view, nil
}

func (s *accessService) CharacterView(dbc dbctx.Context, token string) (*CharacterView, error) {
	const op = "access.character"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, accessNotFound(op)
	}
	char, pkg, err := s.packages.GetCharacterByToken(dbc, token)
	if err != nil {
		return nil, fmt.Errorf("character lookup: %w", err)
	}
	if char == nil || pkg == nil {
		return nil, accessNotFound(op)
	}
	return &CharacterView{
		Title:        pkg.Title,
		GameOverview: pkg.GameOverview,
		Character:    dossier(char),
	}, nil
}
