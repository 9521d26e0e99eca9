package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/platform/ctxutil"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

const (
	MinPlayers = 2
	MaxPlayers = 40

	ScriptTypeFull     = "full"
	ScriptTypePointers = "pointers"
)

type CreateConversationInput struct {
	Theme             string `json:"theme"`
	PlayerCount       int    `json:"player_count"`
	ScriptType        string `json:"script_type"`
	HasAccomplice     bool   `json:"has_accomplice"`
	AdditionalDetails string `json:"additional_details"`
}

type ConversationService interface {
	Create(dbc dbctx.Context, in CreateConversationInput) (*types.Conversation, error)
	GetForOwner(dbc dbctx.Context, conversationID uuid.UUID) (*types.Conversation, error)
}

type conversationService struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
}

func NewConversationService(baseLog *logger.Logger, conversationRepo repos.ConversationRepo) ConversationService {
	return &conversationService{
		log:           baseLog.With("service", "ConversationService"),
		conversations: conversationRepo,
	}
}

func (s *conversationService) Create(dbc dbctx.Context, in CreateConversationInput) (*types.Conversation, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, mystery.NewError(mystery.CodeForbidden, "conversation.create", "not signed in", nil)
	}
	if err := validateConversationInput(&in); err != nil {
		return nil, err
	}
	conv, err := s.conversations.Create(dbc, &types.Conversation{
		UserID:                 rd.UserID,
		Theme:                  in.Theme,
		PlayerCount:            in.PlayerCount,
		ScriptType:             in.ScriptType,
		HasAccomplice:          in.HasAccomplice,
		AdditionalDetails:      in.AdditionalDetails,
		NeedsPackageGeneration: true,
		DisplayStatus:          types.DisplayStatusDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.log.Info("Mystery created", "conversation_id", conv.ID, "user_id", rd.UserID, "players", conv.PlayerCount)
	return conv, nil
}

func validateConversationInput(in *CreateConversationInput) error {
	in.Theme = strings.TrimSpace(in.Theme)
	in.ScriptType = strings.ToLower(strings.TrimSpace(in.ScriptType))
	in.AdditionalDetails = strings.TrimSpace(in.AdditionalDetails)

	const op = "conversation.create"
	if in.Theme == "" {
		return mystery.NewError(mystery.CodeValidation, op, "theme is required", nil)
	}
	if in.PlayerCount < MinPlayers || in.PlayerCount > MaxPlayers {
		return mystery.NewError(mystery.CodeValidation, op,
			fmt.Sprintf("player count must be between %d and %d", MinPlayers, MaxPlayers), nil)
	}
	if in.ScriptType == "" {
		in.ScriptType = ScriptTypeFull
	}
	if in.ScriptType != ScriptTypeFull && in.ScriptType != ScriptTypePointers {
		return mystery.NewError(mystery.CodeValidation, op, "script type must be full or pointers", nil)
	}
	return nil
}

func (s *conversationService) GetForOwner(dbc dbctx.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	return ownedConversation(dbc, s.conversations, conversationID)
}

// ownedConversation loads a conversation owned by the signed-in caller. A
// conversation owned by someone else is reported as not found.
func ownedConversation(dbc dbctx.Context, conversations repos.ConversationRepo, conversationID uuid.UUID) (*types.Conversation, error) {
	const op = "conversation.get"
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, mystery.NewError(mystery.CodeForbidden, op, "not signed in", nil)
	}
	conv, err := conversations.GetByID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil || conv.UserID != rd.UserID {
		return nil, mystery.NewError(mystery.CodeNotFound, op, "mystery not found", nil)
	}
	return conv, nil
}
