package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// CompletionHandler runs the side effects of a watch first seeing a
// completed package.
type CompletionHandler interface {
	HandleFirstCompletion(ctx context.Context, conversationID uuid.UUID) (*types.PackageContent, error)
}

type completionHandler struct {
	log           *logger.Logger
	packages      repos.PackageContentRepo
	conversations repos.ConversationRepo
	metrics       *observability.Metrics
}

func NewCompletionHandler(
	baseLog *logger.Logger,
	packageRepo repos.PackageContentRepo,
	conversationRepo repos.ConversationRepo,
	metrics *observability.Metrics,
) CompletionHandler {
	return &completionHandler{
		log:           baseLog.With("service", "CompletionHandler"),
		packages:      packageRepo,
		conversations: conversationRepo,
		metrics:       metrics,
	}
}

func (h *completionHandler) HandleFirstCompletion(ctx context.Context, conversationID uuid.UUID) (*types.PackageContent, error) {
	dbc := dbctx.Context{Ctx: ctx}
	pkg, err := h.packages.GetByConversationID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if err := h.conversations.MarkPurchased(dbc, conversationID); err != nil {
		return nil, fmt.Errorf("mark purchased: %w", err)
	}
	h.metrics.IncFirstCompletion()
	h.log.Info("Package completed",
		"conversation_id", conversationID,
		"has_content", pkg != nil,
	)
	return pkg, nil
}
