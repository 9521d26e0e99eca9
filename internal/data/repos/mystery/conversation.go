package mystery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, conv *types.Conversation) (*types.Conversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	MarkPurchased(dbc dbctx.Context, id uuid.UUID) error
	MarkGenerating(dbc dbctx.Context, id uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{
		db:  db,
		log: baseLog.With("repo", "ConversationRepo"),
	}
}

func (r *conversationRepo) Create(dbc dbctx.Context, conv *types.Conversation) (*types.Conversation, error) {
	if conv == nil {
		return nil, nil
	}
	if err := dbc.Resolve(r.db).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var conv types.Conversation
	if err := dbc.Resolve(r.db).Where("id = ?", id).Limit(1).Find(&conv).Error; err != nil {
		return nil, err
	}
	if conv.ID == uuid.Nil {
		return nil, nil
	}
	return &conv, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.Resolve(r.db).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkPurchased sets the flags written when a package is first seen complete.
func (r *conversationRepo) MarkPurchased(dbc dbctx.Context, id uuid.UUID) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"has_complete_package":     true,
		"is_paid":                  true,
		"needs_package_generation": false,
		"display_status":           types.DisplayStatusPurchased,
	})
}

// MarkGenerating shows a conversation as generating. A purchased conversation
// keeps its display status.
func (r *conversationRepo) MarkGenerating(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Resolve(r.db).
		Model(&types.Conversation{}).
		Where("id = ? AND display_status <> ?", id, types.DisplayStatusPurchased).
		Updates(map[string]interface{}{
			"display_status": types.DisplayStatusGenerating,
			"updated_at":     time.Now(),
		}).Error
}
