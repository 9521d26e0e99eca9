package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type GenerationJobRepo interface {
	GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.GenerationJob, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.GenerationJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	UpsertLatest(dbc dbctx.Context, conversationID uuid.UUID, updates map[string]interface{}) (*types.GenerationJob, error)
}

type generationJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationJobRepo(db *gorm.DB, baseLog *logger.Logger) GenerationJobRepo {
	return &generationJobRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationJobRepo"),
	}
}

// GetLatest returns the most recently updated row, or nil when none exists.
func (r *generationJobRepo) GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.GenerationJob, error) {
	if conversationID == uuid.Nil {
		return nil, nil
	}
	var job types.GenerationJob
	err := dbc.Resolve(r.db).
		Where("conversation_id = ?", conversationID).
		Order("updated_at DESC").
		Order("created_at DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

// ListByConversation returns up to limit rows, newest update first.
func (r *generationJobRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.GenerationJob, error) {
	var out []*types.GenerationJob
	if conversationID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := dbc.Resolve(r.db).
		Where("conversation_id = ?", conversationID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.GenerationJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generationJobRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := dbc.Resolve(r.db).
		Model(&types.GenerationJob{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("(status IS NULL OR status <> ?)", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("(status IS NULL OR status NOT IN ?)", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpsertLatest applies updates to the latest row for the conversation, or
// inserts a new row when none exists. The resulting row is returned.
func (r *generationJobRepo) UpsertLatest(dbc dbctx.Context, conversationID uuid.UUID, updates map[string]interface{}) (*types.GenerationJob, error) {
	if conversationID == uuid.Nil {
		return nil, nil
	}
	var out *types.GenerationJob
	err := dbc.Resolve(r.db).Transaction(func(txx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: txx}
		latest, err := r.GetLatest(inner, conversationID)
		if err != nil {
			return err
		}
		if latest == nil {
			if err := txx.Model(&types.GenerationJob{}).Create(mergeCreate(conversationID, updates)).Error; err != nil {
				return err
			}
		} else if err := r.UpdateFields(inner, latest.ID, updates); err != nil {
			return err
		}
		out, err = r.GetLatest(inner, conversationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeCreate(conversationID uuid.UUID, updates map[string]interface{}) map[string]interface{} {
	now := time.Now()
	row := map[string]interface{}{
		"id":              uuid.New(),
		"conversation_id": conversationID,
		"created_at":      now,
		"updated_at":      now,
	}
	for k, v := range updates {
		row[k] = v
	}
	return row
}
