package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// ContentService is the write boundary for the external generation writer
// and the owner read path for finished packages.
type ContentService interface {
	SaveFromWriter(ctx context.Context, conversationID uuid.UUID, raw map[string]any) (*types.PackageContent, error)
	ApplyWriterStatus(ctx context.Context, conversationID uuid.UUID, raw map[string]any) (types.GenerationStatus, error)
	GetPackageForOwner(dbc dbctx.Context, conversationID uuid.UUID) (*types.PackageContent, error)
}

type contentService struct {
	db            *gorm.DB
	log           *logger.Logger
	packages      repos.PackageContentRepo
	jobs          repos.GenerationJobRepo
	conversations repos.ConversationRepo
	notifier      ChangeNotifier
	now           func() time.Time
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	packageRepo repos.PackageContentRepo,
	jobRepo repos.GenerationJobRepo,
	conversationRepo repos.ConversationRepo,
	notifier ChangeNotifier,
) ContentService {
	return &contentService{
		db:            db,
		log:           baseLog.With("service", "ContentService"),
		packages:      packageRepo,
		jobs:          jobRepo,
		conversations: conversationRepo,
		notifier:      notifier,
		now:           time.Now,
	}
}

// decodePackage turns a normalized writer payload into an unsaved package.
// Identity and token fields are never taken from the writer.
func decodePackage(raw map[string]any) (*types.PackageContent, error) {
	norm, _ := normalizeKeys(raw).(map[string]any)
	if len(norm) == 0 {
		return nil, mystery.NewError(mystery.CodeValidation, "package.decode", "empty package", nil)
	}
	var chars []any
	if v, ok := norm["characters"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return nil, mystery.NewError(mystery.CodeValidation, "package.decode", "characters must be a list", nil)
		}
		for _, item := range list {
			cm, ok := item.(map[string]any)
			if !ok {
				return nil, mystery.NewError(mystery.CodeValidation, "package.decode", "character must be an object", nil)
			}
			dropWriterIdentity(cm)
			coerceTextFields(cm)
			chars = append(chars, cm)
		}
	}
	dropWriterIdentity(norm)
	coerceTextFields(norm, "characters")
	norm["characters"] = chars

	b, err := json.Marshal(norm)
	if err != nil {
		return nil, mystery.Wrap(mystery.CodeValidation, "package.decode", err)
	}
	var pkg types.PackageContent
	if err := json.Unmarshal(b, &pkg); err != nil {
		return nil, mystery.Wrap(mystery.CodeValidation, "package.decode", err)
	}
	for i := range pkg.Characters {
		pkg.Characters[i].Position = i
	}
	return &pkg, nil
}

var writerIdentityKeys = []string{
	"id", "conversation_id", "package_id", "position",
	"access_token", "host_access_token", "created_at", "updated_at",
}

func dropWriterIdentity(m map[string]any) {
	for _, k := range writerIdentityKeys {
		delete(m, k)
	}
}

func characterKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *contentService) SaveFromWriter(ctx context.Context, conversationID uuid.UUID, raw map[string]any) (*types.PackageContent, error) {
	ctx, span := observability.StartConversationSpan(ctx, "ContentService.SaveFromWriter", conversationID)
	pkg, err := s.saveFromWriter(ctx, conversationID, raw)
	observability.EndSpan(span, err)
	return pkg, err
}

func (s *contentService) saveFromWriter(ctx context.Context, conversationID uuid.UUID, raw map[string]any) (*types.PackageContent, error) {
	pkg, err := decodePackage(raw)
	if err != nil {
		return nil, err
	}
	pkg.ConversationID = conversationID

	var saved *types.PackageContent
	err = s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}
		conv, err := s.conversations.GetByID(dbc, conversationID)
		if err != nil {
			return err
		}
		if conv == nil {
			return mystery.NewError(mystery.CodeNotFound, "package.save", "mystery not found", nil)
		}

		existing, err := s.packages.GetByConversationID(dbc, conversationID)
		if err != nil {
			return err
		}
		carried := map[string]string{}
		if existing != nil {
			pkg.HostAccessToken = existing.HostAccessToken
			for _, c := range existing.Characters {
				key := characterKey(c.Name)
				if key == "" || c.AccessToken == "" {
					continue
				}
				if _, dup := carried[key]; !dup {
					carried[key] = c.AccessToken
				}
			}
		}
		if pkg.HostAccessToken == "" {
			if pkg.HostAccessToken, err = NewAccessToken(); err != nil {
				return err
			}
		}
		for i := range pkg.Characters {
			key := characterKey(pkg.Characters[i].Name)
			if tok, ok := carried[key]; ok && key != "" {
				pkg.Characters[i].AccessToken = tok
				delete(carried, key)
				continue
			}
			if pkg.Characters[i].AccessToken, err = NewAccessToken(); err != nil {
				return err
			}
		}

		saved, err = s.packages.Save(dbc, pkg)
		return err
	})
	if err != nil {
		if mystery.CodeOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("save package: %w", err)
	}

	s.log.Info("Package content saved",
		"conversation_id", conversationID,
		"characters", len(saved.Characters),
		"complete", saved.Signals().Complete(),
	)
	s.notify(conversationID)
	return saved, nil
}

type writerStatus struct {
	Status      *string         `json:"status"`
	Progress    *float64        `json:"progress"`
	CurrentStep *string         `json:"current_step"`
	Sections    map[string]bool `json:"sections"`
	Resumable   *bool           `json:"resumable"`
}

func decodeWriterStatus(raw map[string]any) (writerStatus, error) {
	var ws writerStatus
	norm, _ := normalizeKeys(raw).(map[string]any)
	if len(norm) == 0 {
		return ws, mystery.NewError(mystery.CodeValidation, "status.decode", "empty status update", nil)
	}
	b, err := json.Marshal(norm)
	if err != nil {
		return ws, mystery.Wrap(mystery.CodeValidation, "status.decode", err)
	}
	if err := json.Unmarshal(b, &ws); err != nil {
		return ws, mystery.Wrap(mystery.CodeValidation, "status.decode", err)
	}
	return ws, nil
}

func (s *contentService) ApplyWriterStatus(ctx context.Context, conversationID uuid.UUID, raw map[string]any) (types.GenerationStatus, error) {
	const op = "status.apply"
	ws, err := decodeWriterStatus(raw)
	if err != nil {
		return types.GenerationStatus{}, err
	}

	updates := map[string]interface{}{}
	var state types.GenerationState
	if ws.Status != nil {
		parsed, ok := jobs.ParseGenerationState(*ws.Status)
		if !ok {
			return types.GenerationStatus{}, mystery.NewError(mystery.CodeValidation, op,
				fmt.Sprintf("unknown status %q", *ws.Status), nil)
		}
		state = parsed
		updates["status"] = string(state)
	}
	if ws.Progress != nil {
		updates["progress"] = clampProgress(int(*ws.Progress))
	}
	if ws.CurrentStep != nil {
		updates["current_step"] = strings.TrimSpace(*ws.CurrentStep)
	}
	if ws.Resumable != nil {
		updates["resumable"] = *ws.Resumable
	}
	if ws.Sections != nil {
		sections := map[string]bool{}
		for k, v := range ws.Sections {
			if name, ok := sectionName(k); ok {
				sections[name] = v
			}
		}
		updates["sections"] = jobs.EncodeSections(sections)
	}
	if len(updates) == 0 {
		return types.GenerationStatus{}, mystery.NewError(mystery.CodeValidation, op, "no recognized fields", nil)
	}

	now := s.now()
	switch state {
	case types.StateCompleted:
		updates["completed_at"] = now
		if _, ok := updates["progress"]; !ok {
			updates["progress"] = 100
		}
	case types.StateInProgress:
		updates["completed_at"] = nil
	}

	var job *types.GenerationJob
	ignored := false
	err = s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}
		conv, err := s.conversations.GetByID(dbc, conversationID)
		if err != nil {
			return err
		}
		if conv == nil {
			return mystery.NewError(mystery.CodeNotFound, op, "mystery not found", nil)
		}
		latest, err := s.jobs.GetLatest(dbc, conversationID)
		if err != nil {
			return err
		}
		if latest == nil {
			updates["started_at"] = now
			if _, ok := updates["status"]; !ok {
				updates["status"] = string(types.StateInProgress)
			}
		} else if st, _ := latest.State(); st == types.StateCompleted && state != types.StateCompleted {
			// Completion is never reversed by a late writer update.
			ignored = true
			job = latest
			return nil
		}
		job, err = s.jobs.UpsertLatest(dbc, conversationID, updates)
		return err
	})
	if err != nil {
		if mystery.CodeOf(err) != "" {
			return types.GenerationStatus{}, err
		}
		return types.GenerationStatus{}, fmt.Errorf("apply status: %w", err)
	}
	if ignored {
		s.log.Warn("Ignoring writer status update for completed job",
			"conversation_id", conversationID,
			"job_id", job.ID,
			"status", string(state),
		)
		return jobs.CompletedStatus(), nil
	}

	s.notify(conversationID)
	st, ok := job.State()
	if !ok {
		st = types.StateInProgress
	}
	return statusFromRow(job, st), nil
}

func (s *contentService) GetPackageForOwner(dbc dbctx.Context, conversationID uuid.UUID) (*types.PackageContent, error) {
	if _, err := ownedConversation(dbc, s.conversations, conversationID); err != nil {
		return nil, err
	}
	pkg, err := s.packages.GetByConversationID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if pkg == nil {
		return nil, mystery.NewError(mystery.CodeNotFound, "package.get", "package not generated yet", nil)
	}
	return pkg, nil
}

func (s *contentService) notify(conversationID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.Notify(conversationID)
	}
}
