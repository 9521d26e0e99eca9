package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/domain/mystery"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/genwebhook"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type TriggerOutcome string

const (
	TriggerStarted           TriggerOutcome = "started"
	TriggerAlreadyInProgress TriggerOutcome = "already_in_progress"
	TriggerAlreadyCompleted  TriggerOutcome = "already_completed"
	// Only used as a metrics label.
	triggerFailed TriggerOutcome = "failed"
)

type TriggerOptions struct {
	// TestMode overrides the configured flag when overrides are allowed.
	TestMode *bool
}

type TriggerResult struct {
	Outcome TriggerOutcome         `json:"outcome"`
	Status  types.GenerationStatus `json:"status"`
}

type TriggerConfig struct {
	TestMode              bool
	AllowTestModeOverride bool
}

// ChangeNotifier is told about local writes so watchers refresh without
// waiting on the database channel.
type ChangeNotifier interface {
	Notify(conversationID uuid.UUID)
}

// GenerationTrigger arms the external generation service for a conversation.
// Start and resume are the same operation.
type GenerationTrigger interface {
	StartOrResume(ctx context.Context, conversationID uuid.UUID, opts TriggerOptions) (TriggerResult, error)
}

type generationTrigger struct {
	log           *logger.Logger
	jobs          repos.GenerationJobRepo
	conversations repos.ConversationRepo
	webhook       genwebhook.Client
	notifier      ChangeNotifier
	metrics       *observability.Metrics
	cfg           TriggerConfig
	now           func() time.Time
}

func NewGenerationTrigger(
	baseLog *logger.Logger,
	jobRepo repos.GenerationJobRepo,
	conversationRepo repos.ConversationRepo,
	webhook genwebhook.Client,
	notifier ChangeNotifier,
	metrics *observability.Metrics,
	cfg TriggerConfig,
) GenerationTrigger {
	return &generationTrigger{
		log:           baseLog.With("service", "GenerationTrigger"),
		jobs:          jobRepo,
		conversations: conversationRepo,
		webhook:       webhook,
		notifier:      notifier,
		metrics:       metrics,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (t *generationTrigger) StartOrResume(ctx context.Context, conversationID uuid.UUID, opts TriggerOptions) (TriggerResult, error) {
	if conversationID == uuid.Nil {
		return TriggerResult{}, mystery.NewError(mystery.CodeValidation, "trigger", "missing conversation id", nil)
	}
	ctx, span := observability.StartConversationSpan(ctx, "GenerationTrigger.StartOrResume", conversationID)
	res, err := t.startOrResume(ctx, conversationID, t.testMode(opts))
	defer observability.EndSpan(span, err)

	outcome := res.Outcome
	if err != nil {
		outcome = triggerFailed
	}
	span.SetAttributes(observability.AttrTriggerOutcome.String(string(outcome)))
	t.metrics.IncTrigger(string(outcome))
	return res, err
}

func (t *generationTrigger) testMode(opts TriggerOptions) bool {
	if opts.TestMode != nil && t.cfg.AllowTestModeOverride {
		return *opts.TestMode
	}
	return t.cfg.TestMode
}

func (t *generationTrigger) startOrResume(ctx context.Context, conversationID uuid.UUID, testMode bool) (TriggerResult, error) {
	dbc := dbctx.Context{Ctx: ctx}

	latest, err := t.jobs.GetLatest(dbc, conversationID)
	if err != nil {
		return TriggerResult{}, mystery.Wrap(mystery.CodeInternal, "trigger.read", err)
	}
	if latest != nil {
		if state, ok := latest.State(); ok {
			switch state {
			case types.StateCompleted:
				return TriggerResult{Outcome: TriggerAlreadyCompleted, Status: jobs.CompletedStatus()}, nil
			case types.StateInProgress:
				return TriggerResult{Outcome: TriggerAlreadyInProgress, Status: statusFromRow(latest, state)}, nil
			}
		}
	}

	now := t.now()
	job, err := t.jobs.UpsertLatest(dbc, conversationID, map[string]interface{}{
		"status":       string(types.StateInProgress),
		"progress":     10,
		"current_step": jobs.StepStarting,
		"sections":     jobs.EncodeSections(map[string]bool{}),
		"resumable":    nil,
		"started_at":   now,
		"completed_at": nil,
	})
	if err != nil {
		return TriggerResult{}, mystery.Wrap(mystery.CodeInternal, "trigger.arm", err)
	}
	if t.conversations != nil {
		if err := t.conversations.MarkGenerating(dbc, conversationID); err != nil {
			t.log.Warn("Failed to mark conversation generating", "conversation_id", conversationID, "error", err)
		}
	}
	t.notify(conversationID)

	t.log.Info("Triggering package generation",
		"conversation_id", conversationID,
		"job_id", job.ID,
		"test_mode", testMode,
	)
	if err := t.webhook.Trigger(ctx, genwebhook.TriggerRequest{
		ConversationID: conversationID,
		TestMode:       testMode,
	}); err != nil {
		return t.fail(ctx, job, err)
	}

	updates := map[string]interface{}{
		"progress":     20,
		"current_step": jobs.StepTriggered,
	}
	disallow := []string{string(types.StateCompleted), string(types.StateFailed)}
	if _, err := t.jobs.UpdateFieldsUnlessStatus(dbc, job.ID, disallow, updates); err != nil {
		// The external call already went out; the reconciler will pick up the
		// writer's own progress updates.
		t.log.Warn("Failed to record trigger progress", "job_id", job.ID, "error", err)
	}
	t.notify(conversationID)

	return TriggerResult{
		Outcome: TriggerStarted,
		Status: types.GenerationStatus{
			Status:      types.StateInProgress,
			Progress:    20,
			CurrentStep: jobs.StepTriggered,
			Sections:    map[string]bool{},
		},
	}, nil
}

// fail records the failed state before returning, even if the caller has
// gone away.
func (t *generationTrigger) fail(ctx context.Context, job *types.GenerationJob, cause error) (TriggerResult, error) {
	resumable := true
	failed := types.GenerationStatus{
		Status:      types.StateFailed,
		Progress:    0,
		CurrentStep: jobs.StepTriggerFailed,
		Resumable:   &resumable,
		Sections:    job.SectionFlags(),
	}

	writeCtx := context.WithoutCancel(ctx)
	ok, err := t.jobs.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: writeCtx}, job.ID,
		[]string{string(types.StateCompleted)},
		map[string]interface{}{
			"status":       string(types.StateFailed),
			"progress":     0,
			"resumable":    true,
			"current_step": jobs.StepTriggerFailed,
		})
	if err != nil {
		t.log.Error("Failed to record trigger failure", "job_id", job.ID, "error", err)
	} else if !ok {
		// The writer finished while the call was failing.
		t.log.Warn("Trigger failed after job completed; keeping completed", "job_id", job.ID)
		failed = jobs.CompletedStatus()
	}
	t.notify(job.ConversationID)

	t.log.Error("Package generation trigger failed",
		"conversation_id", job.ConversationID,
		"job_id", job.ID,
		"error", cause,
	)
	return TriggerResult{Status: failed}, mystery.Wrap(mystery.CodeUpstream, "trigger.webhook",
		fmt.Errorf("generation service: %w", cause))
}

func (t *generationTrigger) notify(conversationID uuid.UUID) {
	if t.notifier != nil {
		t.notifier.Notify(conversationID)
	}
}
