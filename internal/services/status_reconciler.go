package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
	"github.com/yungbote/mysteryparty-backend/internal/observability"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// StatusReconciler derives the authoritative generation status from the job
// row, the stored content and the conversation flags. It never returns an
// error: read failures produce a safe not_started status.
type StatusReconciler interface {
	Reconcile(ctx context.Context, conversationID uuid.UUID) types.GenerationStatus
}

// Decision paths, used as a metrics label and span attribute.
const (
	reconcilePathNoRow     = "no_row"
	reconcilePathReadError = "read_error"
	reconcilePathDrift     = "drift"
	reconcilePathRatchet   = "ratchet"
	reconcilePathInferred  = "inferred"
	reconcilePathStored    = "stored"
)

type statusReconciler struct {
	log           *logger.Logger
	jobs          repos.GenerationJobRepo
	packages      repos.PackageContentRepo
	conversations repos.ConversationRepo
	ratchet       *completionRatchet
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewStatusReconciler(
	baseLog *logger.Logger,
	jobRepo repos.GenerationJobRepo,
	packageRepo repos.PackageContentRepo,
	conversationRepo repos.ConversationRepo,
	metrics *observability.Metrics,
) StatusReconciler {
	return &statusReconciler{
		log:           baseLog.With("service", "StatusReconciler"),
		jobs:          jobRepo,
		packages:      packageRepo,
		conversations: conversationRepo,
		ratchet:       newCompletionRatchet(defaultRatchetCapacity),
		metrics:       metrics,
		now:           time.Now,
	}
}

func (r *statusReconciler) Reconcile(ctx context.Context, conversationID uuid.UUID) types.GenerationStatus {
	ctx, span := observability.StartConversationSpan(ctx, "StatusReconciler.Reconcile", conversationID)
	defer span.End()

	start := time.Now()
	st, path := r.reconcile(ctx, conversationID)
	span.SetAttributes(
		observability.AttrGenStatus.String(string(st.Status)),
		observability.AttrGenPath.String(path),
	)
	r.metrics.ObserveReconcile(string(st.Status), path, time.Since(start))
	return st
}

func (r *statusReconciler) reconcile(ctx context.Context, conversationID uuid.UUID) (types.GenerationStatus, string) {
	dbc := dbctx.Context{Ctx: ctx}

	job, err := r.jobs.GetLatest(dbc, conversationID)
	if err != nil {
		r.log.Error("Failed to read generation job", "conversation_id", conversationID, "error", err)
		return readFailureStatus(), reconcilePathReadError
	}
	if job == nil {
		return jobs.NotStartedStatus(), reconcilePathNoRow
	}

	signals, err := r.packages.GetSignals(dbc, conversationID)
	if err != nil {
		r.log.Error("Failed to read package content", "conversation_id", conversationID, "error", err)
		return readFailureStatus(), reconcilePathReadError
	}
	contentComplete := signals.Complete()
	state, known := job.State()

	if contentComplete && state != types.StateCompleted {
		r.correctDrift(ctx, job)
		r.ratchet.Mark(job.ID)
		return jobs.CompletedStatus(), reconcilePathDrift
	}

	if state != types.StateCompleted && r.ratchet.Seen(job.ID) {
		r.log.Warn("Stored status behind observed completion; keeping completed",
			"conversation_id", conversationID,
			"job_id", job.ID,
			"stored_status", job.Status,
		)
		return jobs.CompletedStatus(), reconcilePathRatchet
	}

	if !known {
		st, err := r.infer(dbc, job, contentComplete)
		if err != nil {
			r.log.Error("Failed to read conversation flags", "conversation_id", conversationID, "error", err)
			return readFailureStatus(), reconcilePathReadError
		}
		if st.Completed() {
			r.ratchet.Mark(job.ID)
		}
		return st, reconcilePathInferred
	}

	st := statusFromRow(job, state)
	if st.Completed() {
		r.ratchet.Mark(job.ID)
	}
	return st, reconcilePathStored
}

// correctDrift rewrites a row whose content is complete but whose status is
// not. Failure is logged and left for the next reconcile to retry.
func (r *statusReconciler) correctDrift(ctx context.Context, job *types.GenerationJob) {
	now := r.now()
	err := r.jobs.UpdateFields(dbctx.Context{Ctx: ctx}, job.ID, map[string]interface{}{
		"status":       string(types.StateCompleted),
		"progress":     100,
		"current_step": jobs.StepCompleted,
		"sections":     jobs.EncodeSections(jobs.AllSectionsComplete()),
		"completed_at": now,
		"updated_at":   now,
	})
	r.metrics.IncDriftCorrection(err == nil)
	if err != nil {
		r.log.Warn("Drift correction write failed; will retry on next reconcile",
			"conversation_id", job.ConversationID,
			"job_id", job.ID,
			"error", err,
		)
		return
	}
	r.log.Info("Corrected drifted generation status",
		"conversation_id", job.ConversationID,
		"job_id", job.ID,
		"stored_status", job.Status,
	)
}

func (r *statusReconciler) infer(dbc dbctx.Context, job *types.GenerationJob, contentComplete bool) (types.GenerationStatus, error) {
	flags := types.ConversationFlags{}
	if job.CompletedAt == nil && !contentComplete {
		conv, err := r.conversations.GetByID(dbc, job.ConversationID)
		if err != nil {
			return types.GenerationStatus{}, err
		}
		flags = conv.Flags()
	}

	sections := job.SectionFlags()
	switch {
	case job.CompletedAt != nil, contentComplete, flags.HasCompletePackage, flags.IsPaid:
		return jobs.CompletedStatus(), nil
	case job.StartedAt != nil:
		return types.GenerationStatus{
			Status:      types.StateInProgress,
			Progress:    50,
			CurrentStep: jobs.StepGenerating,
			Resumable:   job.Resumable,
			Sections:    sections,
		}, nil
	default:
		return jobs.NotStartedStatus(), nil
	}
}

func statusFromRow(job *types.GenerationJob, state types.GenerationState) types.GenerationStatus {
	progress := 0
	if job.Progress != nil {
		progress = clampProgress(*job.Progress)
	}
	step := job.CurrentStep
	if !types.PresentText(step) {
		step = jobs.StepPlaceholder
	}
	return types.GenerationStatus{
		Status:      state,
		Progress:    progress,
		CurrentStep: step,
		Resumable:   job.Resumable,
		Sections:    job.SectionFlags(),
	}
}

func readFailureStatus() types.GenerationStatus {
	return types.GenerationStatus{
		Status:      types.StateNotStarted,
		Progress:    0,
		CurrentStep: jobs.StepStatusCheckFail,
	}
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
