package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/domain/jobs"
)

func newReconciler(t *testing.T, env *testEnv) *statusReconciler {
	t.Helper()
	r := NewStatusReconciler(testutil.Logger(t), env.jobs, env.packages, env.conversations, nil)
	return r.(*statusReconciler)
}

func TestReconcileNoRowIsNotStarted(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)

	st := r.Reconcile(context.Background(), uuid.New())
	assert.Equal(t, types.StateNotStarted, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Equal(t, jobs.StepNotStarted, st.CurrentStep)
	assert.Zero(t, env.jobs.Writes())
}

func TestReconcileDriftSelfHeals(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	ctx := context.Background()

	conv := env.conversation(t, uuid.New())
	testutil.SeedJob(t, ctx, env.db, conv.ID, "in_progress", 40, time.Now().Add(-time.Minute))
	env.completePackage(t, conv.ID, 3)

	first := r.Reconcile(ctx, conv.ID)
	require.Equal(t, types.StateCompleted, first.Status)
	assert.Equal(t, 100, first.Progress)
	assert.Equal(t, jobs.StepCompleted, first.CurrentStep)
	assert.Equal(t, jobs.AllSectionsComplete(), first.Sections)

	stored := env.latest(t, conv.ID)
	assert.Equal(t, "completed", stored.Status)
	require.NotNil(t, stored.Progress)
	assert.Equal(t, 100, *stored.Progress)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, jobs.AllSectionsComplete(), stored.SectionFlags())

	second := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.jobs.driftWrites, "at most one corrective write")
}

func TestReconcileDriftWriteFailureStillReportsCompleted(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	ctx := context.Background()

	conv := env.conversation(t, uuid.New())
	testutil.SeedJob(t, ctx, env.db, conv.ID, "in_progress", 40, time.Now())
	env.completePackage(t, conv.ID, 1)
	env.jobs.failWrites = true

	st := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, types.StateCompleted, st.Status)
	assert.Equal(t, "in_progress", env.latest(t, conv.ID).Status)

	env.jobs.failWrites = false
	r.Reconcile(ctx, conv.ID)
	assert.Equal(t, "completed", env.latest(t, conv.ID).Status, "next reconcile retries the correction")
}

func TestReconcileStoredStatusDefaults(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	ctx := context.Background()
	conv := env.conversation(t, uuid.New())

	job := testutil.SeedJob(t, ctx, env.db, conv.ID, "in_progress", 150, time.Now())
	require.NoError(t, env.db.Model(job).Updates(map[string]interface{}{"current_step": "", "progress": nil}).Error)

	st := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, types.StateInProgress, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Equal(t, jobs.StepPlaceholder, st.CurrentStep)
	assert.Equal(t, map[string]bool{}, st.Sections)

	require.NoError(t, env.db.Model(job).Update("progress", 150).Error)
	st = r.Reconcile(ctx, conv.ID)
	assert.Equal(t, 100, st.Progress)
}

func TestReconcileFailedKeepsResumable(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	ctx := context.Background()
	conv := env.conversation(t, uuid.New())

	job := testutil.SeedJob(t, ctx, env.db, conv.ID, "failed", 0, time.Now())
	require.NoError(t, env.db.Model(job).Update("resumable", true).Error)

	st := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, types.StateFailed, st.Status)
	require.NotNil(t, st.Resumable)
	assert.True(t, *st.Resumable)
}

func TestReconcileInfersUnknownStatus(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		started bool
		done    bool
		paid    bool
		want    types.GenerationState
		wantPct int
	}{
		{name: "blank", status: "", want: types.StateNotStarted, wantPct: 0},
		{name: "garbage started", status: "queued", started: true, want: types.StateInProgress, wantPct: 50},
		{name: "completed_at wins", status: "weird", started: true, done: true, want: types.StateCompleted, wantPct: 100},
		{name: "paid flag", status: "", paid: true, want: types.StateCompleted, wantPct: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			r := newReconciler(t, env)
			ctx := context.Background()
			conv := env.conversation(t, uuid.New())
			if tc.paid {
				require.NoError(t, env.conversations.UpdateFields(env.dbc(), conv.ID, map[string]interface{}{"is_paid": true}))
			}
			job := testutil.SeedJob(t, ctx, env.db, conv.ID, tc.status, 0, time.Now())
			updates := map[string]interface{}{}
			if tc.started {
				updates["started_at"] = time.Now()
			}
			if tc.done {
				updates["completed_at"] = time.Now()
			}
			if len(updates) > 0 {
				require.NoError(t, env.db.Model(job).Updates(updates).Error)
			}

			st := r.Reconcile(ctx, conv.ID)
			assert.Equal(t, tc.want, st.Status)
			assert.Equal(t, tc.wantPct, st.Progress)
			if tc.want == types.StateInProgress {
				assert.Equal(t, jobs.StepGenerating, st.CurrentStep)
			}
		})
	}
}

func TestReconcileNeverRegressesObservedCompletion(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	ctx := context.Background()
	conv := env.conversation(t, uuid.New())

	job := testutil.SeedJob(t, ctx, env.db, conv.ID, "completed", 100, time.Now())
	require.Equal(t, types.StateCompleted, r.Reconcile(ctx, conv.ID).Status)

	// A stale writer moves the same row backwards.
	require.NoError(t, env.db.Model(job).Updates(map[string]interface{}{"status": "in_progress", "progress": 60}).Error)

	st := r.Reconcile(ctx, conv.ID)
	assert.Equal(t, types.StateCompleted, st.Status)
	assert.Equal(t, 100, st.Progress)
	assert.Equal(t, "in_progress", env.latest(t, conv.ID).Status, "ratchet does not write")
}

func TestReconcileReadFailureIsSafeDefault(t *testing.T) {
	env := newTestEnv(t)
	r := newReconciler(t, env)
	env.jobs.failReads = true

	st := r.Reconcile(context.Background(), uuid.New())
	assert.Equal(t, types.StateNotStarted, st.Status)
	assert.Equal(t, 0, st.Progress)
	assert.Equal(t, jobs.StepStatusCheckFail, st.CurrentStep)
}

func TestCompletionRatchetEvictsOldest(t *testing.T) {
	r := newCompletionRatchet(2)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	r.Mark(a)
	r.Mark(b)
	r.Mark(a)
	r.Mark(c)

	assert.False(t, r.Seen(a))
	assert.True(t, r.Seen(b))
	assert.True(t, r.Seen(c))

	r.Mark(uuid.Nil)
	assert.False(t, r.Seen(uuid.Nil))
}
