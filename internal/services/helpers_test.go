package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mysteryparty-backend/internal/data/repos"
	"github.com/yungbote/mysteryparty-backend/internal/data/repos/testutil"
	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/platform/ctxutil"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/genwebhook"
	"github.com/yungbote/mysteryparty-backend/internal/platform/sendgrid"
)

var errBoom = errors.New("boom")

type testEnv struct {
	db            *gorm.DB
	jobs          *countingJobRepo
	packages      repos.PackageContentRepo
	conversations repos.ConversationRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:            db,
		jobs:          &countingJobRepo{GenerationJobRepo: repos.NewGenerationJobRepo(db, log)},
		packages:      repos.NewPackageContentRepo(db, log),
		conversations: repos.NewConversationRepo(db, log),
	}
}

func (e *testEnv) dbc() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func (e *testEnv) conversation(t *testing.T, userID uuid.UUID) *types.Conversation {
	t.Helper()
	return testutil.SeedConversation(t, context.Background(), e.db, userID)
}

func (e *testEnv) completePackage(t *testing.T, conversationID uuid.UUID, characters int) *types.PackageContent {
	t.Helper()
	pkg := testutil.CompletePackage(conversationID, characters)
	pkg.HostAccessToken = "host-" + conversationID.String()
	for i := range pkg.Characters {
		pkg.Characters[i].AccessToken = "char-" + uuid.NewString()
	}
	saved, err := e.packages.Save(e.dbc(), pkg)
	if err != nil {
		t.Fatalf("save package: %v", err)
	}
	return saved
}

func (e *testEnv) latest(t *testing.T, conversationID uuid.UUID) *types.GenerationJob {
	t.Helper()
	job, err := e.jobs.GetLatest(e.dbc(), conversationID)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	return job
}

func ownerContext(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

// countingJobRepo counts writes and can be told to fail them.
type countingJobRepo struct {
	repos.GenerationJobRepo

	mu          sync.Mutex
	writes      int
	failWrites  bool
	failReads   bool
	driftWrites int
}

func (c *countingJobRepo) GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.GenerationJob, error) {
	c.mu.Lock()
	fail := c.failReads
	c.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	return c.GenerationJobRepo.GetLatest(dbc, conversationID)
}

func (c *countingJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if c.recordWrite() {
		return errBoom
	}
	if updates["status"] == string(types.StateCompleted) {
		c.mu.Lock()
		c.driftWrites++
		c.mu.Unlock()
	}
	return c.GenerationJobRepo.UpdateFields(dbc, id, updates)
}

func (c *countingJobRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowed []string, updates map[string]interface{}) (bool, error) {
	if c.recordWrite() {
		return false, errBoom
	}
	return c.GenerationJobRepo.UpdateFieldsUnlessStatus(dbc, id, disallowed, updates)
}

func (c *countingJobRepo) UpsertLatest(dbc dbctx.Context, conversationID uuid.UUID, updates map[string]interface{}) (*types.GenerationJob, error) {
	if c.recordWrite() {
		return nil, errBoom
	}
	return c.GenerationJobRepo.UpsertLatest(dbc, conversationID, updates)
}

func (c *countingJobRepo) recordWrite() (fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	return c.failWrites
}

func (c *countingJobRepo) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type fakeWebhook struct {
	mu    sync.Mutex
	calls []genwebhook.TriggerRequest
	err   error
}

func (f *fakeWebhook) Trigger(ctx context.Context, req genwebhook.TriggerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.err
}

func (f *fakeWebhook) Calls() []genwebhook.TriggerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genwebhook.TriggerRequest(nil), f.calls...)
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (n *recordingNotifier) Notify(conversationID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, conversationID)
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sendgrid.SendEmailRequest
	failFor map[string]bool
}

func (f *fakeMailer) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	for _, c := range req.Categories {
		if f.failFor[c] {
			return nil, errBoom
		}
	}
	return &sendgrid.SendEmailResult{StatusCode: 202, MessageID: "msg-" + req.Categories[len(req.Categories)-1]}, nil
}

func (f *fakeMailer) Sent() []sendgrid.SendEmailRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendgrid.SendEmailRequest(nil), f.sent...)
}

type webhookFunc func(ctx context.Context) error

func (f webhookFunc) Trigger(ctx context.Context, req genwebhook.TriggerRequest) error {
	return f(ctx)
}
