package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	jobtypes "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
)

func TestJobServiceEnqueueCarriesTraceIDs(t *testing.T) {
	f := newFixture(t)
	dbc := f.dbc()
	dbc = dbctx.New(ctxutil.WithTraceData(dbc.Ctx, &ctxutil.TraceData{TraceID: "trace-1", RequestID: "req-1"}))
	entity := uuid.New()

	job, err := f.jobs.Enqueue(dbc, f.user, jobtypes.JobTypeCampaignExecute, jobtypes.EntityCampaign, &entity, map[string]any{"campaign_id": entity.String()})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != jobtypes.StatusQueued || job.Message != "Queued" {
		t.Fatalf("unexpected job: %+v", job)
	}
	var payload map[string]any
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["trace_id"] != "trace-1" || payload["request_id"] != "req-1" || payload["campaign_id"] != entity.String() {
		t.Fatalf("payload: %v", payload)
	}

	if _, err := f.jobs.Enqueue(dbc, uuid.Nil, jobtypes.JobTypeCampaignExecute, "", nil, nil); err == nil {
		t.Fatalf("expected missing owner error")
	}
	if _, err := f.jobs.Enqueue(dbc, f.user, "", "", nil, nil); err == nil {
		t.Fatalf("expected missing job type error")
	}
}

func TestJobServiceEnqueueOnce(t *testing.T) {
	f := newFixture(t)
	entity := uuid.New()

	first, created, err := f.jobs.EnqueueOnce(f.dbc(), f.user, jobtypes.JobTypeCampaignExecute, jobtypes.EntityCampaign, entity, nil)
	if err != nil || !created {
		t.Fatalf("first EnqueueOnce: created=%v err=%v", created, err)
	}
	again, created, err := f.jobs.EnqueueOnce(f.dbc(), f.user, jobtypes.JobTypeCampaignExecute, jobtypes.EntityCampaign, entity, nil)
	if err != nil {
		t.Fatalf("second EnqueueOnce: %v", err)
	}
	if created || again == nil || again.ID != first.ID {
		t.Fatalf("duplicate job queued: created=%v job=%+v", created, again)
	}
}

func TestJobServiceOwnershipAndCancel(t *testing.T) {
	f := newFixture(t)
	entity := uuid.New()
	job, err := f.jobs.Enqueue(f.dbc(), f.user, jobtypes.JobTypeCanvasModify, jobtypes.EntityModification, &entity, nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := f.jobs.GetByIDForRequestUser(f.as(uuid.New()), job.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("other user: want ErrNotFound, got %v", err)
	}
	if _, err := f.jobs.GetByIDForRequestUser(f.as(uuid.Nil), job.ID); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous: want ErrUnauthorized, got %v", err)
	}
	latest, err := f.jobs.GetLatestForEntityForRequestUser(f.dbc(), jobtypes.EntityModification, entity, jobtypes.JobTypeCanvasModify)
	if err != nil || latest == nil || latest.ID != job.ID {
		t.Fatalf("latest: %+v %v", latest, err)
	}

	canceled, err := f.jobs.CancelForRequestUser(f.dbc(), job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if canceled.Status != jobtypes.StatusCanceled {
		t.Fatalf("status: %s", canceled.Status)
	}
	stored, err := f.jobs.GetByIDForRequestUser(f.dbc(), job.ID)
	if err != nil || stored.Status != jobtypes.StatusCanceled {
		t.Fatalf("stored: %+v %v", stored, err)
	}
	has, err := f.jobRuns.HasRunnableForEntity(f.dbc(), f.user, jobtypes.EntityModification, entity, jobtypes.JobTypeCanvasModify)
	if err != nil || has {
		t.Fatalf("canceled job still runnable: has=%v err=%v", has, err)
	}
}
