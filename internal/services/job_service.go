package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	types "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

// JobService queues background work as job_run rows. The worker pool claims
// them; enqueueing inside a transaction makes the job visible on commit.
type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	// EnqueueOnce skips the insert while a runnable job exists for the same
	// entity and type. created is false when skipped.
	EnqueueOnce(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (job *types.JobRun, created bool, err error)
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	GetLatestForEntityForRequestUser(dbc dbctx.Context, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error)
	CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) conn(dbc dbctx.Context) dbctx.Context {
	if dbc.Tx == nil {
		dbc.Tx = s.db
	}
	return dbc
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if _, ok := payload["trace_id"]; !ok && td.TraceID != "" {
			payload["trace_id"] = td.TraceID
		}
		if _, ok := payload["request_id"]; !ok && td.RequestID != "" {
			payload["request_id"] = td.RequestID
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}
	now := time.Now()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      types.StatusQueued,
		Stage:       types.StatusQueued,
		Message:     "Queued",
		Payload:     datatypes.JSON(raw),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(s.conn(dbc), []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Job enqueued", "job_id", job.ID, "job_type", jobType, "entity_id", entityID)
	if s.notify != nil {
		s.notify.JobCreated(ownerUserID, job)
	}
	return job, nil
}

func (s *jobService) EnqueueOnce(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (*types.JobRun, bool, error) {
	dbc = s.conn(dbc)
	has, err := s.repo.HasRunnableForEntity(dbc, ownerUserID, entityType, entityID, jobType)
	if err != nil {
		return nil, false, err
	}
	if has {
		job, err := s.repo.GetLatestByEntity(dbc, ownerUserID, entityType, entityID, jobType)
		return job, false, err
	}
	id := entityID
	job, err := s.Enqueue(dbc, ownerUserID, jobType, entityType, &id, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, pkgerrors.ErrUnauthorized
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing job id", pkgerrors.ErrInvalidArgument)
	}
	rows, err := s.repo.GetByIDs(s.conn(dbc), []uuid.UUID{jobID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil || rows[0].OwnerUserID != userID {
		return nil, fmt.Errorf("%w: job", pkgerrors.ErrNotFound)
	}
	return rows[0], nil
}

func (s *jobService) GetLatestForEntityForRequestUser(dbc dbctx.Context, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, pkgerrors.ErrUnauthorized
	}
	if entityType == "" || entityID == uuid.Nil || jobType == "" {
		return nil, fmt.Errorf("%w: missing entity/job info", pkgerrors.ErrInvalidArgument)
	}
	return s.repo.GetLatestByEntity(s.conn(dbc), userID, entityType, entityID, jobType)
}

// CancelForRequestUser stops a queued or running job from being claimed
// again. A running handler finishes its current step; its later writes are
// dropped by the canceled guard.
func (s *jobService) CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForRequestUser(dbc, jobID)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(job.Status)) {
	case types.StatusSucceeded, types.StatusFailed, types.StatusCanceled:
		return job, nil
	}
	now := time.Now()
	if err := s.repo.UpdateFields(s.conn(dbc), jobID, map[string]interface{}{
		"status":       types.StatusCanceled,
		"message":      "Canceled",
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	job.Status = types.StatusCanceled
	job.Message = "Canceled"
	job.LockedAt = nil
	job.HeartbeatAt = &now
	job.UpdatedAt = now
	s.log.Info("Job canceled", "job_id", jobID, "job_type", job.JobType)
	return job, nil
}
