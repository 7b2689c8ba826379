package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime/bus"
)

type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	bus bus.Bus
	log *logger.Logger
}

// NewJobNotifier publishes job lifecycle events on the user's channel. A nil
// bus makes every call a no-op.
func NewJobNotifier(b bus.Bus, baseLog *logger.Logger) JobNotifier {
	return &jobNotifier{bus: b, log: baseLog.With("service", "JobNotifier")}
}

func (n *jobNotifier) publish(userID uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n.bus == nil || userID == uuid.Nil {
		return
	}
	msg := realtime.SSEMessage{Channel: realtime.UserChannel(userID), Event: event, Data: data}
	if err := n.bus.Publish(context.Background(), msg); err != nil {
		n.log.Warn("job event publish failed", "event", event, "error", err)
	}
}

func (n *jobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.publish(userID, realtime.EventJobCreated, map[string]any{"job": job})
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	n.publish(userID, realtime.EventJobProgress, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"stage":    stage,
		"progress": progress,
		"message":  message,
	})
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	n.publish(userID, realtime.EventJobFailed, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"stage":    stage,
		"error":    errorMessage,
	})
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	n.publish(userID, realtime.EventJobDone, map[string]any{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"job":      job,
	})
}
