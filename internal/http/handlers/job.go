package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/campaign-canvas-backend/internal/http/response"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := idParam(c, "id", "invalid_job_id")
	if !ok {
		return
	}
	job, err := h.jobs.GetByIDForRequestUser(dbctx.New(c.Request.Context()), jobID)
	if err != nil {
		response.RespondAPIError(c, err, "job_not_found")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// POST /api/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID, ok := idParam(c, "id", "invalid_job_id")
	if !ok {
		return
	}
	job, err := h.jobs.CancelForRequestUser(dbctx.New(c.Request.Context()), jobID)
	if err != nil {
		response.RespondAPIError(c, err, "cancel_job_failed")
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
