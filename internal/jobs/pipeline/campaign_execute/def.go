package campaign_execute

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/execution"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type Executor interface {
	Execute(ctx context.Context, campaignID uuid.UUID) (execution.Report, error)
}

type Pipeline struct {
	log  *logger.Logger
	exec Executor
}

func New(baseLog *logger.Logger, exec Executor) *Pipeline {
	return &Pipeline{
		log:  baseLog.With("job", types.JobTypeCampaignExecute),
		exec: exec,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeCampaignExecute }
