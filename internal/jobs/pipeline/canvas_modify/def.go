package canvas_modify

import (
	"context"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	types "github.com/yungbote/campaign-canvas-backend/internal/domain/jobs"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/modify"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type Modifier interface {
	Execute(ctx context.Context, b modify.Batch) (modify.Report, error)
	Complete(ctx context.Context, b modify.Batch, rep modify.Report) error
}

type Pipeline struct {
	log           *logger.Logger
	campaigns     repos.CampaignRepo
	modifications repos.ModificationRepo
	modifier      Modifier
}

func New(baseLog *logger.Logger, campaigns repos.CampaignRepo, modifications repos.ModificationRepo, modifier Modifier) *Pipeline {
	return &Pipeline{
		log:           baseLog.With("job", types.JobTypeCanvasModify),
		campaigns:     campaigns,
		modifications: modifications,
		modifier:      modifier,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeCanvasModify }
