package campaign_execute

import (
	"fmt"

	"github.com/google/uuid"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	jobrt "github.com/yungbote/campaign-canvas-backend/internal/jobs/runtime"
)

// Run executes the campaign. A failed pipeline still succeeds the job: the
// failure lives on the campaign row and its timeline, and a retry would only
// repeat it.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	campaignID, ok := jc.PayloadUUID("campaign_id")
	if !ok || campaignID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing campaign_id"))
		return nil
	}

	jc.Progress("generating", 5, "Generating campaign assets")
	rep, err := p.exec.Execute(jc.Ctx, campaignID)
	if err != nil {
		p.log.Warn("campaign execution not started", "campaign_id", campaignID, "error", err)
		jc.Fail("execute", err)
		return nil
	}
	if rep.Status == domain.StatusFailed {
		p.log.Warn("campaign execution failed", "campaign_id", campaignID, "reason", rep.Error)
	}
	jc.Succeed("done", rep)
	return nil
}
