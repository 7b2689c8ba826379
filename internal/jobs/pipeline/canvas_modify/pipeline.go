package canvas_modify

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	jobrt "github.com/yungbote/campaign-canvas-backend/internal/jobs/runtime"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/modify"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
)

// Run applies an accepted async modification. A record that is already
// complete is left alone so a reclaimed job cannot apply it twice.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	modID, ok := jc.PayloadUUID("modification_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing modification_id"))
		return nil
	}
	dbc := dbctx.New(jc.Ctx)

	rec, err := p.modifications.GetByID(dbc, modID)
	if err != nil {
		return err
	}
	if rec == nil {
		jc.Fail("validate", fmt.Errorf("modification %s not found", modID))
		return nil
	}
	if rec.Done() {
		jc.Succeed("done", map[string]any{"modification_id": modID.String(), "skipped": true})
		return nil
	}

	var actions []domain.Action
	if err := json.Unmarshal(rec.Actions, &actions); err != nil {
		jc.Fail("validate", fmt.Errorf("decode actions: %w", err))
		return nil
	}
	c, err := p.campaigns.GetByID(dbc, rec.CampaignID)
	if err != nil {
		return err
	}
	if c == nil {
		jc.Fail("validate", fmt.Errorf("campaign %s not found", rec.CampaignID))
		return nil
	}
	s, err := c.EffectiveDraft()
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}

	b := modify.Batch{
		CampaignID:     rec.CampaignID,
		ModificationID: rec.ID,
		Strategy:       s,
		Actions:        actions,
	}
	if rep, ok := appliedReport(jc, modID); ok {
		// A previous attempt applied the actions but could not record them.
		jc.Progress("completing", 90, "Recording applied changes")
		if err := p.modifier.Complete(jc.Ctx, b, rep); err != nil {
			return err
		}
		p.succeed(jc, modID, rep)
		return nil
	}

	jc.Progress("applying", 10, fmt.Sprintf("Applying %d change(s)", len(actions)))
	rep, err := p.modifier.Execute(jc.Ctx, b)
	if err != nil {
		// Actions are applied; only the record write failed. Keep the report
		// so the retry completes the record instead of applying again.
		if !jc.Checkpoint(map[string]any{appliedKey: rep}) {
			p.log.Warn("applied report not saved", "modification_id", modID)
		}
		return err
	}
	p.succeed(jc, modID, rep)
	return nil
}

const appliedKey = "applied_report"

func appliedReport(jc *jobrt.Context, modID uuid.UUID) (modify.Report, bool) {
	if len(jc.Job.Result) == 0 {
		return modify.Report{}, false
	}
	var saved map[string]json.RawMessage
	if err := json.Unmarshal(jc.Job.Result, &saved); err != nil || len(saved[appliedKey]) == 0 {
		return modify.Report{}, false
	}
	var rep modify.Report
	if err := json.Unmarshal(saved[appliedKey], &rep); err != nil || rep.ModificationID != modID {
		return modify.Report{}, false
	}
	return rep, true
}

func (p *Pipeline) succeed(jc *jobrt.Context, modID uuid.UUID, rep modify.Report) {
	p.log.Info("modification applied", "modification_id", modID, "succeeded", rep.SuccessCount, "total", rep.TotalCount)
	jc.Succeed("done", map[string]any{
		"modification_id": modID.String(),
		"success_count":   rep.SuccessCount,
		"total_count":     rep.TotalCount,
	})
}
