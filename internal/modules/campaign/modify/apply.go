package modify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
)

// unit is one asset-level piece of an action. err is set when the action
// could not be expanded and the unit only reports the failure.
type unit struct {
	index   int
	action  domain.Action
	day     *int
	assetID *uuid.UUID
	err     error
}

func (o *Orchestrator) expand(ctx context.Context, b Batch) []unit {
	var out []unit
	for i, a := range b.Actions {
		u := unit{index: i, action: a}
		switch {
		case !a.Agent.Valid():
			u.err = fmt.Errorf("%w: %q", domain.ErrUnknownAssetKind, a.Agent)
		case !a.Agent.DayScoped():
		case a.Target.AssetID != nil:
			id := *a.Target.AssetID
			u.assetID = &id
		case a.Target.ApplyTo == domain.ApplyAll:
			kind := a.Agent
			rows, err := o.store.List(ctx, b.CampaignID, &kind)
			if err != nil {
				u.err = err
				break
			}
			if len(rows) == 0 {
				u.err = fmt.Errorf("%w: no %s assets on the canvas", domain.ErrAssetNotFound, kind)
				break
			}
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].Day() < rows[j].Day() })
			for _, row := range rows {
				id, day := row.ID, row.Day()
				out = append(out, unit{index: i, action: a, assetID: &id, day: &day})
			}
			continue
		case len(a.Target.DayNumbers) > 0:
			for _, d := range a.Target.DayNumbers {
				day := d
				out = append(out, unit{index: i, action: a, day: &day})
			}
			continue
		default:
			u.err = fmt.Errorf("%s action has no target day", a.Agent)
		}
		out = append(out, u)
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, b Batch, u unit) Outcome {
	out := Outcome{Index: u.index, Agent: u.action.Agent, Operation: u.action.Operation, DayNumber: u.day, AssetID: u.assetID}
	if u.err != nil {
		return out.fail(u.err)
	}
	switch u.action.Agent {
	case domain.KindCopy, domain.KindImage:
		return o.reviseDay(ctx, b, u, out)
	case domain.KindPlan:
		return o.revisePlan(ctx, b, u, out)
	case domain.KindInfluencer:
		return o.replaceInfluencers(ctx, b, u, out)
	default:
		return out.fail(fmt.Errorf("%w: %q", domain.ErrUnknownAssetKind, u.action.Agent))
	}
}

func (o *Orchestrator) reviseDay(ctx context.Context, b Batch, u unit, out Outcome) Outcome {
	kind := u.action.Agent
	var located *domain.Asset
	var err error
	if u.assetID != nil {
		located, err = o.store.GetByID(ctx, *u.assetID)
	} else {
		located, err = o.store.Get(ctx, b.CampaignID, kind, u.day)
	}
	if err != nil {
		return out.fail(err)
	}
	if located.CampaignID != b.CampaignID || located.AssetType != kind {
		return out.fail(fmt.Errorf("%w: %s asset %s is not part of this campaign", domain.ErrAssetNotFound, kind, located.ID))
	}

	unlock := o.locks.Lock(located.ID.String())
	defer unlock()
	asset, err := o.store.GetByID(ctx, located.ID)
	if err != nil {
		return out.fail(err)
	}
	id, day := asset.ID, asset.Day()
	out.AssetID, out.DayNumber = &id, &day

	a := u.action
	if kind == domain.KindCopy {
		if o.gens.Copy == nil {
			return out.fail(errors.New("copy generator not configured"))
		}
		return revise(ctx, o, b, a, asset, out, func(ctx context.Context, prev domain.CopyContent) (domain.CopyContent, error) {
			return o.gens.Copy.Regenerate(ctx, generators.RegenerateRequest[domain.CopyContent]{
				Strategy:    b.Strategy,
				Day:         day,
				Previous:    prev,
				Instruction: a.Instruction,
				Fields:      a.Fields,
				Operation:   a.Operation,
			})
		})
	}
	if o.gens.Image == nil {
		return out.fail(errors.New("image generator not configured"))
	}
	caption := o.caption(ctx, b.CampaignID, day)
	return revise(ctx, o, b, a, asset, out, func(ctx context.Context, prev domain.ImageContent) (domain.ImageContent, error) {
		return o.gens.Image.Regenerate(ctx, generators.RegenerateRequest[domain.ImageContent]{
			Strategy:    b.Strategy,
			Day:         day,
			Previous:    prev,
			Instruction: a.Instruction,
			Operation:   a.Operation,
			Caption:     caption,
		})
	})
}

func (o *Orchestrator) caption(ctx context.Context, campaignID uuid.UUID, day int) string {
	row, err := o.store.Get(ctx, campaignID, domain.KindCopy, &day)
	if err != nil {
		return ""
	}
	c, err := domain.DecodeContent[domain.CopyContent](row.Content)
	if err != nil {
		return ""
	}
	return c.Caption
}

func (o *Orchestrator) revisePlan(ctx context.Context, b Batch, u unit, out Outcome) Outcome {
	if o.gens.Plan == nil {
		return out.fail(errors.New("plan generator not configured"))
	}
	unlock := o.locks.Lock("plan:" + b.CampaignID.String())
	defer unlock()

	a := u.action
	asset, err := o.store.Get(ctx, b.CampaignID, domain.KindPlan, nil)
	if err == nil {
		id := asset.ID
		out.AssetID = &id
		return revise(ctx, o, b, a, asset, out, func(ctx context.Context, prev domain.PlanContent) (domain.PlanContent, error) {
			return o.gens.Plan.Regenerate(ctx, generators.RegenerateRequest[domain.PlanContent]{
				Strategy:    b.Strategy,
				Previous:    prev,
				Instruction: a.Instruction,
				Operation:   a.Operation,
			})
		})
	}
	if !errors.Is(err, domain.ErrAssetNotFound) {
		return out.fail(err)
	}

	// No plan yet: build one from the defaults and the instruction.
	next, err := o.gens.Plan.Regenerate(ctx, generators.RegenerateRequest[domain.PlanContent]{
		Strategy:    b.Strategy,
		Previous:    domain.DefaultPlan(),
		Instruction: a.Instruction,
		Operation:   a.Operation,
	})
	if err != nil {
		return out.fail(err)
	}
	raw, err := domain.EncodeContent(next)
	if err != nil {
		return out.fail(err)
	}
	meta, err := assets.MergeMetadata(nil, o.changeMeta(b, a, 0, nil))
	if err != nil {
		return out.fail(err)
	}
	id, err := o.store.Save(ctx, &domain.Asset{
		CampaignID: b.CampaignID,
		AssetType:  domain.KindPlan,
		Content:    raw,
		Status:     domain.AssetCompleted,
		Metadata:   meta,
	})
	if err != nil {
		return out.fail(err)
	}
	out.AssetID = &id
	out.New = json.RawMessage(raw)
	out.Success = true
	return out
}

// replaceInfluencers swaps the whole influencer list. The current list is
// versioned against its first row before the search runs.
func (o *Orchestrator) replaceInfluencers(ctx context.Context, b Batch, u unit, out Outcome) Outcome {
	if o.gens.Influencer == nil {
		return out.fail(errors.New("influencer generator not configured"))
	}
	unlock := o.locks.Lock("influencers:" + b.CampaignID.String())
	defer unlock()

	a := u.action
	kind := domain.KindInfluencer
	prevRows, err := o.store.List(ctx, b.CampaignID, &kind)
	if err != nil {
		return out.fail(err)
	}
	prevSet := make([]domain.InfluencerContent, 0, len(prevRows))
	for _, row := range prevRows {
		if c, err := domain.DecodeContent[domain.InfluencerContent](row.Content); err == nil {
			prevSet = append(prevSet, c)
		}
	}

	prevRaw, err := generators.EncodeInfluencerSet(prevSet)
	if err != nil {
		return out.fail(err)
	}
	if len(prevRows) > 0 {
		meta := o.changeMeta(b, a, 0, nil)
		meta["scope"] = domain.VersionScopeInfluencerSet
		meta["count"] = len(prevSet)
		version, err := o.store.AppendVersion(ctx, prevRows[0].ID, datatypes.JSON(prevRaw), meta)
		if err != nil {
			return out.fail(err)
		}
		out.Version = version
	}

	next, err := o.gens.Influencer.Regenerate(ctx, generators.RegenerateRequest[[]domain.InfluencerContent]{
		Strategy:    b.Strategy,
		Previous:    prevSet,
		Instruction: a.Instruction,
		Operation:   a.Operation,
	}, o.cfg.InfluencerCount)
	if err != nil {
		return out.fail(err)
	}
	if len(next) == 0 {
		return out.fail(errors.New("no influencers found; kept the current list"))
	}

	rows := make([]*domain.Asset, 0, len(next))
	for _, inf := range next {
		raw, err := domain.EncodeContent(inf)
		if err != nil {
			return out.fail(err)
		}
		rowMeta, _ := assets.MergeMetadata(nil, map[string]any{"modification_id": b.ModificationID.String()})
		rows = append(rows, &domain.Asset{
			CampaignID: b.CampaignID,
			AssetType:  domain.KindInfluencer,
			Content:    raw,
			Status:     domain.AssetCompleted,
			Metadata:   rowMeta,
		})
	}
	saved, err := o.store.ReplaceInfluencers(ctx, b.CampaignID, rows)
	if err != nil {
		return out.fail(err)
	}
	newRaw, err := generators.EncodeInfluencerSet(next)
	if err != nil {
		return out.fail(err)
	}
	if len(saved) > 0 {
		id := saved[0].ID
		out.AssetID = &id
	}
	out.Previous = prevRaw
	out.New = newRaw
	out.Success = true
	return out
}

// revise runs one generator call against a locked asset. The current content
// is versioned before the row is touched; on failure the row keeps its content
// and records last_error.
func revise[T any](ctx context.Context, o *Orchestrator, b Batch, a domain.Action, asset *domain.Asset, out Outcome, fn func(context.Context, T) (T, error)) Outcome {
	prev, err := domain.DecodeContent[T](asset.Content)
	if err != nil {
		return out.fail(fmt.Errorf("decode %s content: %w", asset.AssetType, err))
	}
	version, err := o.store.AppendVersion(ctx, asset.ID, asset.Content, o.changeMeta(b, a, 0, nil))
	if err != nil {
		return out.fail(err)
	}
	out.Version = version
	if err := o.store.UpdateStatus(ctx, asset.ID, domain.AssetGenerating, nil); err != nil {
		return out.fail(err)
	}

	next, err := fn(ctx, prev)
	var raw datatypes.JSON
	if err == nil {
		raw, err = domain.EncodeContent(next)
	}
	if err == nil {
		changed := domain.ChangedFields(prev, next)
		if changed == nil {
			changed = []string{}
		}
		meta := o.changeMeta(b, a, version, changed)
		meta["last_error"] = nil
		err = o.store.UpdateContent(ctx, asset.ID, raw, domain.AssetCompleted, meta)
	}
	if err != nil {
		o.restore(ctx, asset.ID, err)
		return out.fail(err)
	}
	out.Previous = json.RawMessage(asset.Content)
	out.New = json.RawMessage(raw)
	out.Success = true
	return out
}

func (o *Orchestrator) restore(ctx context.Context, id uuid.UUID, cause error) {
	err := o.store.UpdateStatus(context.WithoutCancel(ctx), id, domain.AssetCompleted, map[string]any{
		"last_error":    cause.Error(),
		"last_error_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		o.log.Warn("asset status not restored", "asset_id", id, "error", err)
	}
}

func (o *Orchestrator) changeMeta(b Batch, a domain.Action, version int, changed []string) map[string]any {
	meta := map[string]any{
		"modification_id": b.ModificationID.String(),
		"operation":       string(a.Operation),
		"instruction":     a.Instruction,
		"trigger":         "modification",
	}
	if version > 0 {
		meta["version"] = version
	}
	if changed != nil {
		meta["changed_fields"] = changed
	}
	return meta
}
