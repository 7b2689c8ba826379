package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type CampaignRepo interface {
	Create(dbc dbctx.Context, c *types.Campaign) (*types.Campaign, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error)
	GetByOwnerAndID(dbc dbctx.Context, ownerUserID, id uuid.UUID) (*types.Campaign, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Campaign, error)
	UpdateDraft(dbc dbctx.Context, id uuid.UUID, draft datatypes.JSON, title string, status *types.Status) error
	ConfirmExecution(dbc dbctx.Context, id uuid.UUID, finalDraft datatypes.JSON, startedAt time.Time) (bool, error)
	TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []types.Status, to types.Status, updates map[string]interface{}) (bool, error)
	SoftDelete(dbc dbctx.Context, ownerUserID, id uuid.UUID) (bool, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return &campaignRepo{db: db, log: baseLog.With("repo", "CampaignRepo")}
}

func (r *campaignRepo) Create(dbc dbctx.Context, c *types.Campaign) (*types.Campaign, error) {
	if c == nil {
		return nil, nil
	}
	if err := dbc.Conn(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *campaignRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Campaign
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *campaignRepo) GetByOwnerAndID(dbc dbctx.Context, ownerUserID, id uuid.UUID) (*types.Campaign, error) {
	if ownerUserID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Campaign
	if err := dbc.Conn(r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *campaignRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Campaign, error) {
	var out []*types.Campaign
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDraft rewrites the working draft. final_draft_json is never touched here.
func (r *campaignRepo) UpdateDraft(dbc dbctx.Context, id uuid.UUID, draft datatypes.JSON, title string, status *types.Status) error {
	if id == uuid.Nil {
		return nil
	}
	updates := map[string]interface{}{
		"draft_json": draft,
		"updated_at": time.Now(),
	}
	if title != "" {
		updates["title"] = title
	}
	if status != nil {
		updates["status"] = string(*status)
	}
	return dbc.Conn(r.db).
		Model(&types.Campaign{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ConfirmExecution snapshots the final draft and moves draft_ready -> executing.
// It returns false when the campaign is not draft_ready or already has a final draft.
func (r *campaignRepo) ConfirmExecution(dbc dbctx.Context, id uuid.UUID, finalDraft datatypes.JSON, startedAt time.Time) (bool, error) {
	if id == uuid.Nil || len(finalDraft) == 0 {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Model(&types.Campaign{}).
		Where("id = ? AND status = ? AND final_draft_json IS NULL", id, string(types.StatusDraftReady)).
		Updates(map[string]interface{}{
			"final_draft_json":     finalDraft,
			"status":               string(types.StatusExecuting),
			"execution_started_at": startedAt,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TransitionStatus applies to with extra updates only while the row is in one of from.
func (r *campaignRepo) TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []types.Status, to types.Status, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		if types.CanTransition(s, to) {
			allowed = append(allowed, string(s))
		}
	}
	if len(allowed) == 0 {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = string(to)
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := dbc.Conn(r.db).
		Model(&types.Campaign{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *campaignRepo) SoftDelete(dbc dbctx.Context, ownerUserID, id uuid.UUID) (bool, error) {
	if ownerUserID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	res := dbc.Conn(r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&types.Campaign{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
