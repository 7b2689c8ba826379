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

// Completion is the single write that finishes a modification record.
type Completion struct {
	PreviousContent datatypes.JSON
	NewContent      datatypes.JSON
	AffectedAssetID *uuid.UUID
	SuccessCount    int
	TotalCount      int
	CompletedAt     time.Time
}

type ModificationRepo interface {
	Create(dbc dbctx.Context, m *types.CanvasModification) (*types.CanvasModification, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CanvasModification, error)
	ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID, limit int) ([]*types.CanvasModification, error)
	Complete(dbc dbctx.Context, id uuid.UUID, c Completion) (bool, error)
}

type modificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModificationRepo(db *gorm.DB, baseLog *logger.Logger) ModificationRepo {
	return &modificationRepo{db: db, log: baseLog.With("repo", "ModificationRepo")}
}

func (r *modificationRepo) Create(dbc dbctx.Context, m *types.CanvasModification) (*types.CanvasModification, error) {
	if m == nil {
		return nil, nil
	}
	if err := dbc.Conn(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *modificationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CanvasModification, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.CanvasModification
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *modificationRepo) ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID, limit int) ([]*types.CanvasModification, error) {
	var out []*types.CanvasModification
	if campaignID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("campaign_id = ?", campaignID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Complete fills new_content once. A second call matches no row and returns false.
func (r *modificationRepo) Complete(dbc dbctx.Context, id uuid.UUID, c Completion) (bool, error) {
	if id == uuid.Nil || len(c.NewContent) == 0 {
		return false, nil
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	updates := map[string]interface{}{
		"new_content":   c.NewContent,
		"success_count": c.SuccessCount,
		"total_count":   c.TotalCount,
		"completed_at":  c.CompletedAt,
	}
	if len(c.PreviousContent) > 0 {
		updates["previous_content"] = c.PreviousContent
	}
	if c.AffectedAssetID != nil {
		updates["affected_asset_id"] = *c.AffectedAssetID
	}
	res := dbc.Conn(r.db).
		Model(&types.CanvasModification{}).
		Where("id = ? AND new_content IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
