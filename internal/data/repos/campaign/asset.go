package campaign

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type AssetRepo interface {
	Create(dbc dbctx.Context, assets []*types.Asset) ([]*types.Asset, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)
	GetByKey(dbc dbctx.Context, campaignID uuid.UUID, kind types.Kind, day *int) (*types.Asset, error)
	ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID, kind *types.Kind) ([]*types.Asset, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (r *assetRepo) Create(dbc dbctx.Context, assets []*types.Asset) ([]*types.Asset, error) {
	if len(assets) == 0 {
		return []*types.Asset{}, nil
	}
	if err := dbc.Conn(r.db).Create(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Asset
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetByKey looks up the unique asset for (campaign, kind, day). A nil day
// matches rows without a day number.
func (r *assetRepo) GetByKey(dbc dbctx.Context, campaignID uuid.UUID, kind types.Kind, day *int) (*types.Asset, error) {
	if campaignID == uuid.Nil {
		return nil, nil
	}
	q := dbc.Conn(r.db).Where("campaign_id = ? AND asset_type = ?", campaignID, string(kind))
	if day == nil {
		q = q.Where("day_number IS NULL")
	} else {
		q = q.Where("day_number = ?", *day)
	}
	var rows []*types.Asset
	if err := q.Order("created_at ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *assetRepo) ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID, kind *types.Kind) ([]*types.Asset, error) {
	var out []*types.Asset
	if campaignID == uuid.Nil {
		return out, nil
	}
	q := dbc.Conn(r.db).Where("campaign_id = ?", campaignID)
	if kind != nil {
		q = q.Where("asset_type = ?", string(*kind))
	}
	if err := q.Order("day_number ASC").Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.Conn(r.db).
		Model(&types.Asset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assetRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.Conn(r.db).Where("id IN ?", ids).Delete(&types.Asset{}).Error
}
