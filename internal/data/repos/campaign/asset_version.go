package campaign

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type AssetVersionRepo interface {
	Create(dbc dbctx.Context, v *types.AssetVersion) (*types.AssetVersion, error)
	MaxVersion(dbc dbctx.Context, assetID uuid.UUID) (int, error)
	ListByAsset(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetVersion, error)
	Latest(dbc dbctx.Context, assetID uuid.UUID) (*types.AssetVersion, error)
}

type assetVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetVersionRepo(db *gorm.DB, baseLog *logger.Logger) AssetVersionRepo {
	return &assetVersionRepo{db: db, log: baseLog.With("repo", "AssetVersionRepo")}
}

func (r *assetVersionRepo) Create(dbc dbctx.Context, v *types.AssetVersion) (*types.AssetVersion, error) {
	if v == nil {
		return nil, nil
	}
	if err := dbc.Conn(r.db).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *assetVersionRepo) MaxVersion(dbc dbctx.Context, assetID uuid.UUID) (int, error) {
	if assetID == uuid.Nil {
		return 0, nil
	}
	var max int
	if err := dbc.Conn(r.db).
		Model(&types.AssetVersion{}).
		Where("asset_id = ?", assetID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *assetVersionRepo) ListByAsset(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetVersion, error) {
	var out []*types.AssetVersion
	if assetID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("asset_id = ?", assetID).
		Order("version_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetVersionRepo) Latest(dbc dbctx.Context, assetID uuid.UUID) (*types.AssetVersion, error) {
	if assetID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.AssetVersion
	if err := dbc.Conn(r.db).
		Where("asset_id = ?", assetID).
		Order("version_number DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
