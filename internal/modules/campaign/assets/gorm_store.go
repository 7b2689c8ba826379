package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/db"
	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const appendVersionAttempts = 3

type gormStore struct {
	db       *gorm.DB
	log      *logger.Logger
	assets   repos.AssetRepo
	versions repos.AssetVersionRepo
}

func NewStore(gdb *gorm.DB, baseLog *logger.Logger, assetRepo repos.AssetRepo, versionRepo repos.AssetVersionRepo) Store {
	return &gormStore{
		db:       gdb,
		log:      baseLog.With("component", "AssetStore"),
		assets:   assetRepo,
		versions: versionRepo,
	}
}

func (s *gormStore) Get(ctx context.Context, campaignID uuid.UUID, kind domain.Kind, day *int) (*domain.Asset, error) {
	a, err := s.assets.GetByKey(dbctx.Context{Ctx: ctx}, campaignID, kind, day)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s day=%v", domain.ErrAssetNotFound, kind, dayLabel(day))
	}
	return a, nil
}

func (s *gormStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	a, err := s.assets.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, id)
	}
	return a, nil
}

func (s *gormStore) Save(ctx context.Context, a *domain.Asset) (uuid.UUID, error) {
	if a == nil {
		return uuid.Nil, fmt.Errorf("nil asset")
	}
	if err := a.Check(); err != nil {
		return uuid.Nil, err
	}
	if len(a.Metadata) == 0 {
		a.Metadata = datatypes.JSON([]byte("{}"))
	}
	_, err := s.assets.Create(dbctx.Context{Ctx: ctx}, []*domain.Asset{a})
	if db.IsUniqueViolation(err) {
		return uuid.Nil, fmt.Errorf("%w: %s day=%v", domain.ErrDuplicateAsset, a.AssetType, dayLabel(a.DayNumber))
	}
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func (s *gormStore) UpdateContent(ctx context.Context, id uuid.UUID, content datatypes.JSON, status domain.AssetStatus, meta map[string]any) error {
	return s.update(ctx, id, map[string]interface{}{
		"content": content,
		"status":  string(status),
	}, meta)
}

func (s *gormStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, meta map[string]any) error {
	return s.update(ctx, id, map[string]interface{}{"status": string(status)}, meta)
}

func (s *gormStore) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}, meta map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := s.assets.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, id)
		}
		if len(meta) > 0 {
			merged, err := MergeMetadata(current.Metadata, meta)
			if err != nil {
				return fmt.Errorf("merge metadata: %w", err)
			}
			updates["metadata"] = merged
		}
		return s.assets.UpdateFields(dbc, id, updates)
	})
}

func (s *gormStore) AppendVersion(ctx context.Context, assetID uuid.UUID, content datatypes.JSON, meta map[string]any) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= appendVersionAttempts; attempt++ {
		n, err := s.appendVersionOnce(ctx, assetID, content, meta)
		if err == nil {
			return n, nil
		}
		if !db.IsUniqueViolation(err) {
			return 0, err
		}
		// Another writer took the same number; recompute.
		lastErr = err
		s.log.Debug("version number collision", "asset_id", assetID, "attempt", attempt)
	}
	return 0, fmt.Errorf("append version for %s: %w", assetID, lastErr)
}

func (s *gormStore) appendVersionOnce(ctx context.Context, assetID uuid.UUID, content datatypes.JSON, meta map[string]any) (int, error) {
	var number int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		asset, err := s.assets.GetByID(dbc, assetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, assetID)
		}
		max, err := s.versions.MaxVersion(dbc, assetID)
		if err != nil {
			return err
		}
		number = max + 1
		_, err = s.versions.Create(dbc, &domain.AssetVersion{
			AssetID:       assetID,
			CampaignID:    asset.CampaignID,
			VersionNumber: number,
			Content:       content,
			Metadata:      encodeMeta(meta),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (s *gormStore) ListVersions(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetVersion, error) {
	return s.versions.ListByAsset(dbctx.Context{Ctx: ctx}, assetID)
}

func (s *gormStore) List(ctx context.Context, campaignID uuid.UUID, kind *domain.Kind) ([]*domain.Asset, error) {
	return s.assets.ListByCampaign(dbctx.Context{Ctx: ctx}, campaignID, kind)
}

func (s *gormStore) ReplaceInfluencers(ctx context.Context, campaignID uuid.UUID, next []*domain.Asset) ([]*domain.Asset, error) {
	for _, a := range next {
		if a == nil {
			return nil, errors.New("nil influencer asset")
		}
		a.CampaignID = campaignID
		a.AssetType = domain.KindInfluencer
		a.DayNumber = nil
		if len(a.Metadata) == 0 {
			a.Metadata = datatypes.JSON([]byte("{}"))
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		kind := domain.KindInfluencer
		prev, err := s.assets.ListByCampaign(dbc, campaignID, &kind)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(prev))
		for _, p := range prev {
			ids = append(ids, p.ID)
		}
		if err := s.assets.SoftDeleteByIDs(dbc, ids); err != nil {
			return err
		}
		_, err = s.assets.Create(dbc, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("influencers replaced", "campaign_id", campaignID, "count", len(next), "at", time.Now().UTC())
	return next, nil
}
