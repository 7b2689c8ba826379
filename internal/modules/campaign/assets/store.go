// Package assets is the persistence boundary for canvas assets and their
// version history.
package assets

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

// Store persists assets. Lookups return domain.ErrAssetNotFound when nothing
// matches.
type Store interface {
	Get(ctx context.Context, campaignID uuid.UUID, kind domain.Kind, day *int) (*domain.Asset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	// Save inserts a new asset. A second copy/image for the same day, or a
	// second plan, fails with domain.ErrDuplicateAsset.
	Save(ctx context.Context, a *domain.Asset) (uuid.UUID, error)
	// UpdateContent replaces the live content and status and merges meta into
	// the stored metadata.
	UpdateContent(ctx context.Context, id uuid.UUID, content datatypes.JSON, status domain.AssetStatus, meta map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, meta map[string]any) error
	// AppendVersion records content as the asset's next version and returns
	// its number. Numbers start at 1 and only grow.
	AppendVersion(ctx context.Context, assetID uuid.UUID, content datatypes.JSON, meta map[string]any) (int, error)
	ListVersions(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetVersion, error)
	List(ctx context.Context, campaignID uuid.UUID, kind *domain.Kind) ([]*domain.Asset, error)
	// ReplaceInfluencers soft-deletes the campaign's live influencer rows and
	// inserts next in their place.
	ReplaceInfluencers(ctx context.Context, campaignID uuid.UUID, next []*domain.Asset) ([]*domain.Asset, error)
}

// MergeMetadata overlays patch onto the stored JSON object. Keys with a nil
// value are removed.
func MergeMetadata(stored datatypes.JSON, patch map[string]any) (datatypes.JSON, error) {
	base := map[string]any{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &base); err != nil || base == nil {
			base = map[string]any{}
		}
	}
	for k, v := range patch {
		if v == nil {
			delete(base, k)
			continue
		}
		base[k] = v
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func encodeMeta(meta map[string]any) datatypes.JSON {
	if len(meta) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

func dayLabel(day *int) any {
	if day == nil {
		return nil
	}
	return *day
}
