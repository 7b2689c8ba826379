package assets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

// MemoryStore is an in-process Store with the same constraints as the gorm
// one. Returned assets are copies.
type MemoryStore struct {
	mu       sync.Mutex
	assets   map[uuid.UUID]*domain.Asset
	versions map[uuid.UUID][]*domain.AssetVersion
	order    []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:   map[uuid.UUID]*domain.Asset{},
		versions: map[uuid.UUID][]*domain.AssetVersion{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, campaignID uuid.UUID, kind domain.Kind, day *int) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.findLocked(campaignID, kind, day); a != nil {
		return clone(a), nil
	}
	return nil, fmt.Errorf("%w: %s day=%v", domain.ErrAssetNotFound, kind, dayLabel(day))
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, id)
	}
	return clone(a), nil
}

func (s *MemoryStore) Save(ctx context.Context, a *domain.Asset) (uuid.UUID, error) {
	if a == nil {
		return uuid.Nil, fmt.Errorf("nil asset")
	}
	if err := a.Check(); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.AssetType.DayScoped() || a.AssetType == domain.KindPlan {
		if s.findLocked(a.CampaignID, a.AssetType, a.DayNumber) != nil {
			return uuid.Nil, fmt.Errorf("%w: %s day=%v", domain.ErrDuplicateAsset, a.AssetType, dayLabel(a.DayNumber))
		}
	}
	s.insertLocked(a)
	return a.ID, nil
}

func (s *MemoryStore) UpdateContent(ctx context.Context, id uuid.UUID, content datatypes.JSON, status domain.AssetStatus, meta map[string]any) error {
	return s.update(id, func(a *domain.Asset) {
		a.Content = append(datatypes.JSON(nil), content...)
		a.Status = status
	}, meta)
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, meta map[string]any) error {
	return s.update(id, func(a *domain.Asset) { a.Status = status }, meta)
}

func (s *MemoryStore) update(id uuid.UUID, apply func(a *domain.Asset), meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, id)
	}
	if len(meta) > 0 {
		merged, err := MergeMetadata(a.Metadata, meta)
		if err != nil {
			return err
		}
		a.Metadata = merged
	}
	apply(a)
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AppendVersion(ctx context.Context, assetID uuid.UUID, content datatypes.JSON, meta map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok {
		return 0, fmt.Errorf("%w: id=%s", domain.ErrAssetNotFound, assetID)
	}
	n := len(s.versions[assetID]) + 1
	s.versions[assetID] = append(s.versions[assetID], &domain.AssetVersion{
		ID:            uuid.New(),
		AssetID:       assetID,
		CampaignID:    a.CampaignID,
		VersionNumber: n,
		Content:       append(datatypes.JSON(nil), content...),
		Metadata:      encodeMeta(meta),
		CreatedAt:     time.Now(),
	})
	return n, nil
}

func (s *MemoryStore) ListVersions(ctx context.Context, assetID uuid.UUID) ([]*domain.AssetVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.AssetVersion, 0, len(s.versions[assetID]))
	for _, v := range s.versions[assetID] {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context, campaignID uuid.UUID, kind *domain.Kind) ([]*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(campaignID, kind), nil
}

func (s *MemoryStore) ReplaceInfluencers(ctx context.Context, campaignID uuid.UUID, next []*domain.Asset) ([]*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := domain.KindInfluencer
	for _, prev := range s.listLocked(campaignID, &kind) {
		s.deleteLocked(prev.ID)
	}
	for _, a := range next {
		a.CampaignID = campaignID
		a.AssetType = domain.KindInfluencer
		a.DayNumber = nil
		s.insertLocked(a)
	}
	return next, nil
}

func (s *MemoryStore) insertLocked(a *domain.Asset) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = domain.AssetPending
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.assets[a.ID] = clone(a)
	s.order = append(s.order, a.ID)
}

func (s *MemoryStore) deleteLocked(id uuid.UUID) {
	delete(s.assets, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) findLocked(campaignID uuid.UUID, kind domain.Kind, day *int) *domain.Asset {
	for _, id := range s.order {
		a := s.assets[id]
		if a.CampaignID != campaignID || a.AssetType != kind {
			continue
		}
		if (day == nil) != (a.DayNumber == nil) {
			continue
		}
		if day != nil && *day != *a.DayNumber {
			continue
		}
		return a
	}
	return nil
}

func (s *MemoryStore) listLocked(campaignID uuid.UUID, kind *domain.Kind) []*domain.Asset {
	out := []*domain.Asset{}
	for _, id := range s.order {
		a := s.assets[id]
		if a.CampaignID != campaignID {
			continue
		}
		if kind != nil && a.AssetType != *kind {
			continue
		}
		out = append(out, clone(a))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day() < out[j].Day() })
	return out
}

func clone(a *domain.Asset) *domain.Asset {
	cp := *a
	cp.Content = append(datatypes.JSON(nil), a.Content...)
	cp.Metadata = append(datatypes.JSON(nil), a.Metadata...)
	if a.DayNumber != nil {
		d := *a.DayNumber
		cp.DayNumber = &d
	}
	return &cp
}
