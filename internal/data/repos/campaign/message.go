package campaign

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, m *types.ChatMessage) (*types.ChatMessage, error)
	ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.ChatMessage, error)
	Recent(dbc dbctx.Context, campaignID uuid.UUID, n int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, m *types.ChatMessage) (*types.ChatMessage, error) {
	if m == nil {
		return nil, nil
	}
	if err := dbc.Conn(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *chatMessageRepo) ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.ChatMessage, error) {
	var out []*types.ChatMessage
	if campaignID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the last n messages in chronological order.
func (r *chatMessageRepo) Recent(dbc dbctx.Context, campaignID uuid.UUID, n int) ([]*types.ChatMessage, error) {
	var out []*types.ChatMessage
	if campaignID == uuid.Nil || n <= 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Limit(n).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
