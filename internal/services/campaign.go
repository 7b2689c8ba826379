package services

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/apierr"
)

const msgCampaignNotFound = "Campaign not found"

type CampaignService interface {
	// Create starts a campaign in drafting. A non-blank initial prompt is
	// stored as the first user message.
	Create(dbc dbctx.Context, title string, initialPrompt string) (*domain.Campaign, error)
	List(dbc dbctx.Context) ([]*domain.Campaign, error)
	Get(dbc dbctx.Context, campaignID uuid.UUID) (*domain.Campaign, error)
	Delete(dbc dbctx.Context, campaignID uuid.UUID) error
	Messages(dbc dbctx.Context, campaignID uuid.UUID) ([]*domain.ChatMessage, error)
}

type campaignService struct {
	db        *gorm.DB
	log       *logger.Logger
	campaigns repos.CampaignRepo
	messages  repos.ChatMessageRepo
}

func NewCampaignService(db *gorm.DB, baseLog *logger.Logger, campaigns repos.CampaignRepo, messages repos.ChatMessageRepo) CampaignService {
	return &campaignService{
		db:        db,
		log:       baseLog.With("service", "CampaignService"),
		campaigns: campaigns,
		messages:  messages,
	}
}

func requestUser(dbc dbctx.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
	}
	return userID, nil
}

// ownedCampaign loads a campaign of the request user. Campaigns of other
// users are reported as missing.
func ownedCampaign(dbc dbctx.Context, campaigns repos.CampaignRepo, campaignID uuid.UUID) (*domain.Campaign, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	c, err := campaigns.GetByOwnerAndID(dbc, userID, campaignID)
	if err != nil {
		return nil, apierr.Internal("load_campaign_failed", err)
	}
	if c == nil {
		return nil, apierr.NotFound("campaign_not_found", msgCampaignNotFound)
	}
	return c, nil
}

func (s *campaignService) Create(dbc dbctx.Context, title string, initialPrompt string) (*domain.Campaign, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Campaign"
	}
	c := &domain.Campaign{
		ID:          uuid.New(),
		OwnerUserID: userID,
		Title:       title,
		Status:      domain.StatusDrafting,
	}
	prompt := strings.TrimSpace(initialPrompt)

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.campaigns.Create(inner, c); err != nil {
			return err
		}
		if prompt == "" {
			return nil
		}
		_, err := s.messages.Create(inner, &domain.ChatMessage{
			CampaignID: c.ID,
			Role:       domain.RoleUser,
			Content:    prompt,
		})
		return err
	})
	if err != nil {
		return nil, apierr.Internal("create_campaign_failed", err)
	}
	s.log.Info("Campaign created", "campaign_id", c.ID, "user_id", userID)
	return c, nil
}

func (s *campaignService) List(dbc dbctx.Context) ([]*domain.Campaign, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	out, err := s.campaigns.ListByOwner(dbc, userID)
	if err != nil {
		return nil, apierr.Internal("list_campaigns_failed", err)
	}
	return out, nil
}

func (s *campaignService) Get(dbc dbctx.Context, campaignID uuid.UUID) (*domain.Campaign, error) {
	return ownedCampaign(dbc, s.campaigns, campaignID)
}

func (s *campaignService) Delete(dbc dbctx.Context, campaignID uuid.UUID) error {
	userID, err := requestUser(dbc)
	if err != nil {
		return err
	}
	ok, err := s.campaigns.SoftDelete(dbc, userID, campaignID)
	if err != nil {
		return apierr.Internal("delete_campaign_failed", err)
	}
	if !ok {
		return apierr.NotFound("campaign_not_found", msgCampaignNotFound)
	}
	s.log.Info("Campaign deleted", "campaign_id", campaignID, "user_id", userID)
	return nil
}

func (s *campaignService) Messages(dbc dbctx.Context, campaignID uuid.UUID) ([]*domain.ChatMessage, error) {
	if _, err := ownedCampaign(dbc, s.campaigns, campaignID); err != nil {
		return nil, err
	}
	out, err := s.messages.ListByCampaign(dbc, campaignID)
	if err != nil {
		return nil, apierr.Internal("list_messages_failed", err)
	}
	return out, nil
}
