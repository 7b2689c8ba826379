package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

// TwoDayStrategy is a valid strategy with a day_1..day_2 schedule.
func TwoDayStrategy() campaign.Strategy {
	return campaign.Strategy{
		Title:          "Monsoon Sale",
		TargetAudience: "Young shoppers in Mumbai",
		ColorScheme:    []string{"#FF5733", "#33FF57", "#3357FF"},
		Platforms:      []string{"instagram"},
		PostingSchedule: map[string]campaign.ScheduleSlot{
			"day_1": {Time: "10:00 AM", ContentType: "teaser"},
			"day_2": {Time: "3:00 PM", ContentType: "announcement"},
		},
		ContentThemes:     []string{"rain", "discounts"},
		AdditionalDetails: "Keep it playful",
	}
}

func SeedCampaign(tb testing.TB, ctx context.Context, tx *gorm.DB, owner uuid.UUID, status campaign.Status, s *campaign.Strategy) *campaign.Campaign {
	tb.Helper()
	c := &campaign.Campaign{
		OwnerUserID: owner,
		Title:       "seed",
		Status:      status,
	}
	if s != nil {
		raw, err := campaign.EncodeStrategy(*s)
		if err != nil {
			tb.Fatalf("encode strategy: %v", err)
		}
		c.DraftJSON = raw
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	return c
}

func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, kind campaign.Kind, day *int, content any) *campaign.Asset {
	tb.Helper()
	raw, err := campaign.EncodeContent(content)
	if err != nil {
		tb.Fatalf("encode content: %v", err)
	}
	a := &campaign.Asset{
		CampaignID: campaignID,
		AssetType:  kind,
		DayNumber:  day,
		Content:    raw,
		Status:     campaign.AssetCompleted,
		Metadata:   datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	return a
}
