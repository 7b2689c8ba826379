package campaign

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
)

func TestModificationRepoCompleteOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewModificationRepo(db, testutil.Logger(t))

	c := testutil.SeedCampaign(t, ctx, tx, uuid.New(), types.StatusCompleted, nil)
	m := &types.CanvasModification{
		CampaignID:       c.ID,
		UserMessage:      "make all images colorful",
		ModificationType: types.OpChangeStyle,
		Mode:             types.ModeAsync,
	}
	if _, err := repo.Create(dbc, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := repo.GetByID(dbc, m.ID)
	if got.PollStatus() != types.PollProcessing {
		t.Fatalf("fresh record: got=%q want=%q", got.PollStatus(), types.PollProcessing)
	}

	assetID := uuid.New()
	ok, err := repo.Complete(dbc, m.ID, Completion{
		PreviousContent: datatypes.JSON([]byte(`{"prompt":"old"}`)),
		NewContent:      datatypes.JSON([]byte(`{"prompt":"new"}`)),
		AffectedAssetID: &assetID,
		SuccessCount:    1,
		TotalCount:      1,
	})
	if err != nil || !ok {
		t.Fatalf("Complete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Complete(dbc, m.ID, Completion{NewContent: datatypes.JSON([]byte(`{"prompt":"again"}`))})
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if ok {
		t.Fatalf("new_content must only be written once")
	}

	got, _ = repo.GetByID(dbc, m.ID)
	if got.PollStatus() != types.PollCompleted || got.CompletedAt == nil {
		t.Fatalf("completed record: status=%q completed_at=%v", got.PollStatus(), got.CompletedAt)
	}
	if got.AffectedAssetID == nil || *got.AffectedAssetID != assetID || got.SuccessCount != 1 {
		t.Fatalf("completion fields: %+v", got)
	}
	if string(got.NewContent) != `{"prompt":"new"}` {
		t.Fatalf("new_content: got=%s", got.NewContent)
	}
}

func TestChatMessageRepoRecent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewChatMessageRepo(db, testutil.Logger(t))

	c := testutil.SeedCampaign(t, ctx, tx, uuid.New(), types.StatusDrafting, nil)
	for _, text := range []string{"a", "b", "c", "d"} {
		if _, err := repo.Create(dbc, &types.ChatMessage{CampaignID: c.ID, Role: types.RoleUser, Content: text}); err != nil {
			t.Fatalf("Create %s: %v", text, err)
		}
	}
	recent, err := repo.Recent(dbc, c.ID, 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("Recent: %v err=%v", recent, err)
	}
	if recent[0].Content != "b" || recent[2].Content != "d" {
		t.Fatalf("Recent order: %s..%s", recent[0].Content, recent[2].Content)
	}
	all, _ := repo.ListByCampaign(dbc, c.ID)
	if len(all) != 4 || all[0].Content != "a" {
		t.Fatalf("ListByCampaign: %v", all)
	}
}
