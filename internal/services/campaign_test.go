package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

func TestCampaignServiceCreateStoresInitialPrompt(t *testing.T) {
	f := newFixture(t)
	svc := NewCampaignService(f.db, testutil.Logger(t), f.campaigns, f.messages)

	c, err := svc.Create(f.dbc(), "Diwali Launch", "  Launch our festive range  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != domain.StatusDrafting || c.OwnerUserID != f.user {
		t.Fatalf("unexpected campaign: %+v", c)
	}
	msgs, err := svc.Messages(f.dbc(), c.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != domain.RoleUser || msgs[0].Content != "Launch our festive range" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	empty, err := svc.Create(f.dbc(), "", "   ")
	if err != nil {
		t.Fatalf("Create empty: %v", err)
	}
	if empty.Title != "Untitled Campaign" {
		t.Fatalf("title: got %q", empty.Title)
	}
	msgs, _ = svc.Messages(f.dbc(), empty.ID)
	if len(msgs) != 0 {
		t.Fatalf("blank prompt stored a message: %+v", msgs)
	}
}

func TestCampaignServiceScopesToOwner(t *testing.T) {
	f := newFixture(t)
	svc := NewCampaignService(f.db, testutil.Logger(t), f.campaigns, f.messages)

	mine, err := svc.Create(f.dbc(), "Mine", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := uuid.New()
	if _, err := svc.Create(f.as(other), "Theirs", ""); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	list, err := svc.List(f.dbc())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("List leaked campaigns: %+v", list)
	}

	_, err = svc.Get(f.as(other), mine.ID)
	requireAPIError(t, err, http.StatusNotFound, "Campaign not found")

	requireAPIError(t, svc.Delete(f.as(other), mine.ID), http.StatusNotFound, "Campaign not found")
	if err := svc.Delete(f.dbc(), mine.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Get(f.dbc(), mine.ID)
	requireAPIError(t, err, http.StatusNotFound, "Campaign not found")
}

func TestCampaignServiceRequiresUser(t *testing.T) {
	f := newFixture(t)
	svc := NewCampaignService(f.db, testutil.Logger(t), f.campaigns, f.messages)
	_, err := svc.List(f.as(uuid.Nil))
	requireAPIError(t, err, http.StatusUnauthorized, "")
}
