package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/testutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/apierr"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime"
	"github.com/yungbote/campaign-canvas-backend/internal/realtime/bus"
)

type fixture struct {
	db        *gorm.DB
	campaigns repos.CampaignRepo
	messages  repos.ChatMessageRepo
	mods      repos.ModificationRepo
	jobRuns   repos.JobRunRepo
	jobs      JobService
	bus       bus.Bus
	user      uuid.UUID

	mu     sync.Mutex
	events []realtime.SSEMessage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		db:        db,
		campaigns: repos.NewCampaignRepo(db, log),
		messages:  repos.NewChatMessageRepo(db, log),
		mods:      repos.NewModificationRepo(db, log),
		jobRuns:   repos.NewJobRunRepo(db, log),
		bus:       bus.NewLocalBus(),
		user:      uuid.New(),
	}
	if err := f.bus.StartForwarder(context.Background(), func(m realtime.SSEMessage) {
		f.mu.Lock()
		f.events = append(f.events, m)
		f.mu.Unlock()
	}); err != nil {
		t.Fatalf("forwarder: %v", err)
	}
	t.Cleanup(func() { _ = f.bus.Close() })
	f.jobs = NewJobService(db, log, f.jobRuns, NewJobNotifier(f.bus, log))
	return f
}

// as returns a db context authenticated as user.
func (f *fixture) as(user uuid.UUID) dbctx.Context {
	return dbctx.New(ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: user}))
}

func (f *fixture) dbc() dbctx.Context { return f.as(f.user) }

func (f *fixture) eventsOf(event realtime.SSEEvent) []realtime.SSEMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range f.events {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func requireAPIError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T (%v)", err, err)
	}
	if ae.Status != status {
		t.Fatalf("status: want %d got %d (%v)", status, ae.Status, err)
	}
	if msg != "" && ae.Error() != msg {
		t.Fatalf("message: want %q got %q", msg, ae.Error())
	}
}
