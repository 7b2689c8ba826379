package modify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"
	"gorm.io/datatypes"

	"github.com/yungbote/campaign-canvas-backend/internal/data/repos"
	"github.com/yungbote/campaign-canvas-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/assets"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/generators"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/progress"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/dbctx"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/pointers"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

type copyFunc func(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error)

func (f copyFunc) Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error) {
	return f(ctx, req)
}

type imageFunc func(ctx context.Context, req generators.RegenerateRequest[domain.ImageContent]) (domain.ImageContent, error)

func (f imageFunc) Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.ImageContent]) (domain.ImageContent, error) {
	return f(ctx, req)
}

type influencerFunc func(ctx context.Context, req generators.RegenerateRequest[[]domain.InfluencerContent], count int) ([]domain.InfluencerContent, error)

func (f influencerFunc) Regenerate(ctx context.Context, req generators.RegenerateRequest[[]domain.InfluencerContent], count int) ([]domain.InfluencerContent, error) {
	return f(ctx, req, count)
}

type planFunc func(ctx context.Context, req generators.RegenerateRequest[domain.PlanContent]) (domain.PlanContent, error)

func (f planFunc) Regenerate(ctx context.Context, req generators.RegenerateRequest[domain.PlanContent]) (domain.PlanContent, error) {
	return f(ctx, req)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func strategy() domain.Strategy {
	s := domain.Strategy{
		Title:          "Monsoon Sale",
		TargetAudience: "Shoppers",
		ColorScheme:    []string{"#111111", "#222222", "#333333"},
		Platforms:      []string{"instagram"},
		PostingSchedule: map[string]domain.ScheduleSlot{
			"day_1": {Time: "10:00 AM", ContentType: "teaser"},
			"day_2": {Time: "11:00 AM", ContentType: "reveal"},
			"day_3": {Time: "12:00 PM", ContentType: "offer"},
		},
	}
	s.Normalize()
	return s
}

func seed(t *testing.T, store assets.Store, campaignID uuid.UUID, kind domain.Kind, day *int, content any) uuid.UUID {
	t.Helper()
	raw, err := domain.EncodeContent(content)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	id, err := store.Save(context.Background(), &domain.Asset{
		CampaignID: campaignID,
		AssetType:  kind,
		DayNumber:  day,
		Content:    raw,
		Status:     domain.AssetCompleted,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", kind, err)
	}
	return id
}

func decode[T any](t *testing.T, store assets.Store, id uuid.UUID) (T, *domain.Asset) {
	t.Helper()
	a, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	v, err := domain.DecodeContent[T](a.Content)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v, a
}

func originalPost() domain.CopyContent {
	return domain.CopyContent{
		Platform:    "instagram",
		Caption:     "Old caption about umbrellas",
		Hashtags:    []string{"#rain", "#sale"},
		CTA:         "Shop now",
		Headline:    "Monsoon is here",
		Description: "Umbrellas at half price",
	}
}

func TestExecuteKeepsFieldsOutsideSubset(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	id := seed(t, store, campaignID, domain.KindCopy, pointers.Int(1), originalPost())

	// The model rewrites everything; only the caption may change.
	llm := gemini.CompleteFunc(func(ctx context.Context, req gemini.CompleteRequest) (string, error) {
		return `{"caption":"Fresh caption","hashtags":["#new"],"cta":"Click","headline":"New headline","description":"New description"}`, nil
	})
	o := NewOrchestrator(store, Generators{Copy: generators.NewCopyGenerator(llm, nil, testLogger(t))}, nil, nil, Config{}, testLogger(t))

	rep, err := o.Execute(context.Background(), Batch{
		CampaignID: campaignID,
		Strategy:   strategy(),
		Actions: []domain.Action{{
			Agent:       domain.KindCopy,
			Operation:   domain.OpModifyContent,
			Target:      domain.Target{DayNumbers: []int{1}, ApplyTo: domain.ApplySpecific},
			Fields:      []string{domain.FieldCaption},
			Instruction: "make the caption fresher",
		}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rep.SuccessCount != 1 || rep.TotalCount != 1 {
		t.Fatalf("report=%+v", rep)
	}

	got, row := decode[domain.CopyContent](t, store, id)
	want := originalPost()
	want.Caption = "Fresh caption"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	if row.Status != domain.AssetCompleted {
		t.Fatalf("status=%s want=completed", row.Status)
	}
	var meta map[string]any
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if diff := cmp.Diff([]any{"caption"}, meta["changed_fields"]); diff != "" {
		t.Fatalf("changed_fields (-want +got):\n%s", diff)
	}
}

func TestExecuteVersionsBeforeOverwrite(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	id := seed(t, store, campaignID, domain.KindCopy, pointers.Int(2), originalPost())

	var n atomic.Int32
	rev := copyFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error) {
		next := req.Previous
		next.Caption = fmt.Sprintf("revision %d", n.Add(1))
		return next, nil
	})
	o := NewOrchestrator(store, Generators{Copy: rev}, nil, nil, Config{}, testLogger(t))
	action := domain.Action{Agent: domain.KindCopy, Operation: domain.OpRegenerate, Target: domain.Target{DayNumbers: []int{2}}}

	captions := []string{originalPost().Caption}
	for i := 0; i < 3; i++ {
		rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{action}})
		if err != nil || rep.SuccessCount != 1 {
			t.Fatalf("Execute %d: rep=%+v err=%v", i, rep, err)
		}
		if rep.Outcomes[0].Version != i+1 {
			t.Fatalf("version=%d want=%d", rep.Outcomes[0].Version, i+1)
		}
		live, _ := decode[domain.CopyContent](t, store, id)
		captions = append(captions, live.Caption)
	}

	versions, err := store.ListVersions(context.Background(), id)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("versions=%d want=3", len(versions))
	}
	for i, v := range versions {
		if v.VersionNumber != i+1 {
			t.Fatalf("version[%d]=%d want=%d", i, v.VersionNumber, i+1)
		}
		c, err := domain.DecodeContent[domain.CopyContent](v.Content)
		if err != nil {
			t.Fatalf("decode version: %v", err)
		}
		if c.Caption != captions[i] {
			t.Fatalf("version %d caption=%q want=%q", v.VersionNumber, c.Caption, captions[i])
		}
	}
	live, _ := decode[domain.CopyContent](t, store, id)
	last, _ := domain.DecodeContent[domain.CopyContent](versions[2].Content)
	if live.Caption == last.Caption {
		t.Fatalf("live content should differ from the newest snapshot")
	}
}

// callLog records the order of store writes made during a revision.
type callLog struct {
	assets.Store
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) AppendVersion(ctx context.Context, assetID uuid.UUID, content datatypes.JSON, meta map[string]any) (int, error) {
	l.add("version")
	return l.Store.AppendVersion(ctx, assetID, content, meta)
}

func (l *callLog) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssetStatus, meta map[string]any) error {
	l.add("status:" + string(status))
	return l.Store.UpdateStatus(ctx, id, status, meta)
}

func (l *callLog) UpdateContent(ctx context.Context, id uuid.UUID, content datatypes.JSON, status domain.AssetStatus, meta map[string]any) error {
	l.add("content")
	return l.Store.UpdateContent(ctx, id, content, status, meta)
}

func TestExecuteSnapshotsBeforeAnyMutation(t *testing.T) {
	cases := []struct {
		name     string
		genErr   error
		want     []string
		versions int
	}{
		{name: "success", want: []string{"version", "status:generating", "generator", "content"}, versions: 1},
		{name: "generator fails", genErr: errors.New("model unavailable"), want: []string{"version", "status:generating", "generator", "status:completed"}, versions: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &callLog{Store: assets.NewMemoryStore()}
			campaignID := uuid.New()
			id := seed(t, store, campaignID, domain.KindCopy, pointers.Int(1), originalPost())

			rev := copyFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error) {
				store.add("generator")
				if tc.genErr != nil {
					return domain.CopyContent{}, tc.genErr
				}
				next := req.Previous
				next.Caption = "changed"
				return next, nil
			})
			o := NewOrchestrator(store, Generators{Copy: rev}, nil, nil, Config{}, testLogger(t))
			_, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{{
				Agent: domain.KindCopy, Operation: domain.OpModifyContent, Target: domain.Target{DayNumbers: []int{1}}, Instruction: "change it",
			}}})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if diff := cmp.Diff(tc.want, store.calls); diff != "" {
				t.Fatalf("call order (-want +got):\n%s", diff)
			}
			versions, err := store.ListVersions(context.Background(), id)
			if err != nil {
				t.Fatalf("ListVersions: %v", err)
			}
			if len(versions) != tc.versions {
				t.Fatalf("versions=%d want=%d", len(versions), tc.versions)
			}
		})
	}
}

func TestExecuteIsolatesFailingAction(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	ids := map[int]uuid.UUID{}
	for d := 1; d <= 3; d++ {
		ids[d] = seed(t, store, campaignID, domain.KindCopy, pointers.Int(d), originalPost())
	}
	rev := copyFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error) {
		if req.Day == 2 {
			return domain.CopyContent{}, errors.New("model unavailable")
		}
		next := req.Previous
		next.Caption = "updated"
		return next, nil
	})
	rec := &progress.Memory{}
	o := NewOrchestrator(store, Generators{Copy: rev}, nil, rec, Config{}, testLogger(t))

	var actions []domain.Action
	for d := 1; d <= 3; d++ {
		actions = append(actions, domain.Action{Agent: domain.KindCopy, Operation: domain.OpModifyContent, Target: domain.Target{DayNumbers: []int{d}}, Fields: []string{}})
	}
	rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: actions})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rep.Outcomes) != 3 {
		t.Fatalf("outcomes=%d want=3", len(rep.Outcomes))
	}
	for i, want := range []bool{true, false, true} {
		if rep.Outcomes[i].Success != want || rep.Outcomes[i].Index != i {
			t.Fatalf("outcome[%d]=%+v want success=%v", i, rep.Outcomes[i], want)
		}
	}
	if rep.SuccessCount != 2 {
		t.Fatalf("success=%d want=2", rep.SuccessCount)
	}

	failed, row := decode[domain.CopyContent](t, store, ids[2])
	if failed.Caption != originalPost().Caption {
		t.Fatalf("failed asset content changed: %q", failed.Caption)
	}
	if row.Status != domain.AssetCompleted || !strings.Contains(string(row.Metadata), "model unavailable") {
		t.Fatalf("failed asset status=%s metadata=%s", row.Status, row.Metadata)
	}
	versions, _ := store.ListVersions(context.Background(), ids[2])
	if len(versions) != 1 {
		t.Fatalf("failed asset has %d versions, want 1", len(versions))
	}
	if snap, _ := domain.DecodeContent[domain.CopyContent](versions[0].Content); snap.Caption != originalPost().Caption {
		t.Fatalf("snapshot caption=%q want=%q", snap.Caption, originalPost().Caption)
	}
	for _, d := range []int{1, 3} {
		if c, _ := decode[domain.CopyContent](t, store, ids[d]); c.Caption != "updated" {
			t.Fatalf("day %d caption=%q", d, c.Caption)
		}
	}
	msgs := rec.Contents()
	if len(msgs) != 2 || !strings.HasPrefix(msgs[1], "⚠️ Applied 2/3") {
		t.Fatalf("progress=%q", msgs)
	}
}

func TestExecuteApplyAllImages(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	seed(t, store, campaignID, domain.KindCopy, pointers.Int(1), domain.CopyContent{Caption: "first post"})
	for d := 1; d <= 2; d++ {
		seed(t, store, campaignID, domain.KindImage, pointers.Int(d), domain.ImageContent{Prompt: "plain", ImageURL: "https://img/plain"})
	}
	var captions []string
	rev := imageFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.ImageContent]) (domain.ImageContent, error) {
		if req.Day == 1 {
			captions = append(captions, req.Caption)
		}
		return domain.ImageContent{Prompt: "colorful " + req.Previous.Prompt, ImageURL: "https://img/colorful", Width: 1024, Height: 1024}, nil
	})
	o := NewOrchestrator(store, Generators{Image: rev}, nil, nil, Config{Concurrency: 1}, testLogger(t))
	rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{{
		Agent: domain.KindImage, Operation: domain.OpChangeStyle, Target: domain.Target{ApplyTo: domain.ApplyAll},
	}}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rep.TotalCount != 2 || rep.SuccessCount != 2 {
		t.Fatalf("report=%+v", rep)
	}
	if diff := cmp.Diff([]string{"first post"}, captions); diff != "" {
		t.Fatalf("caption passed to image reviser (-want +got):\n%s", diff)
	}
	if rep.Outcomes[0].Index != 0 || rep.Outcomes[1].Index != 0 || *rep.Outcomes[0].DayNumber != 1 || *rep.Outcomes[1].DayNumber != 2 {
		t.Fatalf("outcomes=%+v", rep.Outcomes)
	}
	if rep.Mode != domain.ModeAsync {
		t.Fatalf("mode=%s want=async", rep.Mode)
	}
}

func TestExecuteMissingDayFailsOnlyThatAction(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	seed(t, store, campaignID, domain.KindCopy, pointers.Int(1), originalPost())
	rev := copyFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.CopyContent]) (domain.CopyContent, error) {
		return req.Previous, nil
	})
	o := NewOrchestrator(store, Generators{Copy: rev}, nil, nil, Config{}, testLogger(t))
	rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{
		{Agent: domain.KindCopy, Operation: domain.OpRegenerate, Target: domain.Target{DayNumbers: []int{9}}},
		{Agent: domain.KindCopy, Operation: domain.OpRegenerate, Target: domain.Target{DayNumbers: []int{1}}},
		{Agent: domain.KindUnknown, Operation: domain.OpRegenerate},
	}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := []bool{rep.Outcomes[0].Success, rep.Outcomes[1].Success, rep.Outcomes[2].Success}
	if diff := cmp.Diff([]bool{false, true, false}, got); diff != "" {
		t.Fatalf("success flags (-want +got):\n%s", diff)
	}
	if !strings.Contains(rep.Outcomes[0].Error, "not found") {
		t.Fatalf("error=%q", rep.Outcomes[0].Error)
	}
}

func TestExecuteReplacesInfluencerSet(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	first := seed(t, store, campaignID, domain.KindInfluencer, nil, domain.InfluencerContent{Name: "Old One", Handle: "@old1"})
	seed(t, store, campaignID, domain.KindInfluencer, nil, domain.InfluencerContent{Name: "Old Two", Handle: "@old2"})

	var gotCount, gotPrev int
	rev := influencerFunc(func(ctx context.Context, req generators.RegenerateRequest[[]domain.InfluencerContent], count int) ([]domain.InfluencerContent, error) {
		gotCount, gotPrev = count, len(req.Previous)
		return []domain.InfluencerContent{{Name: "A", Handle: "@a"}, {Name: "B", Handle: "@b"}, {Name: "C", Handle: "@c"}}, nil
	})
	o := NewOrchestrator(store, Generators{Influencer: rev}, nil, nil, Config{}, testLogger(t))
	rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{{
		Agent: domain.KindInfluencer, Operation: domain.OpRegenerate, Target: domain.Target{ApplyTo: domain.ApplyAll}, Instruction: "find fashion creators",
	}}})
	if err != nil || rep.SuccessCount != 1 {
		t.Fatalf("Execute: rep=%+v err=%v", rep, err)
	}
	if gotCount != DefaultInfluencerCount || gotPrev != 2 {
		t.Fatalf("count=%d previous=%d", gotCount, gotPrev)
	}

	kind := domain.KindInfluencer
	live, _ := store.List(context.Background(), campaignID, &kind)
	if len(live) != 3 {
		t.Fatalf("live influencers=%d want=3", len(live))
	}
	versions, err := store.ListVersions(context.Background(), first)
	if err != nil || len(versions) != 1 {
		t.Fatalf("versions=%d err=%v", len(versions), err)
	}
	var prevSet []domain.InfluencerContent
	if err := json.Unmarshal(versions[0].Content, &prevSet); err != nil || len(prevSet) != 2 {
		t.Fatalf("snapshot=%s err=%v", versions[0].Content, err)
	}
	if !strings.Contains(string(versions[0].Metadata), domain.VersionScopeInfluencerSet) {
		t.Fatalf("snapshot metadata=%s", versions[0].Metadata)
	}
}

func TestExecuteKeepsInfluencersWhenSearchFindsNothing(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	seed(t, store, campaignID, domain.KindInfluencer, nil, domain.InfluencerContent{Name: "Keeper"})
	rev := influencerFunc(func(ctx context.Context, req generators.RegenerateRequest[[]domain.InfluencerContent], count int) ([]domain.InfluencerContent, error) {
		return nil, nil
	})
	o := NewOrchestrator(store, Generators{Influencer: rev}, nil, nil, Config{}, testLogger(t))
	rep, _ := o.Execute(context.Background(), Batch{CampaignID: campaignID, Actions: []domain.Action{{Agent: domain.KindInfluencer, Operation: domain.OpRegenerate}}})
	if rep.SuccessCount != 0 {
		t.Fatalf("report=%+v", rep)
	}
	kind := domain.KindInfluencer
	if live, _ := store.List(context.Background(), campaignID, &kind); len(live) != 1 {
		t.Fatalf("live influencers=%d want=1", len(live))
	}
}

func TestExecuteCreatesMissingPlan(t *testing.T) {
	store := assets.NewMemoryStore()
	campaignID := uuid.New()
	rev := planFunc(func(ctx context.Context, req generators.RegenerateRequest[domain.PlanContent]) (domain.PlanContent, error) {
		next := req.Previous
		next.Timeline = "6 weeks"
		return next, nil
	})
	o := NewOrchestrator(store, Generators{Plan: rev}, nil, nil, Config{}, testLogger(t))
	rep, err := o.Execute(context.Background(), Batch{CampaignID: campaignID, Strategy: strategy(), Actions: []domain.Action{{
		Agent: domain.KindPlan, Operation: domain.OpModifyContent, Instruction: "stretch to six weeks",
	}}})
	if err != nil || rep.SuccessCount != 1 {
		t.Fatalf("Execute: rep=%+v err=%v", rep, err)
	}
	plan, err := store.Get(context.Background(), campaignID, domain.KindPlan, nil)
	if err != nil {
		t.Fatalf("plan not saved: %v", err)
	}
	c, _ := domain.DecodeContent[domain.PlanContent](plan.Content)
	if c.Timeline != "6 weeks" || len(c.Phases) == 0 {
		t.Fatalf("plan=%+v", c)
	}
}

func TestRoute(t *testing.T) {
	o := NewOrchestrator(assets.NewMemoryStore(), Generators{}, nil, nil, Config{}, testLogger(t))
	cases := []struct {
		kinds []domain.Kind
		want  domain.Mode
	}{
		{[]domain.Kind{domain.KindCopy}, domain.ModeSync},
		{[]domain.Kind{domain.KindCopy, domain.KindCopy}, domain.ModeSync},
		{[]domain.Kind{domain.KindCopy, domain.KindImage}, domain.ModeAsync},
		{[]domain.Kind{domain.KindPlan}, domain.ModeAsync},
		{[]domain.Kind{domain.KindInfluencer}, domain.ModeAsync},
	}
	for _, tc := range cases {
		var actions []domain.Action
		for _, k := range tc.kinds {
			actions = append(actions, domain.Action{Agent: k})
		}
		if got := o.Route(actions); got != tc.want {
			t.Fatalf("Route(%v) got=%s want=%s", tc.kinds, got, tc.want)
		}
	}
}

func TestExecuteCompletesRecordOnce(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	c := testutil.SeedCampaign(t, ctx, gdb, uuid.New(), domain.StatusCompleted, nil)
	mods := repos.NewModificationRepo(gdb, log)
	rec, err := mods.Create(dbctx.New(ctx), &domain.CanvasModification{
		CampaignID:       c.ID,
		UserMessage:      "change day 5",
		ModificationType: domain.OpModifyContent,
		Mode:             domain.ModeSync,
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	store := assets.NewMemoryStore()
	o := NewOrchestrator(store, Generators{}, mods, nil, Config{}, log)
	// Every action fails; the record must still finish.
	rep, err := o.Execute(ctx, Batch{CampaignID: c.ID, ModificationID: rec.ID, Actions: []domain.Action{
		{Agent: domain.KindCopy, Operation: domain.OpModifyContent, Target: domain.Target{DayNumbers: []int{5}}},
	}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rep.SuccessCount != 0 {
		t.Fatalf("report=%+v", rep)
	}
	got, err := mods.GetByID(dbctx.New(ctx), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Done() || got.PollStatus() != domain.PollCompleted {
		t.Fatalf("record not completed: %+v", got)
	}
	if got.TotalCount != 1 || got.SuccessCount != 0 || !strings.Contains(string(got.NewContent), "outcomes") {
		t.Fatalf("record=%+v new=%s", got, got.NewContent)
	}
	if _, err := o.Execute(ctx, Batch{CampaignID: c.ID, ModificationID: rec.ID}); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	again, _ := mods.GetByID(dbctx.New(ctx), rec.ID)
	if string(again.NewContent) != string(got.NewContent) {
		t.Fatalf("new_content rewritten: %s", again.NewContent)
	}
}
