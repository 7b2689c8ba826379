package campaign

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDrafting, StatusDraftReady, true},
		{StatusDraftReady, StatusDraftReady, true},
		{StatusDraftReady, StatusExecuting, true},
		{StatusExecuting, StatusCompleted, true},
		{StatusExecuting, StatusFailed, true},
		{StatusDrafting, StatusExecuting, false},
		{StatusCompleted, StatusExecuting, false},
		{StatusFailed, StatusExecuting, false},
		{StatusCompleted, StatusDraftReady, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s)=%v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEffectiveDraftPrefersFinal(t *testing.T) {
	t.Parallel()

	draft, _ := EncodeStrategy(Strategy{Title: "working"})
	final, _ := EncodeStrategy(Strategy{Title: "confirmed"})

	c := &Campaign{DraftJSON: draft}
	s, err := c.EffectiveDraft()
	if err != nil || s.Title != "working" {
		t.Fatalf("draft only: got %q err=%v", s.Title, err)
	}

	c.FinalDraftJSON = final
	s, err = c.EffectiveDraft()
	if err != nil || s.Title != "confirmed" {
		t.Fatalf("final set: got %q err=%v", s.Title, err)
	}

	empty := &Campaign{DraftJSON: []byte("{}")}
	if _, err := empty.EffectiveDraft(); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("empty draft: want ErrNoDraft, got %v", err)
	}
}

func TestExecutionSeconds(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	c := &Campaign{ExecutionStartedAt: &start}
	if c.ExecutionSeconds() != 0 {
		t.Fatalf("incomplete execution should report 0")
	}
	c.ExecutionCompletedAt = &end
	if got := c.ExecutionSeconds(); got != 90 {
		t.Fatalf("ExecutionSeconds=%v want 90", got)
	}
}

func TestStrategyNormalizeDefaults(t *testing.T) {
	t.Parallel()

	s := Strategy{ColorScheme: []string{"#000"}, Platforms: []string{" Instagram ", ""}}
	s.Normalize()

	if s.Title != DefaultTitle || s.TargetAudience != DefaultAudience {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if diff := cmp.Diff(DefaultColorScheme, s.ColorScheme); diff != "" {
		t.Fatalf("color scheme (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"instagram"}, s.Platforms); diff != "" {
		t.Fatalf("platforms (-want +got):\n%s", diff)
	}
	if s.PostingSchedule == nil {
		t.Fatalf("posting schedule should be non-nil")
	}
}

func TestStrategyValidate(t *testing.T) {
	t.Parallel()

	base := func() Strategy {
		return Strategy{
			ColorScheme: []string{"#1", "#2", "#3"},
			Platforms:   []string{"instagram"},
			PostingSchedule: map[string]ScheduleSlot{
				"day_1": {Time: "10:00 AM", ContentType: "teaser"},
				"day_2": {Time: "3:00 PM", ContentType: "announcement"},
			},
		}
	}

	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid strategy rejected: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, ok.Days()); diff != "" {
		t.Fatalf("Days (-want +got):\n%s", diff)
	}

	gap := base()
	delete(gap.PostingSchedule, "day_1")
	gap.PostingSchedule["day_3"] = ScheduleSlot{}
	if err := gap.Validate(); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("gap in schedule: want ErrInvalidStrategy, got %v", err)
	}

	badKey := base()
	badKey.PostingSchedule["monday"] = ScheduleSlot{}
	if err := badKey.Validate(); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("bad key: want ErrInvalidStrategy, got %v", err)
	}

	colors := base()
	colors.ColorScheme = colors.ColorScheme[:2]
	if err := colors.Validate(); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("two colors: want ErrInvalidStrategy, got %v", err)
	}

	noPlatform := base()
	noPlatform.Platforms = nil
	if err := noPlatform.Validate(); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("no platform: want ErrInvalidStrategy, got %v", err)
	}
}

func TestStrategyExtrasRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{"title":"Launch","platforms":["instagram"],"location":"Mumbai","influencer_preference":"micro"}`
	var s Strategy
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Extras["location"] != "Mumbai" {
		t.Fatalf("extras lost: %+v", s.Extras)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if back["influencer_preference"] != "micro" || back["title"] != "Launch" {
		t.Fatalf("round trip dropped keys: %v", back)
	}
}

func TestParseDayKey(t *testing.T) {
	t.Parallel()

	if d, ok := ParseDayKey("day_12"); !ok || d != 12 {
		t.Fatalf("day_12 -> %d,%v", d, ok)
	}
	for _, bad := range []string{"day_", "12", "dayx", "day_two"} {
		if _, ok := ParseDayKey(bad); ok {
			t.Fatalf("ParseDayKey(%q) should fail", bad)
		}
	}
	if DayKey(3) != "day_3" {
		t.Fatalf("DayKey(3)=%q", DayKey(3))
	}
}
