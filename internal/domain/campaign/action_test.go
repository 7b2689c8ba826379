package campaign

import "testing"

func TestRouteMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		kinds []Kind
		want  Mode
	}{
		{"copy only", []Kind{KindCopy, KindCopy}, ModeSync},
		{"image", []Kind{KindImage}, ModeAsync},
		{"influencer", []Kind{KindInfluencer}, ModeAsync},
		{"plan", []Kind{KindPlan}, ModeAsync},
		{"mixed", []Kind{KindCopy, KindPlan}, ModeAsync},
		{"empty", nil, ModeSync},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			actions := make([]Action, 0, len(tc.kinds))
			for _, k := range tc.kinds {
				actions = append(actions, Action{Agent: k})
			}
			if got := RouteMode(actions); got != tc.want {
				t.Fatalf("RouteMode=%s want %s", got, tc.want)
			}
		})
	}
}

func TestParseOperationAliases(t *testing.T) {
	t.Parallel()

	if op, ok := ParseOperation("modify_fields"); !ok || op != OpModifyContent {
		t.Fatalf("modify_fields -> %q,%v", op, ok)
	}
	if _, ok := ParseOperation("explode"); ok {
		t.Fatalf("unknown operation accepted")
	}
	if got := ModificationTypeFor(nil); got != OpModifyContent {
		t.Fatalf("empty batch type=%q", got)
	}
	if got := ModificationTypeFor([]Action{{Operation: OpChangeStyle}, {Operation: OpRegenerate}}); got != OpChangeStyle {
		t.Fatalf("first action wins, got %q", got)
	}
}

func TestParseKindAgentNames(t *testing.T) {
	t.Parallel()

	cases := map[string]Kind{
		"content_agent":    KindCopy,
		"image_agent":      KindImage,
		"influencer_agent": KindInfluencer,
		"plan_agent":       KindPlan,
		"Copy":             KindCopy,
		"banner":           KindUnknown,
	}
	for in, want := range cases {
		if got := ParseKind(in); got != want {
			t.Fatalf("ParseKind(%q)=%q want %q", in, got, want)
		}
	}
}

func TestModificationPollStatus(t *testing.T) {
	t.Parallel()

	m := &CanvasModification{}
	if m.PollStatus() != PollProcessing {
		t.Fatalf("null new_content must be processing")
	}
	m.NewContent = []byte("null")
	if m.Done() {
		t.Fatalf("json null must not count as done")
	}
	m.NewContent = []byte(`{"outcomes":[]}`)
	if m.PollStatus() != PollCompleted {
		t.Fatalf("non-null new_content must be completed")
	}
}

func TestAssetCheck(t *testing.T) {
	t.Parallel()

	day := 1
	if err := (&Asset{AssetType: KindCopy, DayNumber: &day}).Check(); err != nil {
		t.Fatalf("copy with day rejected: %v", err)
	}
	if err := (&Asset{AssetType: KindImage}).Check(); err == nil {
		t.Fatalf("image without day accepted")
	}
	if err := (&Asset{AssetType: KindPlan, DayNumber: &day}).Check(); err == nil {
		t.Fatalf("plan with day accepted")
	}
	if err := (&Asset{AssetType: "banner"}).Check(); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}
