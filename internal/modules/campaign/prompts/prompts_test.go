package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

func TestEmbeddedLibraryDefinesEveryPrompt(t *testing.T) {
	lib, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	for _, name := range Names {
		if _, ok := lib.templates[name]; !ok {
			t.Fatalf("missing prompt %s", name)
		}
	}
}

func TestBuildCopyGenerate(t *testing.T) {
	lib, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	p, err := lib.Build(CopyGenerate, Input{
		Title:       "Summer Launch",
		Audience:    "Students",
		Platform:    "instagram",
		Themes:      "fun, sun",
		Day:         2,
		ContentType: "teaser",
		Time:        "10:00 AM",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(p.User, "Create a instagram post for Day 2 of this campaign:") {
		t.Fatalf("unexpected user prompt: %q", p.User)
	}
	if !strings.Contains(p.User, "- Content Type: teaser") {
		t.Fatalf("content type not rendered")
	}
	if !p.JSON || p.Temperature != 0.7 || p.MaxTokens != 2048 {
		t.Fatalf("settings got=%v/%v/%v", p.JSON, p.Temperature, p.MaxTokens)
	}
	req := p.Request()
	if !strings.HasSuffix(req.System, strings.TrimSpace(gemini.JSONInstruction)) {
		t.Fatalf("json instruction not appended")
	}
}

func TestBuildValidatesInput(t *testing.T) {
	lib, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	if _, err := lib.Build(CopyGenerate, Input{Title: "x", Platform: "instagram"}); err == nil {
		t.Fatalf("expected day validation error")
	}
	if _, err := lib.Build(CopyRegenerate, Input{Title: "x", Platform: "instagram", Day: 1, PreviousJSON: "{}"}); err == nil {
		t.Fatalf("expected instruction validation error")
	}
	if _, err := lib.Build(Name("nope"), Input{}); err == nil {
		t.Fatalf("expected unknown prompt error")
	}
}

func TestPlannerPromptCarriesExamplesAndContext(t *testing.T) {
	lib, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	p, err := lib.Build(PlannerClassify, Input{Message: "make day 1 punchier", CanvasSummary: "POSTS (1 days):"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Temperature != 0 || p.MaxTokens != 800 {
		t.Fatalf("planner settings got=%v/%v want=0/800", p.Temperature, p.MaxTokens)
	}
	for _, want := range []string{"make all images colorful", "CURRENT CANVAS STATE:", "USER: make day 1 punchier"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("planner prompt missing %q", want)
		}
	}
	if strings.Contains(p.User, "FINAL_DRAFT_SUMMARY") {
		t.Fatalf("empty draft summary section should be omitted")
	}
	if !strings.HasSuffix(p.User, "ASSISTANT:") {
		t.Fatalf("planner prompt must end with the assistant cue")
	}
}

func TestCopyRegenerateFieldsSection(t *testing.T) {
	lib, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	in := Input{Title: "x", Platform: "instagram", Day: 1, PreviousJSON: `{"caption":"a"}`, Instruction: "shorter"}
	p, err := lib.Build(CopyRegenerate, in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(p.User, "Only change these fields") {
		t.Fatalf("fields section rendered without fields")
	}
	in.Fields = "caption"
	p, err = lib.Build(CopyRegenerate, in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "Only change these fields: caption.") {
		t.Fatalf("fields section missing")
	}
}

func TestParseRejectsIncompleteLibrary(t *testing.T) {
	_, err := Parse([]byte("library: campaign\nprompts:\n  - name: copy_generate\n    user: hi\n"))
	if err == nil || !strings.Contains(err.Error(), "missing prompt") {
		t.Fatalf("got=%v want missing prompt error", err)
	}
	if _, err := Parse([]byte("library: other\n")); err == nil {
		t.Fatalf("expected library name error")
	}
	data, err := promptsFS.ReadFile("prompts.yaml")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	broken := strings.Replace(string(data), "{{.Brief}}", "{{.Brief", 1)
	if _, err := Parse([]byte(broken)); err == nil {
		t.Fatalf("expected template parse error")
	}
}

func TestOverrideFileParses(t *testing.T) {
	data, err := promptsFS.ReadFile("prompts.yaml")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	custom := strings.Replace(string(data), "Create a VERY SHORT image prompt", "Write a tiny image prompt", 1)
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lib, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse override: %v", err)
	}
	p, err := lib.Build(ImagePrompt, Input{Title: "t"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(p.User, "Write a tiny image prompt") {
		t.Fatalf("override not applied: %q", p.User)
	}
}
