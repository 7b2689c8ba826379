package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

// Summary bounds.
const (
	maxSnapshotDays        = 12
	maxCaptionChars        = 80
	maxImagePromptChars    = 60
	maxSnapshotInfluencers = 5
	maxStrategyChars       = 2000
	maxScheduleCaption     = 120
)

type PostSummary struct {
	Day          int
	Caption      string
	ImagePrompt  string
	CopyAssetID  *uuid.UUID
	ImageAssetID *uuid.UUID
}

type InfluencerSummary struct {
	Name     string
	Platform string
}

type PlanSummary struct {
	AssetID        uuid.UUID
	Phases         []domain.PlanPhase
	ChecklistCount int
}

// Snapshot is the planner's view of the current canvas.
type Snapshot struct {
	Posts       []PostSummary
	Influencers []InfluencerSummary
	Plan        *PlanSummary
}

// BuildSnapshot decodes live assets into a snapshot. Undecodable content is
// skipped.
func BuildSnapshot(assets []*domain.Asset) Snapshot {
	byDay := map[int]*PostSummary{}
	var snap Snapshot
	for _, a := range assets {
		if a == nil {
			continue
		}
		id := a.ID
		switch a.AssetType {
		case domain.KindCopy, domain.KindImage:
			day := a.Day()
			if day < 1 {
				continue
			}
			p := byDay[day]
			if p == nil {
				p = &PostSummary{Day: day}
				byDay[day] = p
			}
			if a.AssetType == domain.KindCopy {
				p.CopyAssetID = &id
				if c, err := domain.DecodeContent[domain.CopyContent](a.Content); err == nil {
					p.Caption = c.Caption
				}
			} else {
				p.ImageAssetID = &id
				if c, err := domain.DecodeContent[domain.ImageContent](a.Content); err == nil {
					p.ImagePrompt = c.Prompt
				}
			}
		case domain.KindInfluencer:
			if c, err := domain.DecodeContent[domain.InfluencerContent](a.Content); err == nil {
				snap.Influencers = append(snap.Influencers, InfluencerSummary{Name: c.Name, Platform: c.Platform})
			}
		case domain.KindPlan:
			if c, err := domain.DecodeContent[domain.PlanContent](a.Content); err == nil {
				snap.Plan = &PlanSummary{AssetID: id, Phases: c.Phases, ChecklistCount: len(c.Checklist)}
			}
		}
	}
	for _, p := range byDay {
		snap.Posts = append(snap.Posts, *p)
	}
	sort.Slice(snap.Posts, func(i, j int) bool { return snap.Posts[i].Day < snap.Posts[j].Day })
	return snap
}

// Days lists the post days present on the canvas.
func (s Snapshot) Days() []int {
	out := make([]int, 0, len(s.Posts))
	for _, p := range s.Posts {
		out = append(out, p.Day)
	}
	return out
}

// Summary renders the bounded text form sent to the model.
func (s Snapshot) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "POSTS (%d days):\n", len(s.Posts))
	for i, p := range s.Posts {
		if i >= maxSnapshotDays {
			break
		}
		prompt := p.ImagePrompt
		if prompt == "" {
			prompt = "N/A"
		}
		fmt.Fprintf(&b, "  Day %d:\n", p.Day)
		fmt.Fprintf(&b, "    Caption: %s...\n", clip(p.Caption, maxCaptionChars))
		fmt.Fprintf(&b, "    Image: %s...\n", clip(prompt, maxImagePromptChars))
	}
	fmt.Fprintf(&b, "\nINFLUENCERS (%d total):\n", len(s.Influencers))
	for i, inf := range s.Influencers {
		if i >= maxSnapshotInfluencers {
			break
		}
		fmt.Fprintf(&b, "  - %s (%s)\n", orDefault(inf.Name, "Unknown"), orDefault(inf.Platform, "?"))
	}
	if s.Plan != nil {
		b.WriteString("\nEXECUTION PLAN:\n")
		fmt.Fprintf(&b, "  Phases: %d\n", len(s.Plan.Phases))
		for _, ph := range s.Plan.Phases {
			fmt.Fprintf(&b, "    - %s (%s)\n", orDefault(ph.Name, "?"), orDefault(ph.Duration, "?"))
		}
		fmt.Fprintf(&b, "  Checklist: %d items\n", s.Plan.ChecklistCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// StrategyExcerpt is the indented strategy JSON cut to a fixed size.
func StrategyExcerpt(s domain.Strategy) string {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return clip(string(raw), maxStrategyChars)
}

// ScheduleSummary lists one line per scheduled day, at most twelve.
func ScheduleSummary(s domain.Strategy) string {
	var lines []string
	for _, day := range s.Days() {
		if len(lines) >= maxSnapshotDays {
			break
		}
		slot, _ := s.Slot(day)
		var parts []string
		for _, p := range []string{slot.ContentType, slot.Time} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		desc := strings.Join(parts, " at ")
		lines = append(lines, fmt.Sprintf("Day %d: %s", day, clip(desc, maxScheduleCaption)))
	}
	return strings.Join(lines, "\n")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
