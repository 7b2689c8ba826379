package planner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

var (
	clauseSplitRe = regexp.MustCompile(`(?i)\s*(?:\band\b|;|\n)\s*`)
	verbRe        = regexp.MustCompile(`(?i)(?P<verb>change|update|regenerate|replace|modify|rewrite)\s+(?P<target>[\w\- ]{2,60}?)(?:\s+(?:of|for|on))?(?:\s*(?:day\s*)?(?P<day>\d+))?(?:(?:\s+(?:to|with|into)\b|\s*:)\s*(?P<instr>.*))?$`)

	dayListRe  = regexp.MustCompile(`(?i)\bdays?\s*_?(\d+(?:\s*,\s*\d+)*)`)
	dayShortRe = regexp.MustCompile(`(?i)\bd(\d+)\b`)
	ordinalRe  = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+(?:day|post)\b`)
	allDaysRe  = regexp.MustCompile(`(?i)\b(?:all|every|each)\s+(?:of\s+the\s+)?(?:days?|posts?|images?|photos?|captions?)\b`)
	wholeRe    = regexp.MustCompile(`(?i)\b(?:entire|whole|complete|all)\b`)
	planRe     = regexp.MustCompile(`(?i)plan|phase|pre-launch|milestone|checklist|metric`)
	imageRe    = regexp.MustCompile(`(?i)image|photo|visual`)
	styleRe    = regexp.MustCompile(`(?i)\b(?:style|styles|colou?rful|colou?rs?|vibrant|tones?|brighter|darker|minimal|aesthetic|palette)\b`)
)

// RulePlanner is the deterministic planner used when the model is
// unavailable or returns an unusable plan.
type RulePlanner struct{}

func NewRulePlanner() *RulePlanner { return &RulePlanner{} }

func (RulePlanner) Plan(ctx context.Context, req Request) (Plan, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return clarify(ClarifyEmpty, SourceEmpty), nil
	}
	var actions []domain.Action
	for _, clause := range clauseSplitRe.Split(text, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		actions = append(actions, ruleAction(clause))
	}
	if len(actions) == 0 {
		return Plan{}, fmt.Errorf("%w: nothing to change in %q", ErrInvalidPlan, text)
	}
	return resolveTargets(Plan{Actions: actions, Source: SourceRules}, req.Canvas), nil
}

func ruleAction(clause string) domain.Action {
	a := domain.Action{Operation: domain.OpModifyContent, Fields: []string{}, Instruction: clause}
	day := 0
	if m := verbRe.FindStringSubmatch(clause); m != nil {
		verb := strings.ToLower(m[verbRe.SubexpIndex("verb")])
		a.Agent = NormalizeAsset(m[verbRe.SubexpIndex("target")])
		if d, err := strconv.Atoi(m[verbRe.SubexpIndex("day")]); err == nil {
			day = d
		}
		if instr := strings.TrimSpace(m[verbRe.SubexpIndex("instr")]); instr != "" {
			a.Instruction = instr
		}
		if verb == "regenerate" {
			a.Operation = domain.OpRegenerate
		}
		a.Fields = detectFields(clause)
	}
	if a.Agent == "" || a.Agent == domain.KindUnknown {
		a.Agent = guessAsset(clause)
	}
	if a.Agent == domain.KindImage && a.Operation == domain.OpModifyContent && styleRe.MatchString(clause) {
		a.Operation = domain.OpChangeStyle
	}
	if a.Agent != domain.KindCopy {
		a.Fields = []string{}
	}

	days := ExtractDays(clause)
	if day > 0 && len(days) == 0 {
		days = []int{day}
	}
	switch {
	case allDaysRe.MatchString(clause):
		a.Target.ApplyTo = domain.ApplyAll
	case len(days) > 0 && a.Agent.DayScoped():
		a.Target.DayNumbers = days
		a.Target.ApplyTo = domain.ApplySpecific
	case a.Agent.DayScoped():
		match := clause
		a.Target.MatchText = &match
	}
	a.ModeHint = domain.ModeFor(a.Agent)
	return a
}

// NormalizeAsset maps a free-text target onto an asset kind. Image words win
// over copy words, then plan, then influencer.
func NormalizeAsset(token string) domain.Kind {
	t := strings.ToLower(token)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("image", "photo"):
		return domain.KindImage
	case has("caption", "copy", "post", "headline", "description", "hashtags", "cta"):
		return domain.KindCopy
	case has("plan", "pre-launch", "milestone", "checklist", "metric", "recommend"):
		return domain.KindPlan
	case has("influencer"):
		return domain.KindInfluencer
	default:
		return domain.KindUnknown
	}
}

func guessAsset(clause string) domain.Kind {
	switch {
	case planRe.MatchString(clause):
		return domain.KindPlan
	case imageRe.MatchString(clause):
		return domain.KindImage
	default:
		return domain.KindCopy
	}
}

func detectFields(clause string) []string {
	t := strings.ToLower(clause)
	var fields []string
	if strings.Contains(t, "caption") {
		fields = append(fields, domain.FieldCaption)
	}
	if strings.Contains(t, "hashtag") {
		fields = append(fields, domain.FieldHashtags)
	}
	if strings.Contains(t, "cta") || strings.Contains(t, "call to action") {
		fields = append(fields, domain.FieldCTA)
	}
	if strings.Contains(t, "headline") || strings.Contains(t, "title") {
		fields = append(fields, domain.FieldHeadline)
	}
	if strings.Contains(t, "description") || strings.Contains(t, "details") {
		fields = append(fields, domain.FieldDescription)
	}
	if wholeRe.MatchString(clause) {
		return []string{}
	}
	if fields == nil {
		return []string{}
	}
	return fields
}

// ExtractDays finds explicit day references: "day 2", "days 1, 3", "day_4",
// "d5" and "3rd post".
func ExtractDays(text string) []int {
	seen := map[int]bool{}
	var out []int
	add := func(raw string) {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, m := range dayListRe.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			add(part)
		}
	}
	if len(out) == 0 {
		for _, m := range dayShortRe.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	if len(out) == 0 {
		for _, m := range ordinalRe.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	return out
}
