package generators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	"github.com/yungbote/campaign-canvas-backend/internal/modules/campaign/prompts"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/batch"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/llmjson"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/serper"
)

const (
	DefaultInfluencerCount = 10
	maxQueries             = 3
	maxSnippetChars        = 200
)

var followersRe = regexp.MustCompile(`(\d+(?:\.\d+)?[KMkm])\s*followers`)

type InfluencerGenerator struct {
	base
	search serper.Searcher
}

func NewInfluencerGenerator(llm gemini.Client, search serper.Searcher, lib *prompts.Library, baseLog *logger.Logger) *InfluencerGenerator {
	return &InfluencerGenerator{
		base:   newBase(llm, lib, baseLog.With("generator", "InfluencerGenerator")),
		search: search,
	}
}

// Generate builds an influencer shortlist of at most count entries, ranked by
// search position. It fails only when every search failed.
func (g *InfluencerGenerator) Generate(ctx context.Context, s domain.Strategy, count int) (out []domain.InfluencerContent, err error) {
	ctx, span := startSpan(ctx, "influencer", attribute.Int("campaign.influencer_count", count))
	defer func() { endSpan(span, err) }()

	s.Normalize()
	return g.find(ctx, s, "", count)
}

// Regenerate replaces the whole shortlist, steering the searches with the
// instruction.
func (g *InfluencerGenerator) Regenerate(ctx context.Context, req RegenerateRequest[[]domain.InfluencerContent], count int) (out []domain.InfluencerContent, err error) {
	ctx, span := startSpan(ctx, "influencer.regenerate", attribute.Int("campaign.influencer_count", count))
	defer func() { endSpan(span, err) }()

	s := req.Strategy
	s.Normalize()
	return g.find(ctx, s, strings.TrimSpace(req.Instruction), count)
}

func (g *InfluencerGenerator) find(ctx context.Context, s domain.Strategy, instruction string, count int) ([]domain.InfluencerContent, error) {
	if count <= 0 {
		count = DefaultInfluencerCount
	}
	platform := s.PrimaryPlatform()
	queries := g.queries(ctx, s, instruction)

	results := batch.Map(ctx, len(queries), queries, func(ctx context.Context, q string) ([]serper.Result, error) {
		return g.search.Search(ctx, q, count)
	})
	var (
		found  []domain.InfluencerContent
		failed int
		errs   []error
	)
	for i, r := range results {
		if r.Err != nil {
			failed++
			errs = append(errs, r.Err)
			g.log.Warn("influencer search failed", "query", queries[i], "error", r.Err)
			continue
		}
		found = append(found, ParseInfluencers(r.Value, platform)...)
	}
	if failed == len(results) {
		return nil, fmt.Errorf("influencer search: %w", errors.Join(errs...))
	}
	found = dedupeInfluencers(found)
	sort.SliceStable(found, func(i, j int) bool { return found[i].Relevance > found[j].Relevance })
	if len(found) > count {
		found = found[:count]
	}
	g.log.Info("influencers found", "queries", len(queries), "found", len(found))
	return found, nil
}

// queries asks the model for search queries and falls back to fixed
// templates when it fails or returns nothing usable.
func (g *InfluencerGenerator) queries(ctx context.Context, s domain.Strategy, instruction string) []string {
	in := strategyInput(s)
	if in.Themes == "" {
		in.Themes = "none"
	}
	in.Preference = extraString(s.Extras, "influencer_preference")
	in.Instruction = instruction

	var out []string
	text, err := g.complete(ctx, prompts.InfluencerQueries, in)
	if err != nil {
		g.log.Warn("influencer query generation failed; using templates", "error", err)
	} else {
		out = ParseQueries(text)
	}
	if len(out) == 0 {
		out = fallbackQueries(s, instruction)
	}
	if len(out) > maxQueries {
		out = out[:maxQueries]
	}
	return out
}

// ParseQueries accepts a JSON array of strings or one query per line.
func ParseQueries(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var arr []string
	if err := llmjson.Decode(text, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, q := range arr {
			if q = strings.TrimSpace(q); q != "" {
				out = append(out, q)
			}
		}
		return out
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•* ")
		line = strings.Trim(line, `"`)
		line = strings.Trim(line, `'`)
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "```") {
			out = append(out, line)
		}
	}
	return out
}

func fallbackQueries(s domain.Strategy, instruction string) []string {
	platform := s.PrimaryPlatform()
	baseTerm := strings.TrimSpace(s.Title)
	if baseTerm == "" {
		baseTerm = strings.TrimSpace(s.TargetAudience)
	}
	if baseTerm == "" {
		baseTerm = "local audience"
	}
	loc := ""
	if l := extraString(s.Extras, "location"); l != "" {
		loc = " in " + l
	}
	out := []string{
		fmt.Sprintf("Top %s influencers for %s%s", platform, baseTerm, loc),
		fmt.Sprintf("Organizations and NGOs that partner with brands in %s%s", baseTerm, loc),
		fmt.Sprintf("Companies and agencies that work with influencers in %s%s", baseTerm, loc),
	}
	if instruction != "" {
		out = append([]string{instruction}, out[:maxQueries-1]...)
	}
	return out
}

// ParseInfluencers turns organic search results into profiles. Results with
// no recognizable handle or that are not profile pages are skipped.
func ParseInfluencers(results []serper.Result, platform string) []domain.InfluencerContent {
	platform = strings.ToLower(strings.TrimSpace(platform))
	var out []domain.InfluencerContent
	for _, r := range results {
		handle := ExtractHandle(r.Title, r.Link, platform)
		if handle == "" || !IsProfilePage(r.Link, platform) {
			continue
		}
		name := ExtractName(r.Title)
		out = append(out, domain.InfluencerContent{
			Name:       name,
			Handle:     handle,
			Platform:   platform,
			Followers:  ExtractFollowers(r.Snippet),
			ProfileURL: r.Link,
			Snippet:    truncate(r.Snippet, maxSnippetChars),
			Relevance:  RelevanceForPosition(r.Position),
			Why:        WhyText(name, r.Snippet),
		})
	}
	return out
}

// ExtractHandle reads "(@handle)" from the title, or the first path segment
// of an instagram.com link.
func ExtractHandle(title, link, platform string) string {
	if start := strings.Index(title, "(@"); start >= 0 {
		rest := title[start+2:]
		if end := strings.Index(rest, ")"); end >= 0 {
			return "@" + rest[:end]
		}
	}
	if platform == "instagram" {
		if _, after, ok := strings.Cut(link, "instagram.com/"); ok {
			h := strings.SplitN(after, "/", 2)[0]
			h = strings.SplitN(h, "?", 2)[0]
			if h != "" {
				return "@" + h
			}
		}
	}
	return ""
}

func ExtractFollowers(snippet string) string {
	if m := followersRe.FindStringSubmatch(snippet); m != nil {
		return m[1]
	}
	return ""
}

func ExtractName(title string) string {
	name := strings.SplitN(title, "•", 2)[0]
	name = strings.SplitN(name, "-", 2)[0]
	name = strings.SplitN(name, "(", 2)[0]
	if name = strings.TrimSpace(name); name == "" {
		return "Unknown"
	}
	return name
}

func IsProfilePage(link, platform string) bool {
	switch platform {
	case "instagram":
		return strings.Contains(link, "instagram.com/") && !strings.Contains(link, "/p/") && !strings.Contains(link, "/reel/")
	case "twitter":
		return strings.Contains(link, "twitter.com/") || strings.Contains(link, "x.com/")
	case "youtube":
		return strings.Contains(link, "youtube.com/")
	default:
		return true
	}
}

// RelevanceForPosition scores a 1-based search position on a 10 point scale.
// Unknown positions count as 10.
func RelevanceForPosition(pos int) float64 {
	if pos <= 0 {
		pos = 10
	}
	p := float64(pos)
	switch {
	case pos <= 3:
		return 10 - (p-1)*0.5
	case pos <= 5:
		return 8.5 - (p-4)*0.5
	default:
		return math.Max(6, 8-(p-5)*0.3)
	}
}

func WhyText(name, snippet string) string {
	lower := strings.ToLower(snippet)
	switch {
	case strings.Contains(lower, "professional"):
		return name + " is a professional in the field with strong community presence"
	case strings.Contains(lower, "content creator"):
		return name + " is an active content creator with engaged audience"
	case strings.Contains(lower, "streamer"):
		return name + " is a popular streamer with live audience engagement"
	default:
		return name + " has relevant audience and strong social media presence"
	}
}

func dedupeInfluencers(in []domain.InfluencerContent) []domain.InfluencerContent {
	seen := make(map[string]int, len(in))
	out := make([]domain.InfluencerContent, 0, len(in))
	for _, inf := range in {
		key := strings.ToLower(inf.Handle)
		if i, ok := seen[key]; ok {
			if inf.Relevance > out[i].Relevance {
				out[i] = inf
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, inf)
	}
	return out
}

// EncodeInfluencerSet is the storage form of a whole shortlist.
func EncodeInfluencerSet(set []domain.InfluencerContent) (json.RawMessage, error) {
	if set == nil {
		set = []domain.InfluencerContent{}
	}
	return json.Marshal(set)
}
