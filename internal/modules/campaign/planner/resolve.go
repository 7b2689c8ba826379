package planner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// Words that never identify a post.
var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "all": true, "also": true, "change": true,
	"caption": true, "copy": true, "days": true, "description": true, "each": true,
	"every": true, "from": true, "hashtag": true, "hashtags": true, "headline": true,
	"image": true, "images": true, "into": true, "less": true, "longer": true, "make": true,
	"modify": true, "more": true, "photo": true, "please": true, "post": true, "posts": true,
	"regenerate": true, "replace": true, "rewrite": true, "shorter": true, "should": true,
	"that": true, "their": true, "them": true, "then": true, "there": true, "these": true,
	"this": true, "update": true, "very": true, "with": true, "would": true, "your": true,
}

// resolveTargets gives every day-scoped action a concrete target. Actions
// with no day, asset id or "all" scope are matched against post captions;
// when nothing matches the whole plan becomes a clarification.
func resolveTargets(p Plan, snap Snapshot) Plan {
	if p.NeedsClarification {
		return p
	}
	for i := range p.Actions {
		a := &p.Actions[i]
		if !a.Agent.DayScoped() || a.Target.AssetID != nil || a.Target.ApplyTo == domain.ApplyAll || len(a.Target.DayNumbers) > 0 {
			continue
		}
		text := a.Instruction
		if a.Target.MatchText != nil {
			text = *a.Target.MatchText + " " + text
		}
		days, matched := InferDays(text, snap)
		if len(days) == 0 {
			return clarify(dayQuestion(snap), p.Source)
		}
		a.Target.DayNumbers = days
		a.Target.ApplyTo = domain.ApplyInferred
		ev := "matched caption keywords: " + strings.Join(matched, ", ")
		a.Evidence = &ev
	}
	return p
}

// InferDays returns the days whose captions share the most keywords with
// text, and the shared keywords.
func InferDays(text string, snap Snapshot) ([]int, []string) {
	want := keywords(text)
	if len(want) == 0 {
		return nil, nil
	}
	best := 0
	var days []int
	matchedSet := map[string]bool{}
	for _, post := range snap.Posts {
		have := keywords(post.Caption)
		var shared []string
		for w := range want {
			if have[w] {
				shared = append(shared, w)
			}
		}
		switch {
		case len(shared) == 0 || len(shared) < best:
			continue
		case len(shared) > best:
			best = len(shared)
			days = days[:0]
			matchedSet = map[string]bool{}
		}
		days = append(days, post.Day)
		for _, w := range shared {
			matchedSet[w] = true
		}
	}
	matched := make([]string, 0, len(matchedSet))
	for w := range matchedSet {
		matched = append(matched, w)
	}
	sort.Strings(matched)
	sort.Ints(days)
	return days, matched
}

func keywords(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 4 || stopWords[w] {
			continue
		}
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		out[w] = true
	}
	return out
}

func dayQuestion(snap Snapshot) string {
	days := snap.Days()
	if len(days) == 0 {
		return "Which day should I change? There are no posts on the canvas yet."
	}
	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("Which day should I change? Available days: %s.", strings.Join(labels, ", "))
}
