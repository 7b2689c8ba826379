package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
)

// Both planner vocabularies are accepted: the classifier's
// asset_type/action/user_instruction and the agent/operation/instruction form.
var (
	agentKeys       = []string{"asset_type", "agent"}
	operationKeys   = []string{"action", "operation"}
	instructionKeys = []string{"user_instruction", "instruction"}
)

// Validate checks raw planner output. A clarification must carry a message;
// otherwise there must be at least one action and each action needs an
// asset kind, an operation, a target and an instruction.
func Validate(raw map[string]any) error {
	if raw == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidPlan)
	}
	if needs, _ := raw["needs_clarification"].(bool); needs {
		if msg, _ := raw["clarify_message"].(string); strings.TrimSpace(msg) == "" {
			return fmt.Errorf("%w: clarification without message", ErrInvalidPlan)
		}
		return nil
	}
	actions, ok := raw["actions"].([]any)
	if !ok || len(actions) == 0 {
		return fmt.Errorf("%w: no actions", ErrInvalidPlan)
	}
	for i, a := range actions {
		obj, ok := a.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: action %d is not an object", ErrInvalidPlan, i)
		}
		if !hasAny(obj, agentKeys) || !hasAny(obj, operationKeys) {
			return fmt.Errorf("%w: action %d is missing required fields", ErrInvalidPlan, i)
		}
		if strings.TrimSpace(firstString(obj, instructionKeys)) == "" {
			return fmt.Errorf("%w: action %d has no instruction", ErrInvalidPlan, i)
		}
		if _, ok := obj["target"].(map[string]any); !ok {
			return fmt.Errorf("%w: action %d target is not an object", ErrInvalidPlan, i)
		}
	}
	return nil
}

// Decode validates raw output and converts it into typed actions.
func Decode(raw map[string]any, src Source) (Plan, error) {
	if err := Validate(raw); err != nil {
		return Plan{}, err
	}
	if needs, _ := raw["needs_clarification"].(bool); needs {
		msg, _ := raw["clarify_message"].(string)
		return clarify(strings.TrimSpace(msg), src), nil
	}
	items, _ := raw["actions"].([]any)
	out := Plan{Source: src, Actions: make([]domain.Action, 0, len(items))}
	for i, item := range items {
		a, err := decodeAction(item.(map[string]any))
		if err != nil {
			return Plan{}, fmt.Errorf("%w: action %d: %v", ErrInvalidPlan, i, err)
		}
		out.Actions = append(out.Actions, a)
	}
	return out, nil
}

func decodeAction(obj map[string]any) (domain.Action, error) {
	kind := domain.ParseKind(firstString(obj, agentKeys))
	if kind == domain.KindUnknown {
		return domain.Action{}, fmt.Errorf("unknown asset kind %q", firstString(obj, agentKeys))
	}
	op, ok := domain.ParseOperation(firstString(obj, operationKeys))
	if !ok {
		return domain.Action{}, fmt.Errorf("unknown operation %q", firstString(obj, operationKeys))
	}
	a := domain.Action{
		Agent:       kind,
		Operation:   op,
		Instruction: strings.TrimSpace(firstString(obj, instructionKeys)),
		Fields:      []string{},
		ModeHint:    domain.ModeFor(kind),
	}
	target, _ := obj["target"].(map[string]any)
	a.Target = decodeTarget(target)
	a.Fields = normalizeFields(stringList(obj["fields"]))
	if ctx, ok := obj["context"].(map[string]any); ok && len(a.Fields) == 0 {
		a.Fields = normalizeFields(stringList(ctx["fields_to_modify"]))
	}
	if ev, ok := obj["evidence"].(string); ok && strings.TrimSpace(ev) != "" {
		ev = strings.TrimSpace(ev)
		a.Evidence = &ev
	}
	return a, nil
}

func decodeTarget(t map[string]any) domain.Target {
	var out domain.Target
	if t == nil {
		return out
	}
	days := intList(t["day_numbers"])
	if len(days) == 0 {
		if d, ok := toInt(t["day_number"]); ok {
			days = []int{d}
		}
	}
	if len(days) > 0 {
		out.DayNumbers = days
	}
	switch domain.ApplyTo(strings.ToLower(strings.TrimSpace(asString(t["apply_to"])))) {
	case domain.ApplyAll:
		out.ApplyTo = domain.ApplyAll
		out.DayNumbers = nil
	case domain.ApplyInferred:
		out.ApplyTo = domain.ApplyInferred
	case domain.ApplySpecific:
		out.ApplyTo = domain.ApplySpecific
	default:
		if len(out.DayNumbers) > 0 {
			out.ApplyTo = domain.ApplySpecific
		}
	}
	if id, err := uuid.Parse(strings.TrimSpace(asString(t["asset_id"]))); err == nil && id != uuid.Nil {
		out.AssetID = &id
	}
	if mt := strings.TrimSpace(asString(t["match_text"])); mt != "" {
		out.MatchText = &mt
	}
	return out
}

// normalizeFields keeps known copy fields, lowercased and deduplicated.
// "image" is dropped since an image has no field subsets.
func normalizeFields(in []string) []string {
	known := map[string]bool{}
	for _, f := range domain.CopyFields {
		known[f] = true
	}
	seen := map[string]bool{}
	out := []string{}
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if !known[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func hasAny(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s := asString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intList(v any) []int {
	items, _ := v.([]any)
	seen := map[int]bool{}
	var out []int
	for _, it := range items {
		if n, ok := toInt(it); ok && n > 0 && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
