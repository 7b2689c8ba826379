package campaign

import (
	"strings"

	"github.com/google/uuid"
)

type Operation string

const (
	OpRegenerate    Operation = "regenerate"
	OpModifyContent Operation = "modify_content"
	OpChangeStyle   Operation = "change_style"
	OpAddElement    Operation = "add_element"
	OpRemoveElement Operation = "remove_element"
)

// ParseOperation maps planner vocabulary onto operations. The legacy
// "modify_fields" is an alias of modify_content.
func ParseOperation(raw string) (Operation, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "regenerate":
		return OpRegenerate, true
	case "modify_content", "modify_fields", "modify":
		return OpModifyContent, true
	case "change_style":
		return OpChangeStyle, true
	case "add_element":
		return OpAddElement, true
	case "remove_element":
		return OpRemoveElement, true
	default:
		return "", false
	}
}

type ApplyTo string

const (
	ApplySpecific ApplyTo = "specific"
	ApplyAll      ApplyTo = "all"
	ApplyInferred ApplyTo = "inferred"
)

type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// ModeFor is sync only for the low-latency copy generator.
func ModeFor(k Kind) Mode {
	if k == KindCopy {
		return ModeSync
	}
	return ModeAsync
}

// Target locates the assets an action applies to. DayNumbers is nil for
// apply_to=all.
type Target struct {
	DayNumbers []int      `json:"day_numbers"`
	ApplyTo    ApplyTo    `json:"apply_to"`
	AssetID    *uuid.UUID `json:"asset_id,omitempty"`
	MatchText  *string    `json:"match_text"`
}

// Action is one self-contained unit of modification work.
type Action struct {
	Agent       Kind      `json:"agent"`
	Operation   Operation `json:"operation"`
	Target      Target    `json:"target"`
	Fields      []string  `json:"fields"`
	Instruction string    `json:"instruction"`
	Evidence    *string   `json:"evidence"`
	ModeHint    Mode      `json:"mode_hint"`
}

// RouteMode is sync iff every action targets copy. An empty batch is sync.
func RouteMode(actions []Action) Mode {
	for _, a := range actions {
		if ModeFor(a.Agent) == ModeAsync {
			return ModeAsync
		}
	}
	return ModeSync
}
