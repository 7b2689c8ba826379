package prompts

import (
	"fmt"
	"strings"
)

type Validator func(Input) error

func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if get == nil {
			return fmt.Errorf("validator for %s: getter is nil", field)
		}
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("%s required", field)
		}
		return nil
	}
}

func RequirePositive(field string, get func(Input) int) Validator {
	return func(in Input) error {
		if get(in) <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
		return nil
	}
}

var (
	title       = RequireNonEmpty("Title", func(in Input) string { return in.Title })
	platform    = RequireNonEmpty("Platform", func(in Input) string { return in.Platform })
	day         = RequirePositive("Day", func(in Input) int { return in.Day })
	previous    = RequireNonEmpty("PreviousJSON", func(in Input) string { return in.PreviousJSON })
	instruction = RequireNonEmpty("Instruction", func(in Input) string { return in.Instruction })
	message     = RequireNonEmpty("Message", func(in Input) string { return in.Message })
)

var validators = map[Name][]Validator{
	CopyGenerate:      {title, platform, day},
	CopyRegenerate:    {title, platform, day, previous, instruction},
	ImagePrompt:       {title},
	ImageRegenerate:   {title, instruction},
	InfluencerQueries: {platform},
	PlanGenerate:      {title},
	PlanRegenerate:    {title, previous, instruction},
	StrategyDraft:     {RequireNonEmpty("Brief", func(in Input) string { return in.Brief })},
	StrategyRefine:    {RequireNonEmpty("DraftJSON", func(in Input) string { return in.DraftJSON }), message},
	StrategyReply:     {message},
	PlannerClassify:   {message},
}
