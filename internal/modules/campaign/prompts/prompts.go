// Package prompts holds the templated model prompts used by the campaign
// generators and the modification planner.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
	"github.com/yungbote/campaign-canvas-backend/internal/platform/gemini"
)

const promptsOverrideEnv = "CAMPAIGN_PROMPTS_YAML"

//go:embed prompts.yaml
var promptsFS embed.FS

type Name string

const (
	CopyGenerate      Name = "copy_generate"
	CopyRegenerate    Name = "copy_regenerate"
	ImagePrompt       Name = "image_prompt"
	ImageRegenerate   Name = "image_regenerate"
	InfluencerQueries Name = "influencer_queries"
	PlanGenerate      Name = "plan_generate"
	PlanRegenerate    Name = "plan_regenerate"
	StrategyDraft     Name = "strategy_draft"
	StrategyRefine    Name = "strategy_refine"
	StrategyReply     Name = "strategy_reply"
	PlannerClassify   Name = "planner_classify"
)

// Names lists every prompt the library must define.
var Names = []Name{
	CopyGenerate, CopyRegenerate, ImagePrompt, ImageRegenerate, InfluencerQueries,
	PlanGenerate, PlanRegenerate, StrategyDraft, StrategyRefine, StrategyReply, PlannerClassify,
}

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Strategy
	Title        string
	Audience     string
	Platform     string
	Platforms    string
	Themes       string
	Notes        string
	PrimaryColor string
	ScheduleJSON string
	Days         int
	// Day slot
	Day         int
	ContentType string
	Time        string
	// Assets
	Caption        string
	PreviousJSON   string
	PreviousPrompt string
	PostCount      int
	ImageCount     int
	Preference     string
	// Edits
	Instruction string
	Fields      string
	// Chat
	Brief        string
	History      string
	DraftJSON    string
	Message      string
	DraftSummary string
	// Planner
	CanvasSummary string
	StrategyJSON  string
}

// Prompt is a rendered prompt plus its sampling settings.
type Prompt struct {
	Name        Name
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// Request turns the prompt into a completion call. JSON prompts carry the
// strict-JSON instruction in their system text.
func (p Prompt) Request() gemini.CompleteRequest {
	system := p.System
	if p.JSON {
		system += gemini.JSONInstruction
	}
	return gemini.CompleteRequest{
		Prompt:          p.User,
		System:          strings.TrimSpace(system),
		Temperature:     p.Temperature,
		MaxOutputTokens: p.MaxTokens,
	}
}

type yamlLibrary struct {
	Library string       `yaml:"library"`
	Version int          `yaml:"version"`
	Prompts []yamlPrompt `yaml:"prompts"`
}

type yamlPrompt struct {
	Name        string  `yaml:"name"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	JSON        bool    `yaml:"json"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
}

type compiled struct {
	spec   yamlPrompt
	system *template.Template
	user   *template.Template
}

// Library is a parsed, compiled prompt set.
type Library struct {
	Version   int
	templates map[Name]compiled
}

// Parse compiles a YAML prompt library. Every name in Names must be present.
func Parse(data []byte) (*Library, error) {
	var doc yamlLibrary
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Library) != "campaign" {
		return nil, fmt.Errorf("unexpected prompt library: %q", doc.Library)
	}
	lib := &Library{Version: doc.Version, templates: make(map[Name]compiled, len(doc.Prompts))}
	for _, p := range doc.Prompts {
		name := Name(strings.TrimSpace(p.Name))
		if name == "" {
			return nil, errors.New("prompt name is required")
		}
		if _, dup := lib.templates[name]; dup {
			return nil, fmt.Errorf("duplicate prompt: %s", name)
		}
		if strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("%s: user template is empty", name)
		}
		sysT, err := template.New("system").Option("missingkey=zero").Parse(p.System)
		if err != nil {
			return nil, fmt.Errorf("%s system template parse: %w", name, err)
		}
		userT, err := template.New("user").Option("missingkey=zero").Parse(p.User)
		if err != nil {
			return nil, fmt.Errorf("%s user template parse: %w", name, err)
		}
		lib.templates[name] = compiled{spec: p, system: sysT, user: userT}
	}
	for _, name := range Names {
		if _, ok := lib.templates[name]; !ok {
			return nil, fmt.Errorf("missing prompt: %s", name)
		}
	}
	return lib, nil
}

// Build validates in for the named prompt and renders it.
func (l *Library) Build(name Name, in Input) (Prompt, error) {
	t, ok := l.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", name)
	}
	for _, v := range validators[name] {
		if err := v(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	system, err := render(t.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", name, err)
	}
	user, err := render(t.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", name, err)
	}
	return Prompt{
		Name:        name,
		System:      system,
		User:        user,
		Temperature: t.spec.Temperature,
		MaxTokens:   t.spec.MaxTokens,
		JSON:        t.spec.JSON,
	}, nil
}

func render(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
	warnOnce    sync.Once
)

// Default returns the process-wide library. A CAMPAIGN_PROMPTS_YAML override
// that fails to load is logged and the embedded library is used instead.
func Default(log *logger.Logger) *Library {
	defaultOnce.Do(func() {
		if path := strings.TrimSpace(os.Getenv(promptsOverrideEnv)); path != "" {
			data, err := os.ReadFile(path)
			if err == nil {
				defaultLib, err = Parse(data)
			}
			if err == nil {
				return
			}
			defaultErr = fmt.Errorf("load %s: %w", path, err)
		}
		data, err := promptsFS.ReadFile("prompts.yaml")
		if err != nil {
			panic(fmt.Sprintf("prompts: embedded library unreadable: %v", err))
		}
		lib, err := Parse(data)
		if err != nil {
			panic(fmt.Sprintf("prompts: embedded library invalid: %v", err))
		}
		defaultLib = lib
	})
	if defaultErr != nil && log != nil {
		warnOnce.Do(func() {
			log.Warn("prompts: override load failed; using embedded library", "error", defaultErr)
		})
	}
	return defaultLib
}

// Embedded parses the compiled-in library, bypassing any override.
func Embedded() (*Library, error) {
	data, err := promptsFS.ReadFile("prompts.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
