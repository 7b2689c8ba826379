package campaign

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// Copy field names accepted in field subsets.
const (
	FieldCaption     = "caption"
	FieldHashtags    = "hashtags"
	FieldCTA         = "cta"
	FieldHeadline    = "headline"
	FieldDescription = "description"
)

var CopyFields = []string{FieldCaption, FieldHashtags, FieldCTA, FieldHeadline, FieldDescription}

type CopyContent struct {
	Platform    string         `json:"platform"`
	Caption     string         `json:"caption"`
	Hashtags    []string       `json:"hashtags"`
	CTA         string         `json:"cta"`
	Headline    string         `json:"headline"`
	Description string         `json:"description"`
	Extras      map[string]any `json:"-"`
}

var copyKeys = []string{"platform", "caption", "hashtags", "cta", "headline", "description"}

func (c CopyContent) MarshalJSON() ([]byte, error) {
	type alias CopyContent
	return marshalWithExtras(alias(c), c.Extras)
}

func (c *CopyContent) UnmarshalJSON(data []byte) error {
	type alias CopyContent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := splitExtras(data, copyKeys)
	if err != nil {
		return err
	}
	*c = CopyContent(a)
	c.Extras = extras
	return nil
}

// Normalize fills empty fields with defaults and forces hashtags to start with '#'.
func (c *CopyContent) Normalize(platform string) {
	if strings.TrimSpace(c.Platform) == "" {
		c.Platform = platform
	}
	if strings.TrimSpace(c.Caption) == "" {
		c.Caption = "Check out our latest campaign!"
	}
	tags := make([]string, 0, len(c.Hashtags))
	for _, t := range c.Hashtags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		tags = append(tags, t)
	}
	if len(tags) == 0 {
		tags = []string{"#Campaign", "#Marketing"}
	}
	c.Hashtags = tags
	if strings.TrimSpace(c.CTA) == "" {
		c.CTA = "Learn more!"
	}
	if strings.TrimSpace(c.Headline) == "" {
		c.Headline = "Exciting News"
	}
	if strings.TrimSpace(c.Description) == "" {
		c.Description = "Campaign announcement"
	}
}

// Merge returns prev with only the named fields taken from next. An empty
// field list takes every field from next.
func (c CopyContent) Merge(next CopyContent, fields []string) CopyContent {
	if len(fields) == 0 {
		return next
	}
	out := c
	out.Hashtags = append([]string(nil), c.Hashtags...)
	for _, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FieldCaption:
			out.Caption = next.Caption
		case FieldHashtags:
			out.Hashtags = append([]string(nil), next.Hashtags...)
		case FieldCTA:
			out.CTA = next.CTA
		case FieldHeadline:
			out.Headline = next.Headline
		case FieldDescription:
			out.Description = next.Description
		}
	}
	return out
}

type ImageContent struct {
	ImageURL string         `json:"image_url"`
	Prompt   string         `json:"prompt"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Extras   map[string]any `json:"-"`
}

var imageKeys = []string{"image_url", "prompt", "width", "height"}

func (c ImageContent) MarshalJSON() ([]byte, error) {
	type alias ImageContent
	return marshalWithExtras(alias(c), c.Extras)
}

func (c *ImageContent) UnmarshalJSON(data []byte) error {
	type alias ImageContent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := splitExtras(data, imageKeys)
	if err != nil {
		return err
	}
	*c = ImageContent(a)
	c.Extras = extras
	return nil
}

type InfluencerContent struct {
	Name       string         `json:"name"`
	Handle     string         `json:"handle"`
	Platform   string         `json:"platform"`
	Followers  string         `json:"followers"`
	ProfileURL string         `json:"profile_url"`
	Snippet    string         `json:"snippet"`
	Relevance  float64        `json:"relevance_score"`
	Why        string         `json:"why"`
	Extras     map[string]any `json:"-"`
}

var influencerKeys = []string{"name", "handle", "platform", "followers", "profile_url", "snippet", "relevance_score", "why"}

func (c InfluencerContent) MarshalJSON() ([]byte, error) {
	type alias InfluencerContent
	return marshalWithExtras(alias(c), c.Extras)
}

func (c *InfluencerContent) UnmarshalJSON(data []byte) error {
	type alias InfluencerContent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := splitExtras(data, influencerKeys)
	if err != nil {
		return err
	}
	*c = InfluencerContent(a)
	c.Extras = extras
	return nil
}

type PlanPhase struct {
	Name     string   `json:"name"`
	Duration string   `json:"duration"`
	Steps    []string `json:"steps"`
}

type ChecklistItem struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority"`
}

type PlanContent struct {
	Phases          []PlanPhase     `json:"phases"`
	Timeline        string          `json:"timeline"`
	Checklist       []ChecklistItem `json:"checklist"`
	KeyMilestones   []string        `json:"key_milestones"`
	SuccessMetrics  []string        `json:"success_metrics"`
	Recommendations string          `json:"recommendations"`
	Extras          map[string]any  `json:"-"`
}

var planKeys = []string{"phases", "timeline", "checklist", "key_milestones", "success_metrics", "recommendations"}

func (c PlanContent) MarshalJSON() ([]byte, error) {
	type alias PlanContent
	return marshalWithExtras(alias(c), c.Extras)
}

func (c *PlanContent) UnmarshalJSON(data []byte) error {
	type alias PlanContent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := splitExtras(data, planKeys)
	if err != nil {
		return err
	}
	*c = PlanContent(a)
	c.Extras = extras
	return nil
}

// DefaultPlan is used whenever a generated plan is missing a section.
func DefaultPlan() PlanContent {
	return PlanContent{
		Phases: []PlanPhase{
			{Name: "Pre-Launch", Duration: "1 week before", Steps: []string{"Prepare assets", "Contact influencers", "Schedule posts"}},
			{Name: "Launch", Duration: "Campaign duration", Steps: []string{"Publish content", "Monitor engagement", "Respond to comments"}},
			{Name: "Post-Launch", Duration: "1 week after", Steps: []string{"Analyze results", "Thank participants", "Document learnings"}},
		},
		Timeline: "Multi-phase campaign execution",
		Checklist: []ChecklistItem{
			{Task: "Finalize all content", Completed: false, Priority: "high"},
			{Task: "Schedule posts", Completed: false, Priority: "high"},
			{Task: "Contact influencers", Completed: false, Priority: "medium"},
		},
		KeyMilestones:   []string{"Campaign launch", "Mid-campaign review", "Campaign completion"},
		SuccessMetrics:  []string{"Engagement rate", "Reach", "Conversions"},
		Recommendations: "Monitor performance daily and adjust strategy as needed.",
	}
}

// Normalize replaces empty sections with the default plan's.
func (c *PlanContent) Normalize() {
	def := DefaultPlan()
	if len(c.Phases) == 0 {
		c.Phases = def.Phases
	}
	if strings.TrimSpace(c.Timeline) == "" {
		c.Timeline = def.Timeline
	}
	if len(c.Checklist) == 0 {
		c.Checklist = def.Checklist
	}
	for i := range c.Checklist {
		if c.Checklist[i].Priority == "" {
			c.Checklist[i].Priority = "medium"
		}
	}
	if len(c.KeyMilestones) == 0 {
		c.KeyMilestones = def.KeyMilestones
	}
	if len(c.SuccessMetrics) == 0 {
		c.SuccessMetrics = def.SuccessMetrics
	}
	if strings.TrimSpace(c.Recommendations) == "" {
		c.Recommendations = def.Recommendations
	}
}

// ChangedFields lists the top-level JSON keys whose values differ between two
// documents of the same kind.
func ChangedFields(prev, next any) []string {
	a := toFieldMap(prev)
	b := toFieldMap(next)
	seen := map[string]bool{}
	var out []string
	for _, key := range orderedKeys(a, b) {
		if seen[key] {
			continue
		}
		seen[key] = true
		if !reflect.DeepEqual(a[key], b[key]) {
			out = append(out, key)
		}
	}
	return out
}

func toFieldMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func orderedKeys(maps ...map[string]any) []string {
	var keys []string
	for _, m := range maps {
		for k := range m {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// EncodeContent marshals typed content for storage.
func EncodeContent(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// DecodeContent unmarshals stored content into a typed document.
func DecodeContent[T any](raw datatypes.JSON) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}

func marshalWithExtras(v any, extras map[string]any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil || len(extras) == 0 {
		return raw, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, val := range extras {
		if _, taken := m[k]; taken {
			continue
		}
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		m[k] = b
	}
	return json.Marshal(m)
}

func splitExtras(data []byte, known []string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(m, k)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
