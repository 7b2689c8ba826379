package campaign

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

const (
	DefaultTitle    = "Untitled Campaign"
	DefaultAudience = "General audience"
	DefaultPlatform = "instagram"
)

var DefaultColorScheme = []string{"#4F46E5", "#7C3AED", "#EC4899"}

type ScheduleSlot struct {
	Time        string `json:"time"`
	ContentType string `json:"content_type"`
}

// Strategy is the campaign brief. Keys of PostingSchedule are "day_1".."day_N".
type Strategy struct {
	Title             string                  `json:"title"`
	TargetAudience    string                  `json:"target_audience"`
	ColorScheme       []string                `json:"color_scheme"`
	Platforms         []string                `json:"platforms"`
	PostingSchedule   map[string]ScheduleSlot `json:"posting_schedule"`
	ContentThemes     []string                `json:"content_themes"`
	AdditionalDetails string                  `json:"additional_details"`
	Extras            map[string]any          `json:"-"`
}

var strategyKeys = []string{
	"title", "target_audience", "color_scheme", "platforms",
	"posting_schedule", "content_themes", "additional_details",
}

func (s Strategy) MarshalJSON() ([]byte, error) {
	type alias Strategy
	return marshalWithExtras(alias(s), s.Extras)
}

func (s *Strategy) UnmarshalJSON(data []byte) error {
	type alias Strategy
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := splitExtras(data, strategyKeys)
	if err != nil {
		return err
	}
	*s = Strategy(a)
	s.Extras = extras
	return nil
}

// Normalize fills the defaults a generated or user-edited draft may lack.
func (s *Strategy) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	if strings.TrimSpace(s.TargetAudience) == "" {
		s.TargetAudience = DefaultAudience
	}
	colors := make([]string, 0, len(s.ColorScheme))
	for _, c := range s.ColorScheme {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) < 3 {
		colors = append([]string(nil), DefaultColorScheme...)
	}
	s.ColorScheme = colors
	platforms := make([]string, 0, len(s.Platforms))
	for _, p := range s.Platforms {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		platforms = []string{DefaultPlatform}
	}
	s.Platforms = platforms
	if s.PostingSchedule == nil {
		s.PostingSchedule = map[string]ScheduleSlot{}
	}
}

// Validate checks the palette, platform list and that the schedule is a dense 1..N range.
func (s *Strategy) Validate() error {
	if len(s.ColorScheme) < 3 {
		return fmt.Errorf("%w: color_scheme needs at least 3 colors", ErrInvalidStrategy)
	}
	if len(s.Platforms) == 0 {
		return fmt.Errorf("%w: platforms must not be empty", ErrInvalidStrategy)
	}
	n := len(s.PostingSchedule)
	for key := range s.PostingSchedule {
		day, ok := ParseDayKey(key)
		if !ok || day < 1 || day > n {
			return fmt.Errorf("%w: posting_schedule key %q outside day_1..day_%d", ErrInvalidStrategy, key, n)
		}
	}
	return nil
}

// Days returns the scheduled day numbers in ascending order.
func (s *Strategy) Days() []int {
	days := make([]int, 0, len(s.PostingSchedule))
	for key := range s.PostingSchedule {
		if day, ok := ParseDayKey(key); ok {
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days
}

func (s *Strategy) Slot(day int) (ScheduleSlot, bool) {
	slot, ok := s.PostingSchedule[DayKey(day)]
	return slot, ok
}

func (s *Strategy) PrimaryPlatform() string {
	if len(s.Platforms) == 0 || strings.TrimSpace(s.Platforms[0]) == "" {
		return DefaultPlatform
	}
	return s.Platforms[0]
}

func (s *Strategy) PrimaryColor() string {
	if len(s.ColorScheme) == 0 {
		return DefaultColorScheme[0]
	}
	return s.ColorScheme[0]
}

func DayKey(day int) string { return "day_" + strconv.Itoa(day) }

func ParseDayKey(key string) (int, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(key), "day_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// EncodeStrategy is the storage form of a strategy.
func EncodeStrategy(s Strategy) (datatypes.JSON, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeStrategy(raw datatypes.JSON) (Strategy, bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return Strategy{}, false, nil
	}
	var s Strategy
	if err := json.Unmarshal(raw, &s); err != nil {
		return Strategy{}, false, fmt.Errorf("decode strategy: %w", err)
	}
	return s, true, nil
}
