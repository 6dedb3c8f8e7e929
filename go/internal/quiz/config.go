package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
)

// Limits applied when building a Config.
const (
	MaxSlides            = 100
	MaxTitleLength       = 200
	MaxChoices           = 8
	MaxAnswerTextLength  = 200
	MaxTimeLimit         = 10 * time.Minute
	MaxIntroduceQuestion = 30 * time.Second
	MaxPoints            = 100_000
	MaxTeamSize          = 50

	DefaultPoints          = 1000
	DefaultSpeedFloor      = 0.5
	DefaultMaxPlayers      = 1000
	DefaultLeaderboardSize = 50
)

// Document is the authored form of a quiz, as read from YAML files or the
// create request body.
type Document struct {
	Title  string      `json:"title" yaml:"title"`
	Slides []SlideSpec `json:"slides" yaml:"slides"`
}

// SlideSpec is the authored form of a slide. Which answer-key fields apply
// depends on Type.
type SlideSpec struct {
	Type                Kind   `json:"type" yaml:"type"`
	Title               string `json:"title" yaml:"title"`
	IntroduceQuestionMs int64  `json:"introduce_question_ms,omitempty" yaml:"introduce_question_ms,omitempty"`
	TimeLimitMs         int64  `json:"time_limit_ms,omitempty" yaml:"time_limit_ms,omitempty"`
	Points              int    `json:"points,omitempty" yaml:"points,omitempty"`

	// multiple_choice
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	// true_false
	Answer *bool `json:"answer,omitempty" yaml:"answer,omitempty"`
	// type_answer
	Accepted      []string `json:"accepted,omitempty" yaml:"accepted,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
	// order
	Items         []string `json:"items,omitempty" yaml:"items,omitempty"`
	PartialCredit bool     `json:"partial_credit,omitempty" yaml:"partial_credit,omitempty"`
}

// Options are the per-game rules supplied at creation. Zero values fall
// back to server defaults, then to the package defaults.
type Options struct {
	DefaultTimeLimitMs int64        `json:"default_time_limit_ms,omitempty" yaml:"default_time_limit_ms,omitempty"`
	DefaultPoints      int          `json:"default_points,omitempty" yaml:"default_points,omitempty"`
	SpeedFloor         *float64     `json:"speed_floor,omitempty" yaml:"speed_floor,omitempty"`
	AllowLateJoin      *bool        `json:"allow_late_join,omitempty" yaml:"allow_late_join,omitempty"`
	MaxPlayers         int          `json:"max_players,omitempty" yaml:"max_players,omitempty"`
	LeaderboardSize    int          `json:"leaderboard_size,omitempty" yaml:"leaderboard_size,omitempty"`
	Teams              *TeamOptions `json:"teams,omitempty" yaml:"teams,omitempty"`
}

// TeamOptions turn on team play. Players are split into teams of about Size
// when the game starts.
type TeamOptions struct {
	Size int `json:"size" yaml:"size"`
	// AssignRandom ignores the teammates players ask for in the lobby.
	AssignRandom bool `json:"assign_random,omitempty" yaml:"assign_random,omitempty"`
}

// Merge fills every unset field of o from defaults.
func (o Options) Merge(defaults Options) Options {
	if o.DefaultTimeLimitMs == 0 {
		o.DefaultTimeLimitMs = defaults.DefaultTimeLimitMs
	}
	if o.DefaultPoints == 0 {
		o.DefaultPoints = defaults.DefaultPoints
	}
	if o.SpeedFloor == nil {
		o.SpeedFloor = defaults.SpeedFloor
	}
	if o.AllowLateJoin == nil {
		o.AllowLateJoin = defaults.AllowLateJoin
	}
	if o.MaxPlayers == 0 {
		o.MaxPlayers = defaults.MaxPlayers
	}
	if o.LeaderboardSize == 0 {
		o.LeaderboardSize = defaults.LeaderboardSize
	}
	if o.Teams == nil {
		o.Teams = defaults.Teams
	}
	return o
}

// Rules are resolved Options with every default applied.
type Rules struct {
	SpeedFloor      float64 `json:"speed_floor"`
	AllowLateJoin   bool    `json:"allow_late_join"`
	MaxPlayers      int     `json:"max_players"`
	LeaderboardSize int     `json:"leaderboard_size"`
	// Teams is nil for solo play.
	Teams *TeamOptions `json:"teams,omitempty"`
}

// Config is a validated, immutable quiz ready to be played.
type Config struct {
	Title  string
	Slides []Slide
	Rules  Rules
}

func (c *Config) Len() int { return len(c.Slides) }

// NewConfig validates doc under opts and builds the slides. Every problem
// found is reported in a single ErrConfigInvalid.
func NewConfig(doc Document, opts Options) (*Config, error) {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(doc.Title) > MaxTitleLength {
		report("title longer than %d bytes", MaxTitleLength)
	}
	if len(doc.Slides) == 0 {
		report("at least one slide is required")
	}
	if len(doc.Slides) > MaxSlides {
		report("at most %d slides are allowed", MaxSlides)
	}

	rules := Rules{
		SpeedFloor:      DefaultSpeedFloor,
		MaxPlayers:      DefaultMaxPlayers,
		LeaderboardSize: DefaultLeaderboardSize,
	}
	if opts.SpeedFloor != nil {
		rules.SpeedFloor = *opts.SpeedFloor
	}
	if rules.SpeedFloor < 0 || rules.SpeedFloor > 1 {
		report("speed_floor must be within [0,1]")
	}
	if opts.AllowLateJoin != nil {
		rules.AllowLateJoin = *opts.AllowLateJoin
	}
	if opts.MaxPlayers < 0 || opts.LeaderboardSize < 0 || opts.DefaultPoints < 0 || opts.DefaultTimeLimitMs < 0 {
		report("options must not be negative")
	}
	if opts.Teams != nil {
		if opts.Teams.Size < 1 || opts.Teams.Size > MaxTeamSize {
			report("team size must be within [1,%d]", MaxTeamSize)
		}
		teams := *opts.Teams
		rules.Teams = &teams
	}
	if opts.MaxPlayers > 0 {
		rules.MaxPlayers = opts.MaxPlayers
	}
	if opts.LeaderboardSize > 0 {
		rules.LeaderboardSize = opts.LeaderboardSize
	}

	cfg := &Config{Title: doc.Title, Rules: rules}
	for i, spec := range doc.Slides {
		slide, err := buildSlide(spec, opts)
		if err != nil {
			report("slide %d: %v", i, err)
			continue
		}
		cfg.Slides = append(cfg.Slides, slide)
	}

	if len(problems) > 0 {
		return nil, gameerr.Withf(gameerr.ErrConfigInvalid, "%s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func buildSlide(spec SlideSpec, opts Options) (Slide, error) {
	limitMs := spec.TimeLimitMs
	if limitMs == 0 {
		limitMs = opts.DefaultTimeLimitMs
	}

	// Millisecond values are bounded before conversion so a huge value
	// cannot wrap around into the allowed range.
	switch {
	case strings.TrimSpace(spec.Title) == "":
		return nil, fmt.Errorf("title is required")
	case len(spec.Title) > MaxTitleLength:
		return nil, fmt.Errorf("title longer than %d bytes", MaxTitleLength)
	case limitMs <= 0:
		return nil, fmt.Errorf("time limit must be positive")
	case limitMs > MaxTimeLimit.Milliseconds():
		return nil, fmt.Errorf("time limit above %s", MaxTimeLimit)
	case spec.IntroduceQuestionMs < 0 || spec.IntroduceQuestionMs > MaxIntroduceQuestion.Milliseconds():
		return nil, fmt.Errorf("introduce question delay outside [0,%s]", MaxIntroduceQuestion)
	}

	p := Prompt{
		Title:             spec.Title,
		IntroduceQuestion: time.Duration(spec.IntroduceQuestionMs) * time.Millisecond,
		TimeLimit:         time.Duration(limitMs) * time.Millisecond,
		Points:            spec.Points,
	}
	if p.Points == 0 {
		p.Points = opts.DefaultPoints
	}
	if p.Points == 0 {
		p.Points = DefaultPoints
	}
	if p.Points < 0 || p.Points > MaxPoints {
		return nil, fmt.Errorf("points outside [0,%d]", MaxPoints)
	}

	switch spec.Type {
	case KindMultipleChoice:
		if len(spec.Choices) < 2 {
			return nil, fmt.Errorf("multiple choice needs at least 2 choices")
		}
		if len(spec.Choices) > MaxChoices {
			return nil, fmt.Errorf("multiple choice allows at most %d choices", MaxChoices)
		}
		anyCorrect := false
		for _, c := range spec.Choices {
			if err := checkText(c.Text); err != nil {
				return nil, err
			}
			anyCorrect = anyCorrect || c.Correct
		}
		if !anyCorrect {
			return nil, fmt.Errorf("multiple choice needs a correct choice")
		}
		return &MultipleChoice{prompt: p, choices: append([]Choice(nil), spec.Choices...)}, nil

	case KindTrueFalse:
		if spec.Answer == nil {
			return nil, fmt.Errorf("true/false needs an answer")
		}
		return &TrueFalse{prompt: p, answer: *spec.Answer}, nil

	case KindTypeAnswer:
		if len(spec.Accepted) == 0 {
			return nil, fmt.Errorf("type answer needs at least one accepted answer")
		}
		for _, a := range spec.Accepted {
			if err := checkText(a); err != nil {
				return nil, err
			}
		}
		return &TypeAnswer{prompt: p, accepted: append([]string(nil), spec.Accepted...), caseSensitive: spec.CaseSensitive}, nil

	case KindOrder:
		if len(spec.Items) < 2 {
			return nil, fmt.Errorf("order needs at least 2 items")
		}
		if len(spec.Items) > MaxChoices {
			return nil, fmt.Errorf("order allows at most %d items", MaxChoices)
		}
		for _, it := range spec.Items {
			if err := checkText(it); err != nil {
				return nil, err
			}
		}
		return &Order{prompt: p, items: append([]string(nil), spec.Items...), partialCredit: spec.PartialCredit}, nil

	default:
		return nil, fmt.Errorf("unknown slide type %q", spec.Type)
	}
}

func checkText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("answer text must not be empty")
	}
	if len(s) > MaxAnswerTextLength {
		return fmt.Errorf("answer text longer than %d bytes", MaxAnswerTextLength)
	}
	return nil
}
