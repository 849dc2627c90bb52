package model

import (
	"fmt"
	"time"
)

// Gender selects one of the two narration voices generated per story.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Genders is the fixed processing order: male before female.
var Genders = []Gender{Male, Female}

// ParseGender maps "male"/"female" to a Gender.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case Male, Female:
		return Gender(s), nil
	}
	return "", fmt.Errorf("unknown voice %q: want male or female", s)
}

// Failure describes a story that ended a run with at least one voice still missing.
type Failure struct {
	StoryID string `json:"story_id"`
	Title   string `json:"title"`
	Voice   Gender `json:"voice,omitempty"`
	Error   string `json:"error"`
}

// Outcome of a single voice generation.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeFailed    Outcome = "failed"
)

// GenerationEvent is one row of the generation history ledger.
type GenerationEvent struct {
	RunID     string
	Variant   string
	StoryID   string
	Title     string
	Voice     Gender
	Path      string
	Outcome   Outcome
	Error     string
	Elapsed   time.Duration
	CreatedAt time.Time
}
