package analyses

import (
	"encoding/json"
	"fmt"
	"math"
)

// EdgeSuggestion is a strategic improvement with a short title.
type EdgeSuggestion struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Result is the validated answer of one analysis.
type Result struct {
	MatchScore           float64          `json:"matchScore" yaml:"matchScore"`
	SkillsMatched        []string         `json:"skillsMatched" yaml:"skillsMatched"`
	MissingSkills        []string         `json:"missingSkills" yaml:"missingSkills"`
	Suggestions          []string         `json:"suggestions" yaml:"suggestions"`
	ExtraEdgeSuggestions []EdgeSuggestion `json:"extraEdgeSuggestions" yaml:"extraEdgeSuggestions"`
}

// MarshalJSON always renders lists as arrays, never null.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := plain(r)
	if out.SkillsMatched == nil {
		out.SkillsMatched = []string{}
	}
	if out.MissingSkills == nil {
		out.MissingSkills = []string{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	if out.ExtraEdgeSuggestions == nil {
		out.ExtraEdgeSuggestions = []EdgeSuggestion{}
	}
	return json.Marshal(out)
}

// Validate checks the invariants of an in-memory Result.
func (r Result) Validate() error {
	return checkScore(r.MatchScore)
}

func checkScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return schemaError("matchScore", "must be a finite number")
	}
	if score < 0 || score > 100 {
		return schemaError("matchScore", fmt.Sprintf("%v is outside 0..100", score))
	}
	return nil
}
