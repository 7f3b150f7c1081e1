package records

import "time"

// EdgeSuggestion mirrors the analysis result's strategic suggestion.
type EdgeSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Record is one saved analysis. Records are append-only.
type Record struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"userId"`
	ResumeName           string           `json:"resumeName"`
	ResumeKey            string           `json:"resumeKey"`
	JobDescription       string           `json:"jobDescription"`
	MatchScore           float64          `json:"matchScore"`
	SkillsMatched        []string         `json:"skillsMatched"`
	MissingSkills        []string         `json:"missingSkills"`
	Suggestions          []string         `json:"suggestions"`
	ExtraEdgeSuggestions []EdgeSuggestion `json:"extraEdgeSuggestions"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// Stats aggregates a user's saved analyses.
type Stats struct {
	Total        int        `json:"total"`
	AverageScore int        `json:"averageScore"`
	LatestAt     *time.Time `json:"latestAt,omitempty"`
}

func (r *Record) normalizeLists() {
	if r.SkillsMatched == nil {
		r.SkillsMatched = []string{}
	}
	if r.MissingSkills == nil {
		r.MissingSkills = []string{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.ExtraEdgeSuggestions == nil {
		r.ExtraEdgeSuggestions = []EdgeSuggestion{}
	}
}
