package analyses

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResultAcceptsContract(t *testing.T) {
	res, err := ValidateResult(validAnswer)
	require.NoError(t, err)

	assert.Equal(t, 82.5, res.MatchScore)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, res.SkillsMatched)
	assert.Equal(t, []string{"Kubernetes"}, res.MissingSkills)
	assert.Len(t, res.Suggestions, 1)
	assert.Equal(t, []EdgeSuggestion{{Title: "Show scale", Description: "Mention request volume"}}, res.ExtraEdgeSuggestions)
}

func TestValidateResultDropsUnknownKeys(t *testing.T) {
	res, err := ValidateResult(validAnswer)
	require.NoError(t, err)

	out := mustMarshal(t, res)
	assert.NotContains(t, out, "atsCompliance")
	assert.NotContains(t, out, "scoreReasoning")
}

func TestValidateResultRoundTrip(t *testing.T) {
	results := []Result{
		{MatchScore: 0, SkillsMatched: []string{}, MissingSkills: []string{}, Suggestions: []string{}, ExtraEdgeSuggestions: []EdgeSuggestion{}},
		{MatchScore: 100, SkillsMatched: []string{"Go", "Go"}, MissingSkills: []string{"Rust"}, Suggestions: []string{"a"}, ExtraEdgeSuggestions: []EdgeSuggestion{{Title: "", Description: ""}}},
		{MatchScore: 67.25, SkillsMatched: []string{"SQL"}, MissingSkills: []string{}, Suggestions: []string{"b", "c"}, ExtraEdgeSuggestions: []EdgeSuggestion{{Title: "t", Description: "d"}}},
	}
	for _, want := range results {
		got, err := ValidateResult(mustMarshal(t, want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestResultMarshalsEmptyListsAsArrays(t *testing.T) {
	out := mustMarshal(t, Result{MatchScore: 50})
	assert.JSONEq(t, `{"matchScore":50,"skillsMatched":[],"missingSkills":[],"suggestions":[],"extraEdgeSuggestions":[]}`, out)
}

func TestValidateResultRejectsStringScore(t *testing.T) {
	raw := `{"matchScore":"90","skillsMatched":[],"missingSkills":[],"suggestions":[],"extraEdgeSuggestions":[]}`

	_, err := ValidateResult(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaValidationFailed))
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "matchScore", ae.Field)
}

func TestValidateResultFieldPaths(t *testing.T) {
	base := func(override string) string {
		fields := map[string]string{
			"matchScore":           `70`,
			"skillsMatched":        `[]`,
			"missingSkills":        `[]`,
			"suggestions":          `[]`,
			"extraEdgeSuggestions": `[]`,
		}
		key, val, _ := strings.Cut(override, "=")
		if val == "<missing>" {
			delete(fields, key)
		} else if key != "" {
			fields[key] = val
		}
		parts := make([]string, 0, len(fields))
		for k, v := range fields {
			parts = append(parts, `"`+k+`":`+v)
		}
		return "{" + strings.Join(parts, ",") + "}"
	}

	cases := []struct {
		override string
		field    string
	}{
		{"matchScore=<missing>", "matchScore"},
		{"matchScore=-1", "matchScore"},
		{"matchScore=100.01", "matchScore"},
		{"matchScore=1e400", "matchScore"},
		{"matchScore=null", "matchScore"},
		{"skillsMatched=<missing>", "skillsMatched"},
		{"skillsMatched=null", "skillsMatched"},
		{`skillsMatched=["Go","SQL",3]`, "skillsMatched[2]"},
		{`missingSkills="Go"`, "missingSkills"},
		{`suggestions=[null]`, "suggestions[0]"},
		{`extraEdgeSuggestions=["tip"]`, "extraEdgeSuggestions[0]"},
		{`extraEdgeSuggestions=[{"description":"d"}]`, "extraEdgeSuggestions[0].title"},
		{`extraEdgeSuggestions=[{"title":"t","description":"d"},{"title":"t","description":5}]`, "extraEdgeSuggestions[1].description"},
	}
	for _, tc := range cases {
		t.Run(tc.override, func(t *testing.T) {
			_, err := ValidateResult(base(tc.override))
			var ae *Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, KindSchemaValidationFailed, ae.Kind)
			assert.Equal(t, tc.field, ae.Field)
		})
	}

	_, err := ValidateResult(base(""))
	assert.NoError(t, err)
}

func TestValidateResultRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{"", "   ", "not json", "[]", `"text"`, `{"matchScore":1} trailing`, "{"} {
		_, err := ValidateResult(raw)
		assert.ErrorIs(t, err, ErrSchemaValidationFailed, "input %q", raw)
	}
}

func TestValidateResultStripsCodeFence(t *testing.T) {
	res, err := ValidateResult("```json\n" + validAnswer + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 82.5, res.MatchScore)

	res, err = ValidateResult("```\n" + validAnswer + "```")
	require.NoError(t, err)
	assert.Equal(t, 82.5, res.MatchScore)
}

func TestResultValidate(t *testing.T) {
	assert.NoError(t, Result{MatchScore: 0}.Validate())
	assert.NoError(t, Result{MatchScore: 100}.Validate())
	assert.ErrorIs(t, Result{MatchScore: 101}.Validate(), ErrSchemaValidationFailed)
	assert.ErrorIs(t, Result{MatchScore: -0.5}.Validate(), ErrSchemaValidationFailed)
}
