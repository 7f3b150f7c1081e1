package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateCarriesContract(t *testing.T) {
	tpl := New(0).Template()
	for _, want := range []string{
		resumePlaceholder,
		jdPlaceholder,
		`"matchScore"`,
		`"skillsMatched"`,
		`"missingSkills"`,
		`"suggestions"`,
		`"extraEdgeSuggestions"`,
		"ignore every demographic signal",
	} {
		assert.Contains(t, tpl, want)
	}
	assert.Equal(t, 1, strings.Count(tpl, resumePlaceholder))
	assert.Equal(t, 1, strings.Count(tpl, jdPlaceholder))
}

func TestBuildSubstitutesOnce(t *testing.T) {
	b := New(0)
	p, err := b.Build("Go engineer {JD_TEXT}", "Hiring a Go engineer {RESUME_TEXT}")
	require.NoError(t, err)

	assert.Contains(t, p.Text, "RESUME:\nGo engineer {JD_TEXT}")
	assert.Contains(t, p.Text, "JOB DESCRIPTION:\nHiring a Go engineer {RESUME_TEXT}")
	assert.Equal(t, Version, p.Version)
	assert.Len(t, p.Hash, 64)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := New(0)
	p1, err := b.Build("resume", "job description")
	require.NoError(t, err)
	p2, err := b.Build("resume", "job description")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	p3, err := b.Build("resume", "another job description")
	require.NoError(t, err)
	assert.NotEqual(t, p1.Hash, p3.Hash)
}

func TestBuildRejectsOversizedPrompt(t *testing.T) {
	b := New(len([]rune(New(0).Template())) + 10)

	_, err := b.Build(strings.Repeat("é", 60), "jd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = b.Build("short", "jd")
	assert.NoError(t, err)
}
