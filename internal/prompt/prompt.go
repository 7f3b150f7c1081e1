// Package prompt renders the résumé-matching instruction sent to the model.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"resume-matcher/internal/shared/util"
)

// Version identifies the embedded template; it is logged with every analysis.
const Version = "match_v1"

// DefaultMaxChars caps a rendered prompt when no limit is configured.
const DefaultMaxChars = 60000

const (
	resumePlaceholder = "{RESUME_TEXT}"
	jdPlaceholder     = "{JD_TEXT}"
)

//go:embed templates/match_v1.txt
var matchV1 string

// ErrTooLarge is returned when the rendered prompt exceeds the configured rune limit.
var ErrTooLarge = errors.New("prompt too large")

// Prompt is a fully rendered instruction. It is immutable once built.
type Prompt struct {
	Text    string
	Version string
	Hash    string
}

// Builder renders prompts from the embedded template.
type Builder struct {
	template string
	maxChars int
}

// New returns a Builder; maxChars <= 0 selects DefaultMaxChars.
func New(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Builder{template: strings.TrimSpace(matchV1), maxChars: maxChars}
}

// Template returns the raw template with its placeholders.
func (b *Builder) Template() string {
	return b.template
}

// MaxChars reports the rune limit applied by Build.
func (b *Builder) MaxChars() int {
	return b.maxChars
}

// Build substitutes both placeholders in a single pass, so placeholder-looking text
// inside the résumé or job description is never expanded.
func (b *Builder) Build(resumeText, jdText string) (Prompt, error) {
	r := strings.NewReplacer(resumePlaceholder, resumeText, jdPlaceholder, jdText)
	text := r.Replace(b.template)
	if n := utf8.RuneCountInString(text); n > b.maxChars {
		return Prompt{}, fmt.Errorf("%w: %d chars exceeds limit %d", ErrTooLarge, n, b.maxChars)
	}
	return Prompt{
		Text:    text,
		Version: Version,
		Hash:    util.SHA256Hex(text),
	}, nil
}
