package analyses

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/prompt"
	"resume-matcher/internal/shared/testutil"
)

const validAnswer = `{
  "matchScore": 82.5,
  "skillsMatched": ["Go", "PostgreSQL"],
  "missingSkills": ["Kubernetes"],
  "suggestions": ["Quantify the impact of the billing migration"],
  "extraEdgeSuggestions": [{"title": "Show scale", "description": "Mention request volume"}],
  "atsCompliance": {"complianceScore": 90},
  "scoreReasoning": "Strong backend overlap."
}`

func pdfResume(t *testing.T, lines ...string) *UploadedResume {
	t.Helper()
	return &UploadedResume{
		FileName:  "resume.pdf",
		MediaType: "application/pdf",
		Data:      testutil.PaddedPDF(2048, lines),
	}
}

func jobDescription() string {
	return "Backend engineer with Go, PostgreSQL and Kubernetes"
}

// countingLLM answers every call with resp and counts invocations.
type countingLLM struct {
	calls atomic.Int32
	resp  func(p prompt.Prompt) (string, error)
}

func (c *countingLLM) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	c.calls.Add(1)
	return c.resp(p)
}

func staticLLM(answer string) *countingLLM {
	return &countingLLM{resp: func(prompt.Prompt) (string, error) { return answer, nil }}
}

var _ llm.Client = (*countingLLM)(nil)

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func jsonLines(raw string) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		var entry map[string]any
		if json.Unmarshal([]byte(line), &entry) == nil {
			out = append(out, entry)
		}
	}
	return out
}
