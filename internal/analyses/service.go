package analyses

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"resume-matcher/internal/extract"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/prompt"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/telemetry"
)

// Stage is a step of the analysis pipeline.
type Stage string

const (
	StageReceived   Stage = "received"
	StageExtracting Stage = "extracting"
	StagePrompting  Stage = "prompting"
	StageCallingAI  Stage = "calling_ai"
	StageValidating Stage = "validating"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

const maxLoggedResponse = 2000

// ExtractFunc pulls plain text out of an uploaded document.
type ExtractFunc func(ctx context.Context, data []byte, mediaType, fileName string) (string, error)

// Options tunes a Service.
type Options struct {
	// SchemaRetry is the number of extra model calls allowed after an answer fails
	// validation. Zero disables re-asking.
	SchemaRetry int
	// Extract overrides the text extractor; nil uses extract.Text.
	Extract ExtractFunc
}

// Service runs the analysis pipeline. Its fields are fixed at construction, so one
// Service serves concurrent requests without sharing per-request state.
type Service struct {
	prompts     *prompt.Builder
	llm         llm.Client
	extract     ExtractFunc
	schemaRetry int
}

// NewService wires the pipeline stages together.
func NewService(prompts *prompt.Builder, client llm.Client, opts Options) *Service {
	if prompts == nil {
		prompts = prompt.New(0)
	}
	extractFn := opts.Extract
	if extractFn == nil {
		extractFn = extract.Text
	}
	retries := opts.SchemaRetry
	if retries < 0 {
		retries = 0
	}
	return &Service{prompts: prompts, llm: client, extract: extractFn, schemaRetry: retries}
}

// Analyze validates the draft, extracts the résumé text, asks the model and returns a
// Result that satisfies the contract. It never returns a partial Result.
func (s *Service) Analyze(ctx context.Context, d Draft) (Result, error) {
	startedAt := time.Now()
	metrics.IncAnalysisStarted()
	s.logStage(ctx, StageReceived, map[string]any{
		"resumeBytes": d.Resume.Size(),
		"jdChars":     utf8.RuneCountInString(d.JobDescription),
	})

	res, err := s.run(ctx, d)
	elapsed := float64(time.Since(startedAt).Microseconds()) / 1000.0
	metrics.ObserveAnalysisDurationMs(elapsed)
	if err != nil {
		kind := KindOf(err)
		metrics.IncAnalysisFailed(string(kind))
		fields := map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"stage":       StageFailed,
			"kind":        kind,
			"error":       sanitizeError(err),
			"duration_ms": elapsed,
		}
		var ae *Error
		if errors.As(err, &ae) && ae.Field != "" {
			fields["field"] = ae.Field
		}
		telemetry.Error("analysis.stage", fields)
		return Result{}, err
	}

	metrics.IncAnalysisCompleted()
	s.logStage(ctx, StageComplete, map[string]any{
		"matchScore":  res.MatchScore,
		"duration_ms": elapsed,
	})
	return res, nil
}

func (s *Service) run(ctx context.Context, d Draft) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}
	if s.llm == nil {
		return Result{}, &Error{Kind: KindUpstream, Msg: "no ai client configured"}
	}

	s.logStage(ctx, StageExtracting, nil)
	text, err := s.extract(ctx, d.Resume.Data, d.Resume.MediaType, d.Resume.FileName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, &Error{Kind: KindExtractionFailed, Field: "resume", Msg: "extraction was interrupted", Err: ctxErr}
		}
		return Result{}, &Error{Kind: KindExtractionFailed, Field: "resume", Msg: "could not read text from the resume", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, &Error{Kind: KindExtractionFailed, Field: "resume", Msg: "no text could be extracted from the resume"}
	}

	s.logStage(ctx, StagePrompting, map[string]any{"textChars": utf8.RuneCountInString(text)})
	p, err := s.prompts.Build(text, d.JobDescription)
	if err != nil {
		if errors.Is(err, prompt.ErrTooLarge) {
			field := "resume"
			if utf8.RuneCountInString(d.JobDescription) > utf8.RuneCountInString(text) {
				field = "jd"
			}
			return Result{}, &Error{Kind: KindValidationFailed, Field: field, Msg: "input is too long to analyse", Err: err}
		}
		return Result{}, err
	}

	for attempt := 0; ; attempt++ {
		s.logStage(ctx, StageCallingAI, map[string]any{
			"promptVersion": p.Version,
			"promptHash":    p.Hash,
			"attempt":       attempt + 1,
		})
		raw, err := s.llm.Complete(ctx, p)
		if err != nil {
			msg := "ai service call failed"
			if llm.IsTimeout(err) {
				msg = "ai service call timed out"
			}
			return Result{}, &Error{Kind: KindUpstream, Msg: msg, Err: err}
		}

		s.logStage(ctx, StageValidating, map[string]any{"responseChars": len(raw)})
		res, err := ValidateResult(raw)
		if err == nil {
			return res, nil
		}
		telemetry.Error("analysis.schema_mismatch", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"error":      sanitizeError(err),
			"attempt":    attempt + 1,
			"raw":        truncate(raw, maxLoggedResponse),
		})
		if attempt >= s.schemaRetry {
			return Result{}, err
		}
	}
}

func (s *Service) logStage(ctx context.Context, stage Stage, fields map[string]any) {
	entry := map[string]any{
		"request_id": requestIDFromContext(ctx),
		"stage":      stage,
	}
	for k, v := range fields {
		entry[k] = v
	}
	telemetry.Info("analysis.stage", entry)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
