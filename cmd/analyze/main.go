package main

// Analyze one resume against a job description from the command line:
//   go run ./cmd/analyze --resume cv.pdf --jd-text "Senior Go engineer ..."

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/bootstrap"
	"resume-matcher/internal/extract"
	"resume-matcher/internal/prompt"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/telemetry"
)

type options struct {
	resume      string
	jdFile      string
	jdText      string
	format      string
	provider    string
	printPrompt bool
}

type runner struct {
	stdout, stderr io.Writer
	loadConfig     func() config.Config
	newAnalyzer    func(ctx context.Context, cfg config.Config) (analyses.Analyzer, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
		newAnalyzer: func(ctx context.Context, cfg config.Config) (analyses.Analyzer, error) {
			return bootstrap.BuildAnalysisService(ctx, cfg)
		},
	}
	os.Exit(r.run(ctx, os.Args[1:]))
}

func (r runner) run(ctx context.Context, args []string) int {
	opts, err := parseFlags(args, r.stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 2
	}

	cfg := r.loadConfig()
	// stdout carries the result.
	telemetry.InitWriter(r.stderr, cfg.LogLevel, cfg.LogFormat)
	if opts.provider != "" {
		cfg.LLMProvider = opts.provider
	}

	draft, err := loadDraft(opts)
	if err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}

	if opts.printPrompt {
		return r.printPrompt(ctx, cfg, draft)
	}

	analyzer, err := r.newAnalyzer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	res, err := analyzer.Analyze(ctx, draft)
	if err != nil {
		// *analyses.Error renders its kind first.
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	if err := writeResult(r.stdout, opts.format, res); err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (r runner) printPrompt(ctx context.Context, cfg config.Config, draft analyses.Draft) int {
	if err := draft.Validate(); err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	text, err := extract.Text(ctx, draft.Resume.Data, draft.Resume.MediaType, draft.Resume.FileName)
	if err != nil {
		fmt.Fprintf(r.stderr, "error: %s: %v\n", analyses.KindExtractionFailed, err)
		return 1
	}
	p, err := prompt.New(cfg.PromptMaxChars).Build(text, draft.JobDescription)
	if err != nil {
		fmt.Fprintf(r.stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.stdout, p.Text)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.resume, "resume", "r", "", "path to the resume file (PDF)")
	fs.StringVar(&opts.jdFile, "jd", "", "path to a file holding the job description")
	fs.StringVar(&opts.jdText, "jd-text", "", "job description text")
	fs.StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	fs.StringVar(&opts.provider, "provider", "", "override LLM_PROVIDER (gemini or openai)")
	fs.BoolVar(&opts.printPrompt, "print-prompt", false, "print the rendered prompt instead of calling the model")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch {
	case opts.resume == "":
		return options{}, errors.New("--resume is required")
	case opts.jdFile == "" && opts.jdText == "":
		return options{}, errors.New("one of --jd or --jd-text is required")
	case opts.jdFile != "" && opts.jdText != "":
		return options{}, errors.New("--jd and --jd-text are mutually exclusive")
	case opts.format != "json" && opts.format != "yaml":
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	case opts.provider != "" && opts.provider != "gemini" && opts.provider != "openai":
		return options{}, fmt.Errorf("unknown provider %q", opts.provider)
	}
	return opts, nil
}

func loadDraft(opts options) (analyses.Draft, error) {
	data, err := os.ReadFile(opts.resume)
	if err != nil {
		return analyses.Draft{}, fmt.Errorf("read resume: %w", err)
	}
	jd := opts.jdText
	if opts.jdFile != "" {
		raw, err := os.ReadFile(opts.jdFile)
		if err != nil {
			return analyses.Draft{}, fmt.Errorf("read job description: %w", err)
		}
		jd = string(raw)
	}
	name := filepath.Base(opts.resume)
	return analyses.Draft{
		Resume: &analyses.UploadedResume{
			FileName:  name,
			MediaType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
			Data:      data,
		},
		JobDescription: jd,
	}, nil
}

func writeResult(w io.Writer, format string, res analyses.Result) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(normalized(res)); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// normalized replaces nil lists so YAML prints [] like the JSON form.
func normalized(res analyses.Result) analyses.Result {
	if res.SkillsMatched == nil {
		res.SkillsMatched = []string{}
	}
	if res.MissingSkills == nil {
		res.MissingSkills = []string{}
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}
	if res.ExtraEdgeSuggestions == nil {
		res.ExtraEdgeSuggestions = []analyses.EdgeSuggestion{}
	}
	return res
}
