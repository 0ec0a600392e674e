package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"job-radar/internal/ai"
	"job-radar/internal/logger"
	"job-radar/internal/util"

	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Judge evaluates a posting against a profile through a Gemini prompt that
// demands a strict JSON verdict.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger

	jobTextLimit    int
	resumeTextLimit int
	maxLogLen       int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultJobTextLimit    = 3000
	defaultResumeTextLimit = 2000
	defaultMaxLogLength    = 200

	// rawPreviewLimit bounds the raw response preserved in parse errors.
	rawPreviewLimit = 300
)

// JudgeOptions tune the prompt budgets and response logging.
type JudgeOptions struct {
	JobTextLimit    int
	ResumeTextLimit int
	MaxLogLength    int
}

// NewJudge wires a content generator into a Judge.
func NewJudge(generator contentGenerator, log *zap.Logger, opts JudgeOptions) *Judge {
	if opts.JobTextLimit <= 0 {
		opts.JobTextLimit = defaultJobTextLimit
	}
	if opts.ResumeTextLimit <= 0 {
		opts.ResumeTextLimit = defaultResumeTextLimit
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	model := ""
	if m, ok := generator.(interface{ Model() string }); ok {
		model = m.Model()
	}

	return &Judge{
		generator:       generator,
		logger:          logger.WithCommonFields(log, "gemini", model),
		jobTextLimit:    opts.JobTextLimit,
		resumeTextLimit: opts.ResumeTextLimit,
		maxLogLen:       opts.MaxLogLength,
	}
}

// Evaluate asks the model for a confidence/label/explanation judgment. Any
// transport or parse failure is returned as an error; the caller converts it
// into an unavailable judgment at the component boundary.
func (j *Judge) Evaluate(ctx context.Context, req *ai.JudgeRequest) (*ai.Judgment, error) {
	if req == nil {
		return nil, fmt.Errorf("judge request is required")
	}

	prompt := buildPrompt(req, j.jobTextLimit, j.resumeTextLimit)

	j.logger.Debug("gemini judgment request",
		zap.String("job_title", req.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("gemini judgment response",
		zap.String("job_title", req.Title),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, j.maxLogLen)),
	)

	return parseJudgment(raw)
}

func buildPrompt(req *ai.JudgeRequest, jobLimit, resumeLimit int) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_TITLE}}", req.Title)
	prompt = strings.ReplaceAll(prompt, "{{JOB_TEXT}}", util.TruncateBudget(req.JobText, jobLimit))
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_TEXT}}", util.TruncateBudget(req.ResumeText, resumeLimit))
	prompt = strings.ReplaceAll(prompt, "{{SKILLS}}", strings.Join(req.Skills, ", "))
	return prompt
}

// parseJudgment extracts the JSON object from the raw model response. The
// response may carry explanatory text or code fences around the object; the
// substring between the first '{' and the last '}' is tried first, then the
// whole response.
func parseJudgment(raw string) (*ai.Judgment, error) {
	cleaned := stripFences(raw)

	candidate := cleaned
	if start := strings.Index(cleaned, "{"); start != -1 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			candidate = cleaned[start : end+1]
		}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
			return nil, fmt.Errorf("parse gemini response %q: %w", util.TruncateForLog(raw, rawPreviewLimit), err)
		}
	}

	judgment := &ai.Judgment{
		Label:       coerceString(data["label"]),
		Explanation: coerceString(data["explanation"]),
	}

	if conf := coerceFloat(data["confidence"]); !math.IsNaN(conf) {
		conf = math.Max(0, math.Min(100, conf))
		judgment.Confidence = &conf
	}

	return judgment, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
