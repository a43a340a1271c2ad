package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/cache"
	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/util"
)

//go:embed prompt_candidates.md
var candidatesPrompt string

//go:embed prompt_jobs.md
var jobsPrompt string

const (
	// DefaultTimeout bounds a single provider call. The provider SDK's own
	// timeout is not relied on; an expired call is a failure and triggers
	// the orchestrator's fallback.
	DefaultTimeout = 15 * time.Second

	defaultMaxLogLength = 200
)

// ContentGenerator is the contract the generative strategy requires from an
// AI provider: one prompt in, raw text out. The text is expected to contain a
// JSON array but nothing enforces that, so responses are parsed defensively.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generative is the LLM-backed strategy. Results for the job→candidates
// direction are cached per job id for the cache's TTL; candidate→jobs results
// are not cached.
type Generative struct {
	generator ContentGenerator
	cache     cache.Cache
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

// NewGenerative builds the strategy. The generator is mandatory: callers must
// detect a missing provider credential up front and not construct this
// strategy at all.
func NewGenerative(generator ContentGenerator, resultCache cache.Cache, timeout time.Duration, maxLogLength int, logger *zap.Logger) (*Generative, error) {
	if generator == nil {
		return nil, fmt.Errorf("content generator is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Generative{
		generator: generator,
		cache:     resultCache,
		timeout:   timeout,
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}, nil
}

func (g *Generative) Name() string { return "generative" }

func (g *Generative) TopCandidates(ctx context.Context, job *domain.Job, pool []domain.Candidate) (*domain.MatchResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, job.ID); ok {
			g.logger.Debug("match result served from cache", zap.String("job_id", job.ID))
			return cached, nil
		}
	}

	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	poolJSON, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate pool: %w", err)
	}

	prompt := strings.ReplaceAll(candidatesPrompt, "{{JOB_JSON}}", string(jobJSON))
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES_JSON}}", string(poolJSON))

	raw, err := g.generate(ctx, prompt, zap.String("job_id", job.ID))
	if err != nil {
		return nil, err
	}

	items, err := parseMatchArray(raw)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}

	names := make(map[string]string, len(pool))
	for _, cand := range pool {
		names[cand.ID] = cand.Name
	}

	matches := make([]domain.CandidateMatch, 0, maxMatches)
	for _, item := range items {
		if len(matches) == maxMatches {
			break
		}
		m := domain.CandidateMatch{
			CandidateID: item.candidateID,
			Name:        item.name,
			Score:       item.score,
			Analysis:    item.analysis,
			Strengths:   item.strengths,
		}
		if m.Name == "" {
			m.Name = names[m.CandidateID]
		}
		matches = append(matches, m)
	}

	result := &domain.MatchResult{
		JobID:      job.ID,
		Matches:    matches,
		ComputedAt: g.now(),
	}

	if g.cache != nil {
		g.cache.Put(ctx, job.ID, result)
	}
	return result, nil
}

func (g *Generative) TopJobs(ctx context.Context, candidate *domain.Candidate, pool []domain.Job) ([]domain.JobMatch, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate is required")
	}

	candJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}
	poolJSON, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job pool: %w", err)
	}

	prompt := strings.ReplaceAll(jobsPrompt, "{{CANDIDATE_JSON}}", string(candJSON))
	prompt = strings.ReplaceAll(prompt, "{{JOBS_JSON}}", string(poolJSON))

	raw, err := g.generate(ctx, prompt, zap.String("candidate_id", candidate.ID))
	if err != nil {
		return nil, err
	}

	items, err := parseMatchArray(raw)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidate.ID, err)
	}

	byID := make(map[string]domain.Job, len(pool))
	for _, job := range pool {
		byID[job.ID] = job
	}

	matches := make([]domain.JobMatch, 0, maxMatches)
	for _, item := range items {
		if len(matches) == maxMatches {
			break
		}
		job := byID[item.jobID]
		matches = append(matches, domain.JobMatch{
			JobID:    item.jobID,
			Title:    job.Title,
			Company:  job.Company,
			Score:    item.score,
			Analysis: item.analysis,
		})
	}
	return matches, nil
}

func (g *Generative) generate(ctx context.Context, prompt string, field zap.Field) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("generative request", field,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	g.logger.Debug("generative response", field,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, g.maxLogLen)),
	)
	return raw, nil
}

// matchItem is the provider-schema-agnostic view of one array element. Score
// values arrive as numbers or strings depending on the model's mood.
type matchItem struct {
	candidateID string
	jobID       string
	name        string
	score       int
	analysis    string
	strengths   []string
}

// parseMatchArray finds the first well-formed JSON array in the raw provider
// text and decodes it. No array means the response is unusable and the caller
// must fall back.
func parseMatchArray(raw string) ([]matchItem, error) {
	arr, ok := extractJSONArray(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON array in provider response")
	}

	var elements []map[string]any
	if err := json.Unmarshal([]byte(arr), &elements); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	items := make([]matchItem, 0, len(elements))
	for _, el := range elements {
		items = append(items, matchItem{
			candidateID: coerceString(el["candidateId"]),
			jobID:       coerceString(el["jobId"]),
			name:        coerceString(el["name"]),
			score:       coerceScore(el["score"]),
			analysis:    coerceString(el["analysis"]),
			strengths:   coerceStrings(el["strengths"]),
		})
	}
	return items, nil
}

// extractJSONArray returns the first substring of raw that parses as a JSON
// array. Bracket depth is tracked outside string literals so arrays nested in
// prose or markdown fences are still found.
func extractJSONArray(raw string) (string, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '[' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(raw); i++ {
			c := raw[i]
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '[':
				depth++
			case c == ']':
				depth--
				if depth == 0 {
					candidate := raw[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(raw) // malformed; try the next '['
				}
			}
		}
	}
	return "", false
}

func coerceScore(v any) int {
	f := coerceFloat(v)
	if math.IsNaN(f) {
		return 0
	}
	if f < 0 {
		f = 0
	}
	if f > 100 {
		f = 100
	}
	return int(math.Round(f))
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
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
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

func coerceStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		if s := coerceString(el); s != "" {
			out = append(out, s)
		}
	}
	return out
}
