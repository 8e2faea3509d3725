package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/Tender/internal/llm"
	"github.com/MikeSquared-Agency/Tender/internal/metrics"
)

const (
	// DefaultAttemptTimeout bounds each model attempt.
	DefaultAttemptTimeout = 30 * time.Second

	minReasoningLength = 10
	maxReasoningLength = 1000
	defaultMaxLogLen   = 200
)

const systemInstruction = `You evaluate supplier answers to procurement (RFP) requirements.
Respond with ONLY a JSON object and nothing else, using exactly these keys:
  "rawScore": number from 0 to 100 rating how well the answer satisfies the requirement,
  "reasoning": string of 10 to 1000 characters explaining the score,
  "confidence": number from 0 to 1 expressing certainty in the score.`

// ModelAttempt is one entry of the ordered AI fallback list.
type ModelAttempt struct {
	Model   string
	Timeout time.Duration
}

// Attempts builds the attempt list for models in order, each with the same timeout.
func Attempts(models []string, timeout time.Duration) []ModelAttempt {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	out := make([]ModelAttempt, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, ModelAttempt{Model: m, Timeout: timeout})
		}
	}
	return out
}

// Judgment is the outcome of AI scoring for one answer. Degraded judgments
// carry score 0, confidence 0 and a reasoning that explains the failure.
type Judgment struct {
	RawScore   float64
	Reasoning  string
	Confidence float64
	Model      string
	Degraded   bool
	Tried      []string
}

// SemanticScorer grades qualitative answers with a language model.
type SemanticScorer struct {
	client    llm.Client
	attempts  []ModelAttempt
	logger    *slog.Logger
	maxLogLen int
}

func NewSemanticScorer(client llm.Client, attempts []ModelAttempt, logger *slog.Logger) *SemanticScorer {
	return &SemanticScorer{
		client:    client,
		attempts:  attempts,
		logger:    logger,
		maxLogLen: defaultMaxLogLen,
	}
}

// WithMaxLogLength sets how much of prompts and responses is kept in debug logs.
func (s *SemanticScorer) WithMaxLogLength(n int) *SemanticScorer {
	if n > 0 {
		s.maxLogLen = n
	}
	return s
}

// Score tries each model in order and returns the first valid judgment. It never
// returns an error: when every attempt fails the result is degraded.
func (s *SemanticScorer) Score(ctx context.Context, question, answer string) Judgment {
	req := llm.Request{System: systemInstruction, User: buildUserMessage(question, answer)}

	var failures []string
	var tried []string
	for _, a := range s.attempts {
		tried = append(tried, a.Model)
		j, err := s.attempt(ctx, a, req)
		if err == nil {
			j.Tried = tried
			return j
		}
		failures = append(failures, fmt.Sprintf("%s: %v", a.Model, err))
		s.logger.Warn("ai scoring attempt failed", "model", a.Model, "error", err)
	}

	metrics.AIDegraded.Inc()
	reason := "no AI models configured"
	if len(failures) > 0 {
		reason = strings.Join(failures, "; ")
	}
	return Judgment{
		RawScore:   0,
		Reasoning:  truncateRunes("AI scoring unavailable, scored 0 pending review: "+reason, maxReasoningLength),
		Confidence: 0,
		Degraded:   true,
		Tried:      tried,
	}
}

type completion struct {
	text string
	err  error
}

func (s *SemanticScorer) attempt(ctx context.Context, a ModelAttempt, req llm.Request) (Judgment, error) {
	req.Model = a.Model
	actx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	s.logger.Debug("ai scoring request", "model", a.Model,
		"prompt_length", utf8.RuneCountInString(req.User),
		"prompt_preview", truncateRunes(req.User, s.maxLogLen))

	// Buffered so a client that ignores ctx cannot block past the deadline.
	done := make(chan completion, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("client panic: %v", r)}
			}
		}()
		text, err := s.client.Complete(actx, req)
		done <- completion{text: text, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-actx.Done():
		res = completion{err: actx.Err()}
	}
	metrics.AIAttemptSeconds.WithLabelValues(a.Model).Observe(time.Since(start).Seconds())

	if res.err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(res.err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
			res.err = fmt.Errorf("timed out after %s", a.Timeout)
		}
		metrics.AIAttempts.WithLabelValues(a.Model, outcome).Inc()
		return Judgment{}, res.err
	}

	s.logger.Debug("ai scoring response", "model", a.Model,
		"response_length", utf8.RuneCountInString(res.text),
		"response_preview", truncateRunes(res.text, s.maxLogLen))

	j, err := ParseJudgment(res.text)
	if err != nil {
		metrics.AIAttempts.WithLabelValues(a.Model, metrics.OutcomeInvalid).Inc()
		return Judgment{}, err
	}
	metrics.AIAttempts.WithLabelValues(a.Model, metrics.OutcomeSuccess).Inc()
	j.Model = a.Model
	return j, nil
}

func buildUserMessage(question, answer string) string {
	var b strings.Builder
	b.WriteString("Requirement:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nSupplier answer:\n")
	b.WriteString(strings.TrimSpace(answer))
	b.WriteString("\n\nJSON response:")
	return b.String()
}

// ParseJudgment extracts and validates the JSON object in a model response.
func ParseJudgment(raw string) (Judgment, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return Judgment{}, err
	}

	// Decode only the first complete value; trailing prose may contain braces.
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(strings.NewReader(obj)).Decode(&fields); err != nil {
		return Judgment{}, fmt.Errorf("parse response: %w", err)
	}

	var j Judgment
	if err := decodeField(fields, "rawScore", &j.RawScore); err != nil {
		return Judgment{}, err
	}
	if err := decodeField(fields, "reasoning", &j.Reasoning); err != nil {
		return Judgment{}, err
	}
	if err := decodeField(fields, "confidence", &j.Confidence); err != nil {
		return Judgment{}, err
	}

	j.Reasoning = strings.TrimSpace(j.Reasoning)
	if j.RawScore < 0 || j.RawScore > 100 {
		return Judgment{}, fmt.Errorf("rawScore %v outside [0, 100]", j.RawScore)
	}
	if n := utf8.RuneCountInString(j.Reasoning); n < minReasoningLength || n > maxReasoningLength {
		return Judgment{}, fmt.Errorf("reasoning length %d outside [%d, %d]", n, minReasoningLength, maxReasoningLength)
	}
	if j.Confidence < 0 || j.Confidence > 1 {
		return Judgment{}, fmt.Errorf("confidence %v outside [0, 1]", j.Confidence)
	}
	return j, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	v, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return fmt.Errorf("invalid %q: null", key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("invalid %q: %w", key, err)
	}
	return nil
}

// extractObject returns raw from its first '{' onwards, with code fences removed.
func extractObject(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", errors.New("no JSON object in response")
	}
	return raw[start:], nil
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
