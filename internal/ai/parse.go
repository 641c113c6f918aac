package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// Models wrap JSON in markdown code fences despite instructions, so every
// parser first extracts the JSON payload, then validates the shape. A
// response that fails validation is a contract failure: the caller must not
// merge anything into the stores.

var (
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	arrayRe  = regexp.MustCompile(`(?s)(\[.*\])`)
	objectRe = regexp.MustCompile(`(?s)(\{.*\})`)
)

// extractJSON pulls the JSON payload out of a possibly fenced response.
func extractJSON(text string, re *regexp.Regexp) string {
	if m := fencedRe.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// parseSlugList parses and validates a category slug array.
func parseSlugList(raw string) ([]string, error) {
	var slugs []string
	payload := extractJSON(raw, arrayRe)
	if err := json.Unmarshal([]byte(payload), &slugs); err != nil {
		return nil, fmt.Errorf("unparseable category response: %w (response was: %.200s)", err, raw)
	}

	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("category response contained no slugs (response was: %.200s)", raw)
	}

	return out, nil
}

// parseSummary parses and validates a one-sentence summary object.
func parseSummary(raw string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	payload := extractJSON(raw, objectRe)
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return "", fmt.Errorf("unparseable summary response: %w (response was: %.200s)", err, raw)
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return "", fmt.Errorf("summary response was empty (response was: %.200s)", raw)
	}

	return summary, nil
}

// parseExam parses and validates exam question triples: non-empty question,
// at least two options, answer index in range.
func parseExam(raw string) ([]types.ExamQuestion, error) {
	var questions []types.ExamQuestion
	payload := extractJSON(raw, arrayRe)
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, fmt.Errorf("unparseable exam response: %w (response was: %.200s)", err, raw)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("exam response contained no questions (response was: %.200s)", raw)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("exam question %d has no text", i)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("exam question %d has %d options, need at least 2", i, len(q.Options))
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return nil, fmt.Errorf("exam question %d answer index %d out of range", i, q.Answer)
		}
	}

	return questions, nil
}
