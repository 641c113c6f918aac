package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlugList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "bare array",
			raw:  `["estrategia", "sistemas-complejos"]`,
			want: []string{"estrategia", "sistemas-complejos"},
		},
		{
			name: "fenced json",
			raw:  "```json\n[\"estrategia\"]\n```",
			want: []string{"estrategia"},
		},
		{
			name: "chatter around the array",
			raw:  `Sure! Here are the categories: ["estrategia", "liderazgo"] Hope that helps.`,
			want: []string{"estrategia", "liderazgo"},
		},
		{
			name: "slugs lowercased and trimmed",
			raw:  `[" Estrategia ", "LIDERAZGO"]`,
			want: []string{"estrategia", "liderazgo"},
		},
		{
			name:    "empty array is a contract failure",
			raw:     `[]`,
			wantErr: true,
		},
		{
			name:    "whitespace-only slugs are a contract failure",
			raw:     `["", "  "]`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `I cannot categorize this thread.`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSlugList(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSummary(t *testing.T) {
	got, err := parseSummary(`{"summary": "A thread about complex systems."}`)
	require.NoError(t, err)
	assert.Equal(t, "A thread about complex systems.", got)

	got, err = parseSummary("```json\n{\"summary\": \"Fenced.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Fenced.", got)

	_, err = parseSummary(`{"summary": "   "}`)
	assert.Error(t, err)

	_, err = parseSummary(`no json here`)
	assert.Error(t, err)
}

func TestParseExam(t *testing.T) {
	valid := `[{"question": "What is discussed?", "options": ["a", "b", "c"], "answer": 2}]`
	questions, err := parseExam(valid)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, 2, questions[0].Answer)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty array", `[]`},
		{"blank question", `[{"question": " ", "options": ["a", "b"], "answer": 0}]`},
		{"single option", `[{"question": "q", "options": ["a"], "answer": 0}]`},
		{"answer out of range", `[{"question": "q", "options": ["a", "b"], "answer": 2}]`},
		{"negative answer", `[{"question": "q", "options": ["a", "b"], "answer": -1}]`},
		{"not json", `the exam is attached`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseExam(tc.raw)
			assert.Error(t, err)
		})
	}
}
