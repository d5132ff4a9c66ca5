package main

import (
	"strings"
	"testing"
)

func TestExtractJSONBlock(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "BareJSON",
			input:    `{"sql_query": "SELECT 1"}`,
			expected: `{"sql_query": "SELECT 1"}`,
		},
		{
			name:     "JSONFence",
			input:    "Here you go:\n```json\n{\"sql_query\": \"SELECT 1\"}\n```\nDone.",
			expected: `{"sql_query": "SELECT 1"}`,
		},
		{
			name:     "PlainFence",
			input:    "```\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "UnterminatedFenceLeftAlone",
			input:    "```json\n{\"a\": 1}",
			expected: "```json\n{\"a\": 1}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSONBlock(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
	if got := truncateString("abcdefghij", 10); got != "abcdefghij" {
		t.Errorf("Expected string at limit unchanged, got %q", got)
	}
	if got := truncateString("abcdefghijk", 10); got != "abcdefghij..." {
		t.Errorf("Expected truncated string with ellipsis, got %q", got)
	}
}

func TestFormatAnalystAnswer(t *testing.T) {
	result := &sqlQueryResult{
		Explanation: "Utah has the highest MLI.",
		SQLQuery:    "SELECT state FROM metrics ORDER BY mli DESC LIMIT 1",
	}
	qr := &QueryResult{
		Columns: []string{"state", "mli"},
		Rows: [][]interface{}{
			{"Utah", 1.22},
			{nil, int64(0)},
		},
	}

	out := formatAnalystAnswer(result, qr, 1)

	if !strings.Contains(out, "Utah has the highest MLI.") {
		t.Errorf("Expected explanation in answer, got %q", out)
	}
	if !strings.Contains(out, "| state | mli |") {
		t.Errorf("Expected markdown header row, got %q", out)
	}
	if !strings.Contains(out, "| Utah | 1.220 |") {
		t.Errorf("Expected formatted data row, got %q", out)
	}
	if !strings.Contains(out, "NULL") {
		t.Errorf("Expected NULL for nil value, got %q", out)
	}
	if !strings.Contains(out, "```sql") {
		t.Errorf("Expected SQL fence, got %q", out)
	}
	if strings.Contains(out, "self-correction") {
		t.Errorf("Unexpected retry note on first attempt, got %q", out)
	}
}

func TestFormatAnalystAnswerEmptyAndRetried(t *testing.T) {
	result := &sqlQueryResult{Explanation: "Nothing matched.", SQLQuery: "SELECT 1"}
	qr := &QueryResult{Columns: []string{"state"}}

	out := formatAnalystAnswer(result, qr, 3)

	if !strings.Contains(out, "No results found.") {
		t.Errorf("Expected empty-result notice, got %q", out)
	}
	if !strings.Contains(out, "attempt 3") {
		t.Errorf("Expected self-correction note, got %q", out)
	}
}
