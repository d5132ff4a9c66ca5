package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnalystService answers natural-language questions about the dataset
// by generating DuckDB SQL with Claude, executing it against the store,
// and narrating the results. Answers are cached in the store keyed by
// the question text.
type AnalystService struct {
	client        *anthropic.Client
	store         *Store
	cacheTTL      time.Duration
	maxSQLRetries int
}

// NewAnalystService creates the AI analyst. Requires an Anthropic API
// key; the rest of the application works without one.
func NewAnalystService(apiKey string, store *Store, cfg *Config) (*AnalystService, error) {
	if apiKey == "" {
		if logger != nil {
			logger.Error("AI analyst initialization failed: missing API key")
		}
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	maxRetries := 3
	cacheTTL := 7 * 24 * time.Hour
	if cfg != nil {
		maxRetries = cfg.AI.MaxSQLRetries
		if cfg.AI.CacheTTLHours > 0 {
			cacheTTL = time.Duration(cfg.AI.CacheTTLHours) * time.Hour
		}
	}

	if logger != nil {
		logger.Info("AI analyst initialized", "cache_ttl_hours", int(cacheTTL.Hours()), "max_sql_retries", maxRetries)
	}

	return &AnalystService{
		client:        &client,
		store:         store,
		cacheTTL:      cacheTTL,
		maxSQLRetries: maxRetries,
	}, nil
}

// sqlQueryResult holds the parsed result of Claude's SQL generation.
type sqlQueryResult struct {
	Explanation string `json:"explanation"`
	SQLQuery    string `json:"sql_query"`
}

const analystSchemaPrompt = `You are an AI data analyst helping users explore a database of US state affordability metrics. The Market Livability Index (MLI) is median household income divided by cost of living: above 1.0 means households can save, below 1.0 means deficit.

**Database Schema:**

Tables:
1. **metrics** - Per-state per-year observations
   - state VARCHAR, year INTEGER
   - mli DOUBLE, income DOUBLE, col DOUBLE (cost of living), surplus DOUBLE, surplus_pct DOUBLE

2. **categories** - Latest-year spending breakdown per state
   - state VARCHAR, year INTEGER, category VARCHAR, cost DOUBLE

3. **national** - National per-year averages
   - year INTEGER, avg_mli, avg_income, avg_col, avg_surplus (all DOUBLE)

4. **state_changes** - MLI movement 2018 to 2023
   - state VARCHAR, mli_change, mli_2018, mli_2023 (all DOUBLE)

5. **savings_timeline** - Yearly counts of states by household outcome
   - year INTEGER, states_can_save, states_paycheck, states_deficit (all INTEGER)

6. **market_comparison** - Indexed market-vs-household trajectories
   - window VARCHAR ('2012' or '2018'), year INTEGER
   - sp500_indexed, income_indexed, col_indexed, mli_indexed (all DOUBLE)

**User Question:** "%s"

**Response Format (JSON only):**
{
  "explanation": "What the query computes",
  "sql_query": "SELECT ..."
}

**SQL Guidelines:**
- Database engine is DuckDB (PostgreSQL-compatible syntax)
- Use proper aggregation functions (COUNT, AVG, SUM, MIN, MAX)
- Always LIMIT result sets to 50 rows or fewer
- State names are full names like 'California', not codes

**Examples:**

"Which states had the biggest MLI decline?"
-> {"explanation": "States ordered by 2018-2023 MLI change ascending", "sql_query": "SELECT state, mli_change, mli_2018, mli_2023 FROM state_changes ORDER BY mli_change ASC LIMIT 10"}

"Average income vs cost of living by year"
-> {"explanation": "National income and cost trends", "sql_query": "SELECT year, avg_income, avg_col, avg_mli FROM national ORDER BY year"}
`

// generateSQL calls Claude to produce SQL for a question, optionally
// carrying the previous attempt's SQL and error for self-correction.
func (s *AnalystService) generateSQL(ctx context.Context, question, previousSQL, sqlError string, attempt int) (*sqlQueryResult, error) {
	prompt := fmt.Sprintf(analystSchemaPrompt, question)

	if sqlError != "" && previousSQL != "" {
		prompt += fmt.Sprintf(`

**IMPORTANT - SQL ERROR CORRECTION (Attempt %d):**

Your previous SQL query failed. Analyze the error and generate a corrected query.

Previous SQL Query:
%s

Error Message:
%s

Common issues: column names must match the schema exactly, aggregates need GROUP BY, window values are the strings '2012' and '2018'.

Return ONLY the corrected JSON with the fixed sql_query field.`, attempt, previousSQL, sqlError)
	} else {
		prompt += "\n\nReturn ONLY JSON, no other text."
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeHaiku4_5_20251001,
		MaxTokens: 4000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		if logger != nil {
			logger.Error("Claude API call failed for SQL generation", "error", err, "question", truncateString(question, 80), "attempt", attempt)
		}
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	responseText := collectText(message)
	if responseText == "" {
		if logger != nil {
			logger.Error("No text content in Claude response for SQL generation", "question", truncateString(question, 80), "attempt", attempt)
		}
		return nil, fmt.Errorf("no text response from Claude")
	}

	var result sqlQueryResult
	jsonStr := extractJSONBlock(responseText)
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		if logger != nil {
			logger.Error("Failed to parse Claude response as JSON",
				"error", err,
				"response_preview", truncateString(responseText, 200),
				"attempt", attempt)
		}
		return nil, fmt.Errorf("failed to parse SQL response as JSON: %w", err)
	}

	if result.SQLQuery == "" {
		return nil, fmt.Errorf("model generated empty SQL query")
	}

	if logger != nil {
		logger.Info("Generated SQL for question", "question", truncateString(question, 80), "attempt", attempt)
	}

	return &result, nil
}

// AskDataQuestion answers a natural-language question with a retry loop
// that feeds SQL errors back to the model for self-correction. The
// returned markdown includes the result table and the SQL that produced
// it.
func (s *AnalystService) AskDataQuestion(ctx context.Context, question string) (string, error) {
	if cached, _, _, err := s.store.LoadInsight(question, s.cacheTTL); err == nil {
		return cached, nil
	}

	var lastError error
	var previousSQL string

	for attempt := 1; attempt <= s.maxSQLRetries; attempt++ {
		var result *sqlQueryResult
		var err error

		if attempt == 1 {
			result, err = s.generateSQL(ctx, question, "", "", attempt)
		} else {
			if logger != nil {
				logger.Info("Retrying SQL generation with error correction",
					"question", truncateString(question, 80),
					"attempt", attempt,
					"previous_error", lastError.Error())
			}
			result, err = s.generateSQL(ctx, question, previousSQL, lastError.Error(), attempt)
		}
		if err != nil {
			// Generation failures are not recoverable by retrying here.
			return "", fmt.Errorf("SQL generation failed: %w", err)
		}

		previousSQL = result.SQLQuery

		queryResult, err := s.store.ExecuteQuery(result.SQLQuery, 50)
		if err != nil {
			lastError = err
			if logger != nil {
				logger.Warn("SQL execution failed, will retry if attempts remain",
					"error", err,
					"sql", truncateString(result.SQLQuery, 150),
					"attempt", attempt,
					"max_retries", s.maxSQLRetries)
			}
			if attempt >= s.maxSQLRetries {
				return "", fmt.Errorf("SQL execution failed after %d attempts: %w\n\nLast SQL:\n%s",
					attempt, err, result.SQLQuery)
			}
			continue
		}

		answer := formatAnalystAnswer(result, queryResult, attempt)

		if err := s.store.SaveInsight(question, answer, result.SQLQuery, time.Now()); err != nil {
			if logger != nil {
				logger.Warn("Failed to cache analyst answer", "error", err)
			}
		}

		if logger != nil {
			logger.Info("Answered data question",
				"question", truncateString(question, 80),
				"rows", len(queryResult.Rows),
				"attempt", attempt)
		}

		return answer, nil
	}

	return "", fmt.Errorf("SQL query failed after %d attempts: %w", s.maxSQLRetries, lastError)
}

// formatAnalystAnswer renders the explanation plus a markdown table of
// the query results.
func formatAnalystAnswer(result *sqlQueryResult, qr *QueryResult, attempt int) string {
	var b strings.Builder
	b.WriteString(result.Explanation)
	b.WriteString("\n\n**Results:**\n\n")

	if len(qr.Rows) == 0 {
		b.WriteString("No results found.\n")
	} else {
		b.WriteString("| ")
		for _, col := range qr.Columns {
			b.WriteString(col)
			b.WriteString(" | ")
		}
		b.WriteString("\n|")
		for range qr.Columns {
			b.WriteString("---|")
		}
		b.WriteString("\n")

		for _, row := range qr.Rows {
			b.WriteString("| ")
			for _, val := range row {
				if val == nil {
					b.WriteString("NULL | ")
					continue
				}
				switch v := val.(type) {
				case float64:
					b.WriteString(fmt.Sprintf("%.3f | ", v))
				case int64:
					b.WriteString(fmt.Sprintf("%d | ", v))
				default:
					b.WriteString(fmt.Sprintf("%v | ", v))
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(fmt.Sprintf("\n```sql\n%s\n```\n", result.SQLQuery))

	if attempt > 1 {
		b.WriteString(fmt.Sprintf("\n*(Query succeeded on attempt %d after SQL self-correction)*\n", attempt))
	}

	return b.String()
}

// GenerateBriefing asks Claude for a short narrative briefing over the
// pre-computed divergence analysis. Used by the TUI insights view and
// the summarize command's --brief flag.
func (s *AnalystService) GenerateBriefing(ctx context.Context, div *Divergence) (string, error) {
	const cacheKey = "__divergence_briefing__"
	if cached, _, _, err := s.store.LoadInsight(cacheKey, s.cacheTTL); err == nil {
		return cached, nil
	}

	payload, err := json.MarshalIndent(map[string]any{
		"summary_2012_2023": div.Summary20122023,
		"summary_2018_2023": div.Summary20182023,
		"savings_timeline":  div.SavingsTimeline,
		"inflation":         div.Inflation,
		"headlines":         div.Headlines,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal divergence data: %w", err)
	}

	prompt := fmt.Sprintf(`You are a financial journalist. Below is a pre-computed analysis of how US market returns diverged from household affordability, including the Market Livability Index (income divided by cost of living, 1.0 = break-even).

%s

Write a concise briefing in markdown (4-6 short paragraphs) covering:
- The headline divergence between S&P 500 returns and household income/costs
- How the count of states where households can save has shifted over time
- The role of housing inflation versus general goods inflation
- What the MLI trend means for a typical household

Be factual and grounded in the numbers provided. No preamble.`, string(payload))

	params := anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeHaiku4_5_20251001,
		MaxTokens: 2000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		if logger != nil {
			logger.Error("Claude API call failed for briefing", "error", err)
		}
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	briefing := collectText(message)
	if briefing == "" {
		return "", fmt.Errorf("no text response from Claude")
	}

	if err := s.store.SaveInsight(cacheKey, briefing, "", time.Now()); err != nil {
		if logger != nil {
			logger.Warn("Failed to cache briefing", "error", err)
		}
	}

	if logger != nil {
		logger.Info("Generated divergence briefing", "length", len(briefing))
	}

	return briefing, nil
}

// collectText concatenates the text blocks of a Messages response.
func collectText(message *anthropic.Message) string {
	text := ""
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += textBlock.Text
		}
	}
	return text
}

// extractJSONBlock strips a markdown code fence around a JSON payload
// if the model added one.
func extractJSONBlock(response string) string {
	jsonStr := response
	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json") + 7
		end := strings.Index(response[start:], "```")
		if end > 0 {
			jsonStr = response[start : start+end]
		}
	} else if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + 3
		end := strings.Index(response[start:], "```")
		if end > 0 {
			jsonStr = response[start : start+end]
		}
	}
	return strings.TrimSpace(jsonStr)
}

// truncateString truncates a string to maxLen characters, adding "..."
// if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
