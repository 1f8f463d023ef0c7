package prompt

import (
	"fmt"
	"time"
)

// FilterSpec is the JSON shape the model must emit. Times are RFC3339 UTC or
// empty; status is Passed, Failed, or empty for all.
type FilterSpec struct {
	Status string   `json:"status"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Match  []string `json:"match"`
	Limit  int      `json:"limit"`
}

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You translate natural-language questions about automated test scenario runs into a structured filter. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- "status" is exactly "Passed", "Failed", or "" when the question does not constrain the outcome.
- "from" and "to" are RFC3339 UTC timestamps bounding the createdTimestamp of matching runs, or "" when unbounded. Resolve relative phrases (yesterday, last week, last month) against the current time given in the user message.
- "match" lists free-text terms that must appear in the scenario, process, or flow name; use [] when the question names none.
- "limit" caps the number of rows; use 0 unless the question asks for a specific count.
- If the question is not about scenario runs at all, or you cannot derive any filter from it, output {"error": "unintelligible"} instead.

Schema (example with empty values):
{
  "status": "",
  "from": "",
  "to": "",
  "match": [],
  "limit": 0
}`
}

// GetUserPrompt builds a compact user message around the query text.
func GetUserPrompt(query string, now time.Time) string {
	return fmt.Sprintf("Current time: %s\nQuestion: %s", now.UTC().Format(time.RFC3339), query)
}
