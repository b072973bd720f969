// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"bytes"
	"text/template"
)

// analysisPromptTmpl asks the model for a JSON research plan.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`You are an expert financial analyst specializing in equity research.
Analyze the user's research query and extract structured information.

Return a JSON object with:
- company_name: primary company being researched (null if none)
- ticker: stock ticker if mentioned or well known (null if unknown)
- research_intent: one of "earnings", "valuation", "competition", "outlook", "sector", "general"
- key_topics: list of important topics to investigate
- time_frame: time period of interest (recent, quarterly, annual, "Q4 2024", ...)
- search_queries: 3 to {{.MaxQueries}} short keyword search-engine queries

Do not include any text outside the JSON object.

Example output:
{"company_name": "Tesla", "ticker": "TSLA", "research_intent": "earnings", "key_topics": ["Q4 earnings", "delivery numbers", "profit margins"], "time_frame": "recent", "search_queries": ["Tesla Q4 2024 earnings report", "TSLA delivery numbers 2024", "Tesla profit margin analysis"]}

User query:
{{.Query}}
`))

func renderPrompt(query string, maxQueries int) (string, error) {
	var buf bytes.Buffer
	err := analysisPromptTmpl.Execute(&buf, struct {
		Query      string
		MaxQueries int
	}{Query: query, MaxQueries: maxQueries})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
