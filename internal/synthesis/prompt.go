// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/equity-research/pkg/types"
)

// contextBlock is one retrieved excerpt shown to the model.
type contextBlock struct {
	URL  string
	Text string
}

var funcs = template.FuncMap{"join": strings.Join}

var reportPromptTmpl = template.Must(template.New("report").Funcs(funcs).Parse(`You are an expert equity research analyst preparing a research report.

Company: {{or .Request.CompanyName "Unknown"}}
Ticker: {{or .Request.Ticker "N/A"}}
Research intent: {{.Request.Intent}}
Key topics: {{join .Request.Topics ", "}}
Time frame: {{or .Request.TimeFrame "recent"}}
Question: {{.Request.RawQuery}}

Context from sources:
{{range .Blocks}}
[Source: {{.URL}}]
{{.Text}}
---
{{end}}
Write the report with exactly these sections, each header on its own line:

EXECUTIVE SUMMARY
Two or three sentences.

KEY FINDINGS
Three to five bullet points, each starting with "- ".

DETAILED ANALYSIS
Two or three paragraphs.

IMPORTANT CONSIDERATIONS
Risks and limitations as bullet points, each starting with "- ".

Every factual claim must carry a citation of the form [Source: <full url>] using the exact URL shown above the excerpt it came from. Never cite a source by number. Use professional financial language and be specific and data-driven. If the context does not cover part of the question, say so.
`))

var answerPromptTmpl = template.Must(template.New("answer").Parse(`Answer the question using only the context below. Cite every fact as [Source: <full url>] using the exact URL shown above the excerpt. If the context does not contain the answer, say that you do not know.

Context:
{{range .Blocks}}
[Source: {{.URL}}]
{{.Text}}
---
{{end}}
Question: {{.Question}}
`))

func renderReportPrompt(req types.ResearchRequest, blocks []contextBlock) (string, error) {
	var buf bytes.Buffer
	err := reportPromptTmpl.Execute(&buf, struct {
		Request types.ResearchRequest
		Blocks  []contextBlock
	}{Request: req, Blocks: blocks})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAnswerPrompt(question string, blocks []contextBlock) (string, error) {
	var buf bytes.Buffer
	err := answerPromptTmpl.Execute(&buf, struct {
		Question string
		Blocks   []contextBlock
	}{Question: question, Blocks: blocks})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
