// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes research reports as Markdown, styled terminal
// text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-research/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatTerminal Format = "terminal"
)

// TerminalWidth is the word-wrap width for terminal output.
const TerminalWidth = 100

// ParseFormat accepts a format name or common alias ("md", "yml", "term").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "terminal", "term":
		return FormatTerminal, nil
	}
	return "", fmt.Errorf("unknown output format %q (want markdown, terminal, json or yaml)", s)
}

// Write renders v in format f. Markdown and terminal output are only
// defined for reports; other values are rendered as JSON or YAML.
func Write(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		return JSON(w, v)
	case FormatYAML:
		return YAML(w, v)
	case FormatMarkdown:
		r, ok := v.(types.ResearchReport)
		if !ok {
			return fmt.Errorf("markdown output is not supported for %T", v)
		}
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatTerminal:
		r, ok := v.(types.ResearchReport)
		if !ok {
			return fmt.Errorf("terminal output is not supported for %T", v)
		}
		return Terminal(w, r, TerminalWidth)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// YAML writes v as YAML.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// Terminal writes the report's Markdown styled for the terminal, wrapped
// at width columns. The style follows the terminal background and is
// plain when w is not a terminal.
func Terminal(w io.Writer, r types.ResearchReport, width int) error {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := tr.Render(Markdown(r))
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown renders a report as a Markdown document.
func Markdown(r types.ResearchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "*Generated %s", r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	if r.RunID != "" {
		fmt.Fprintf(&b, " · run %s", r.RunID)
	}
	b.WriteString("*\n\n")

	meta := []string{}
	if r.Company != "" {
		meta = append(meta, "**Company:** "+r.Company)
	}
	if r.Ticker != "" {
		meta = append(meta, "**Ticker:** "+r.Ticker)
	}
	if r.Intent != "" {
		meta = append(meta, "**Focus:** "+string(r.Intent))
	}
	meta = append(meta,
		fmt.Sprintf("**Confidence:** %.0f%%", r.Confidence*100),
		fmt.Sprintf("**Sources:** %d (%d trusted)", r.SourceCount, r.TrustedCount),
		"**Depth:** "+string(r.AnalysisDepth),
	)
	b.WriteString(strings.Join(meta, " | "))
	b.WriteString("\n\n")

	section(&b, "Executive Summary", r.ExecutiveSummary)

	if len(r.KeyFindings) > 0 {
		b.WriteString("## Key Findings\n\n")
		for _, f := range r.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f.Text)
		}
		b.WriteString("\n")
	}

	section(&b, "Detailed Analysis", r.DetailedAnalysis)

	if len(r.Considerations) > 0 {
		b.WriteString("## Important Considerations\n\n")
		for _, c := range r.Considerations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(r.SourceList) > 0 {
		b.WriteString("## Sources\n\n")
		for i, s := range r.SourceList {
			trusted := ""
			if s.Trusted {
				trusted = ", trusted"
			}
			fmt.Fprintf(&b, "%d. [%s](%s) (%s, %d/100%s)\n", i+1, escapeLinkText(s.Title), s.URL, s.QualityLabel, s.Score, trusted)
		}
		b.WriteString("\n")
	}

	if len(r.ValidationNotes) > 0 {
		b.WriteString("## Validation Notes\n\n")
		for _, n := range r.ValidationNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func section(b *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
}

func escapeLinkText(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]")
	return r.Replace(s)
}
