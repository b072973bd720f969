// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AnalysisDepth describes how much source material backed a report.
type AnalysisDepth string

const (
	DepthDeep     AnalysisDepth = "Deep"
	DepthModerate AnalysisDepth = "Moderate"
	DepthSurface  AnalysisDepth = "Surface"
)

// DepthForChars maps the total number of fetched characters to an AnalysisDepth.
func DepthForChars(total int) AnalysisDepth {
	switch {
	case total > 10000:
		return DepthDeep
	case total > 5000:
		return DepthModerate
	default:
		return DepthSurface
	}
}

// Quality labels attached to each entry of a report's source list.
const (
	QualityHigh   = "High Quality"
	QualityMedium = "Medium Quality"
	QualityLow    = "Low Quality"
)

// QualityLabel returns the label for a 0..100 score given the minimum and
// high confidence thresholds (both 0..1).
func QualityLabel(score int, minConfidence, highConfidence float64) string {
	s := float64(score)
	switch {
	case s >= highConfidence*100:
		return QualityHigh
	case s >= minConfidence*100:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Finding is one key finding in a report.
type Finding struct {
	// Text is the finding with its citation markers.
	Text string `json:"text" yaml:"text"`

	// CitedURL is the first source cited by the finding, or empty.
	CitedURL string `json:"cited_url,omitempty" yaml:"cited_url,omitempty"`
}

// SourceEntry describes one source in a report's source list.
type SourceEntry struct {
	URL          string `json:"url" yaml:"url"`
	Title        string `json:"title" yaml:"title"`
	QualityLabel string `json:"quality_label" yaml:"quality_label"`
	Score        int    `json:"score" yaml:"score"`
	Trusted      bool   `json:"trusted" yaml:"trusted"`
}

// ResearchReport is the final output of a research run.
type ResearchReport struct {
	// RunID identifies the run that produced the report.
	RunID string `json:"run_id" yaml:"run_id"`

	// Title is "Equity Research Report: <subject>".
	Title string `json:"title" yaml:"title"`

	// GeneratedAt is the synthesis timestamp.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Company string `json:"company,omitempty" yaml:"company,omitempty"`
	Ticker  string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Intent  Intent `json:"intent" yaml:"intent"`

	// Confidence equals the validation report's overall confidence.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// SourceCount is the number of documents that survived fetching.
	SourceCount int `json:"source_count" yaml:"source_count"`

	// TrustedCount is the number of those documents on trusted domains.
	TrustedCount int `json:"trusted_count" yaml:"trusted_count"`

	AnalysisDepth AnalysisDepth `json:"analysis_depth" yaml:"analysis_depth"`

	ExecutiveSummary string    `json:"executive_summary" yaml:"executive_summary"`
	KeyFindings      []Finding `json:"key_findings" yaml:"key_findings"`
	DetailedAnalysis string    `json:"detailed_analysis" yaml:"detailed_analysis"`
	Considerations   []string  `json:"considerations" yaml:"considerations"`

	// SourceList lists every fetched document in fetch order.
	SourceList []SourceEntry `json:"source_list" yaml:"source_list"`

	// ValidationNotes are the validation warnings followed by its notes.
	ValidationNotes []string `json:"validation_notes" yaml:"validation_notes"`
}

// ReportTitle formats the report title for a subject.
func ReportTitle(subject string) string {
	return "Equity Research Report: " + subject
}
