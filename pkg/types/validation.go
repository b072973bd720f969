// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CredibilityScore is the heuristic trust estimate for one SourceDocument.
type CredibilityScore struct {
	// SourceURL references the scored SourceDocument.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Score is between 0 and 100 inclusive.
	Score int `json:"score" yaml:"score"`

	// IsTrustedDomain is set when the URL belongs to a trusted financial domain.
	IsTrustedDomain bool `json:"is_trusted_domain" yaml:"is_trusted_domain"`

	// Notes explains the signals that contributed to the score.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ValidationReport aggregates the credibility scores of a run's sources.
type ValidationReport struct {
	// Scores maps each document URL to its score.
	Scores map[string]CredibilityScore `json:"scores" yaml:"scores"`

	// OverallConfidence is the trust-weighted confidence in [0,1].
	OverallConfidence float64 `json:"overall_confidence" yaml:"overall_confidence"`

	// TrustedCount is the number of sources on trusted domains.
	TrustedCount int `json:"trusted_count" yaml:"trusted_count"`

	// HighQualityCount is the number of sources at or above the
	// high-confidence threshold.
	HighQualityCount int `json:"high_quality_count" yaml:"high_quality_count"`

	// Warnings are user-visible problems with the source set. They never
	// abort a run.
	Warnings []string `json:"warnings" yaml:"warnings"`

	// Notes are informational highlights about the source set.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// SourceCount returns the number of scored sources.
func (v ValidationReport) SourceCount() int {
	return len(v.Scores)
}

// AllNotes returns warnings followed by informational notes.
func (v ValidationReport) AllNotes() []string {
	out := make([]string, 0, len(v.Warnings)+len(v.Notes))
	out = append(out, v.Warnings...)
	out = append(out, v.Notes...)
	return out
}
