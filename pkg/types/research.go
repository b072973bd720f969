// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the equity-research pipeline.
// A research run flows through four stages: query analysis (ResearchRequest),
// source discovery and fetching (SourceDocument), validation
// (CredibilityScore, ValidationReport), and synthesis (IndexedChunk,
// ResearchReport). All values are scoped to a single run.
package types

import "time"

// Intent classifies what the user wants to learn about a company.
type Intent string

const (
	IntentEarnings    Intent = "earnings"
	IntentValuation   Intent = "valuation"
	IntentCompetition Intent = "competition"
	IntentOutlook     Intent = "outlook"
	IntentSector      Intent = "sector"
	IntentGeneral     Intent = "general"
)

// ValidIntent reports whether i is one of the known intents.
func ValidIntent(i Intent) bool {
	switch i {
	case IntentEarnings, IntentValuation, IntentCompetition, IntentOutlook, IntentSector, IntentGeneral:
		return true
	}
	return false
}

// Mode selects how a run discovers its sources.
type Mode string

const (
	// ModeAutonomous discovers sources through the search provider.
	ModeAutonomous Mode = "autonomous"

	// ModeManual skips search and fetches user-provided URLs.
	ModeManual Mode = "manual"
)

// ResearchRequest is the structured form of a user's research question.
// It is created once per query by the analyzer and not modified afterwards.
type ResearchRequest struct {
	// RawQuery is the question exactly as the user typed it.
	RawQuery string `json:"raw_query" yaml:"raw_query"`

	// CompanyName is the primary company being researched, if identified.
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty"`

	// Ticker is the stock ticker, if identified (e.g. "AAPL").
	Ticker string `json:"ticker,omitempty" yaml:"ticker,omitempty"`

	// Intent is the kind of research requested.
	Intent Intent `json:"intent" yaml:"intent"`

	// Topics lists the subjects worth investigating, most important first.
	Topics []string `json:"topics" yaml:"topics"`

	// TimeFrame is the period of interest (e.g. "recent", "Q4 2024").
	TimeFrame string `json:"time_frame,omitempty" yaml:"time_frame,omitempty"`

	// SearchQueries are short keyword queries for the search provider.
	// Always holds at least one entry and at most the configured limit.
	SearchQueries []string `json:"search_queries" yaml:"search_queries"`
}

// Subject returns the best available name for the research target:
// company, then ticker, then the raw query.
func (r ResearchRequest) Subject() string {
	switch {
	case r.CompanyName != "":
		return r.CompanyName
	case r.Ticker != "":
		return r.Ticker
	default:
		return r.RawQuery
	}
}

// SourceDocument is the text content fetched from one URL.
type SourceDocument struct {
	// URL identifies the document and is unique within a run.
	URL string `json:"url" yaml:"url"`

	// Title is the page title, or empty when the page had none.
	Title string `json:"title" yaml:"title"`

	// RawText is the extracted plain text. It may be empty.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// FetchedAt records when the document was retrieved.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
