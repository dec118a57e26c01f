package models

// BackendAnalysisResult is the JSON shape returned by the analysis backend.
// Every field is optional on the wire.
type BackendAnalysisResult struct {
	GrammarSuggestions     []string                 `json:"grammar_suggestions,omitempty"`
	KeywordMatch           *BackendKeywordMatch     `json:"keyword_match,omitempty"`
	ATSCompatibility       *BackendATSCompatibility `json:"ats_compatibility,omitempty"`
	ShouldLearnTechnologys []string                 `json:"should_learn_technologys,omitempty"`
	OverallScore           *float64                 `json:"overall_score,omitempty"`
	Summary                *string                  `json:"summary,omitempty"`
	Metadata               *BackendMetadata         `json:"metadata,omitempty"`
}

type BackendKeywordMatch struct {
	Matched []string `json:"matched,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

type BackendATSCompatibility struct {
	Score       *float64 `json:"score,omitempty"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type BackendMetadata struct {
	Filename          string  `json:"filename"`
	FileSize          int64   `json:"file_size"`
	FileType          string  `json:"file_type"`
	AnalysisTimestamp string  `json:"analysis_timestamp"`
	UserID            *string `json:"user_id"`
}

// AnalysisResult is the normalized result every page renders from.
// All fields are populated; Metadata is nil when the backend sent none.
type AnalysisResult struct {
	GrammarSuggestions     []string         `json:"grammarSuggestions"`
	KeywordMatch           KeywordMatch     `json:"keywordMatch"`
	ATSCompatibility       ATSCompatibility `json:"atsCompatibility"`
	ShouldLearnTechnologys []string         `json:"shouldLearnTechnologys"`
	OverallScore           int              `json:"overallScore"`
	Summary                string           `json:"summary"`
	Metadata               *Metadata        `json:"metadata,omitempty"`
}

type KeywordMatch struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Score   int      `json:"score"`
}

type ATSCompatibility struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type Metadata struct {
	Filename          string  `json:"filename"`
	FileSize          int64   `json:"fileSize"`
	FileType          string  `json:"fileType"`
	AnalysisTimestamp string  `json:"analysisTimestamp"`
	UserID            *string `json:"userId"`
}

// RelayError is the envelope the proxy relay answers with on failure.
type RelayError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Status  int    `json:"status,omitempty"`
}

// WithDefaults returns a copy whose nil sequences are replaced by empty ones.
func (r AnalysisResult) WithDefaults() AnalysisResult {
	r.GrammarSuggestions = orEmpty(r.GrammarSuggestions)
	r.ShouldLearnTechnologys = orEmpty(r.ShouldLearnTechnologys)
	r.KeywordMatch.Matched = orEmpty(r.KeywordMatch.Matched)
	r.KeywordMatch.Missing = orEmpty(r.KeywordMatch.Missing)
	r.ATSCompatibility.Issues = orEmpty(r.ATSCompatibility.Issues)
	r.ATSCompatibility.Suggestions = orEmpty(r.ATSCompatibility.Suggestions)
	return r
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
