package services

import (
	"math"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

// Normalize maps the backend wire result onto the canonical result, filling
// every missing field with its zero value. Metadata is copied only when the
// backend sent it.
func Normalize(raw *models.BackendAnalysisResult) models.AnalysisResult {
	if raw == nil {
		raw = &models.BackendAnalysisResult{}
	}

	result := models.AnalysisResult{
		GrammarSuggestions:     stringList(raw.GrammarSuggestions),
		ShouldLearnTechnologys: stringList(raw.ShouldLearnTechnologys),
		OverallScore:           scoreValue(raw.OverallScore),
		Summary:                textValue(raw.Summary),
		KeywordMatch: models.KeywordMatch{
			Matched: []string{},
			Missing: []string{},
		},
		ATSCompatibility: models.ATSCompatibility{
			Issues:      []string{},
			Suggestions: []string{},
		},
	}

	if km := raw.KeywordMatch; km != nil {
		result.KeywordMatch = models.KeywordMatch{
			Matched: stringList(km.Matched),
			Missing: stringList(km.Missing),
			Score:   scoreValue(km.Score),
		}
	}

	if ats := raw.ATSCompatibility; ats != nil {
		result.ATSCompatibility = models.ATSCompatibility{
			Score:       scoreValue(ats.Score),
			Issues:      stringList(ats.Issues),
			Suggestions: stringList(ats.Suggestions),
		}
	}

	if md := raw.Metadata; md != nil {
		result.Metadata = &models.Metadata{
			Filename:          md.Filename,
			FileSize:          md.FileSize,
			FileType:          md.FileType,
			AnalysisTimestamp: md.AnalysisTimestamp,
			UserID:            md.UserID,
		}
	}

	return result
}

// ToWire re-expresses a canonical result in the backend's shape.
// Normalize(ToWire(r)) equals r for any normalized r.
func ToWire(result models.AnalysisResult) *models.BackendAnalysisResult {
	overall := float64(result.OverallScore)
	keywordScore := float64(result.KeywordMatch.Score)
	atsScore := float64(result.ATSCompatibility.Score)
	summary := result.Summary

	raw := &models.BackendAnalysisResult{
		GrammarSuggestions:     result.GrammarSuggestions,
		ShouldLearnTechnologys: result.ShouldLearnTechnologys,
		OverallScore:           &overall,
		Summary:                &summary,
		KeywordMatch: &models.BackendKeywordMatch{
			Matched: result.KeywordMatch.Matched,
			Missing: result.KeywordMatch.Missing,
			Score:   &keywordScore,
		},
		ATSCompatibility: &models.BackendATSCompatibility{
			Score:       &atsScore,
			Issues:      result.ATSCompatibility.Issues,
			Suggestions: result.ATSCompatibility.Suggestions,
		},
	}

	if md := result.Metadata; md != nil {
		raw.Metadata = &models.BackendMetadata{
			Filename:          md.Filename,
			FileSize:          md.FileSize,
			FileType:          md.FileType,
			AnalysisTimestamp: md.AnalysisTimestamp,
			UserID:            md.UserID,
		}
	}

	return raw
}

func stringList(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func scoreValue(value *float64) int {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return 0
	}
	return int(math.Round(*value))
}

func textValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
