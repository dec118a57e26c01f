package services

import (
	"context"

	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
)

type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewPresent ViewState = "present"
	ViewAbsent  ViewState = "absent"
)

// ResultView is the state of the results page. Only Present carries a result.
type ResultView struct {
	State  ViewState
	Result *models.AnalysisResult
}

// ResolveResultView moves the results page out of Loading. Empty, corrupt or
// unreachable storage all resolve to Absent.
func ResolveResultView(ctx context.Context, store repositories.ResultStore, sessionID string, logger *zap.Logger) ResultView {
	view := ResultView{State: ViewLoading}

	result, err := store.Load(ctx, sessionID)
	if err != nil {
		logger.Error("failed to load analysis result", zap.String("session_id", sessionID), zap.Error(err))
		view.State = ViewAbsent
		return view
	}
	if result == nil {
		view.State = ViewAbsent
		return view
	}

	normalized := result.WithDefaults()
	view.State = ViewPresent
	view.Result = &normalized
	return view
}

// ScoreCard is one banded score on the dashboard.
type ScoreCard struct {
	Score   int
	Band    Band
	Percent int
}

func NewScoreCard(score int) ScoreCard {
	return ScoreCard{
		Score:   score,
		Band:    ScoreBand(score),
		Percent: ScorePercent(score),
	}
}

// Dashboard is the view model of the results page.
type Dashboard struct {
	Overall  ScoreCard
	Keywords ScoreCard
	ATS      ScoreCard
	Result   models.AnalysisResult
}

func NewDashboard(result models.AnalysisResult) Dashboard {
	return Dashboard{
		Overall:  NewScoreCard(result.OverallScore),
		Keywords: NewScoreCard(result.KeywordMatch.Score),
		ATS:      NewScoreCard(result.ATSCompatibility.Score),
		Result:   result,
	}
}
