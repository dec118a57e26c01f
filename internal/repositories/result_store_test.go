package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

func newTestStore(t *testing.T) (ResultStore, SlotBackend, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	backend := NewMemorySlotBackend()
	store, err := NewResultStore(backend, zap.New(core))
	require.NoError(t, err)
	return store, backend, logs
}

func sampleResult() models.AnalysisResult {
	userID := "user_42"
	return models.AnalysisResult{
		GrammarSuggestions: []string{"Fix tense in summary"},
		KeywordMatch: models.KeywordMatch{
			Matched: []string{"Go", "PostgreSQL"},
			Missing: []string{"Kafka"},
			Score:   66,
		},
		ATSCompatibility: models.ATSCompatibility{
			Score:       88,
			Issues:      []string{},
			Suggestions: []string{"Avoid columns"},
		},
		ShouldLearnTechnologys: []string{"Kafka"},
		OverallScore:           72,
		Summary:                "Strong match.",
		Metadata: &models.Metadata{
			Filename:          "cv.pdf",
			FileSize:          2097152,
			FileType:          "application/pdf",
			AnalysisTimestamp: "2024-05-01T10:00:00Z",
			UserID:            &userID,
		},
	}
}

func TestResultStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	for name, result := range map[string]models.AnalysisResult{
		"full":        sampleResult(),
		"no metadata": {OverallScore: 10},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, "s1", result))

			loaded, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, result.WithDefaults(), *loaded)
		})
	}
}

func TestResultStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "s1", models.AnalysisResult{OverallScore: 10}))
	require.NoError(t, store.Save(ctx, "s1", models.AnalysisResult{OverallScore: 90}))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.OverallScore)

	// Load does not clear the slot.
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, loaded, again)
}

func TestResultStore_Absent(t *testing.T) {
	store, _, logs := newTestStore(t)

	loaded, err := store.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.Zero(t, logs.Len())
}

func TestResultStore_CorruptPayload(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"overallScore": 7`,
		"foreign json":  `{"theme": "dark"}`,
		"wrong types":   `{"grammarSuggestions": "x", "keywordMatch": {}, "atsCompatibility": {}, "shouldLearnTechnologys": [], "overallScore": "high", "summary": ""}`,
		"json array":    `[1, 2, 3]`,
		"null sequence": `{"grammarSuggestions": null, "keywordMatch": {"matched": [], "missing": [], "score": 1}, "atsCompatibility": {"score": 1, "issues": [], "suggestions": []}, "shouldLearnTechnologys": [], "overallScore": 1, "summary": ""}`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, backend, logs := newTestStore(t)
			require.NoError(t, backend.Put(ctx, "s1", ResultSlotKey, []byte(payload)))

			loaded, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, loaded)
			assert.Equal(t, 1, logs.FilterMessage("discarding stored analysis result").Len())
		})
	}
}

func TestResultStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "s1", sampleResult()))
	require.NoError(t, store.Clear(ctx, "s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStorageCorruptionError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := &StorageCorruptionError{Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "corrupt")
}
