package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

// ResultSlotKey names the slot holding the latest analysis of a session.
const ResultSlotKey = "cvAnalysisResult"

type ResultStore interface {
	Save(ctx context.Context, sessionID string, result models.AnalysisResult) error
	// Load returns nil when the slot is empty or holds unreadable data.
	Load(ctx context.Context, sessionID string) (*models.AnalysisResult, error)
	Clear(ctx context.Context, sessionID string) error
}

// StorageCorruptionError means a stored result could not be read back.
type StorageCorruptionError struct {
	Cause error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("stored analysis result is corrupt: %v", e.Cause)
}

func (e *StorageCorruptionError) Unwrap() error {
	return e.Cause
}

type resultStore struct {
	backend SlotBackend
	schema  *gojsonschema.Schema
	logger  *zap.Logger
}

func NewResultStore(backend SlotBackend, logger *zap.Logger) (ResultStore, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisResultSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}

	return &resultStore{
		backend: backend,
		schema:  schema,
		logger:  logger,
	}, nil
}

// Save overwrites the session's slot.
func (s *resultStore) Save(ctx context.Context, sessionID string, result models.AnalysisResult) error {
	payload, err := json.Marshal(result.WithDefaults())
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := s.backend.Put(ctx, sessionID, ResultSlotKey, payload); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (s *resultStore) Load(ctx context.Context, sessionID string) (*models.AnalysisResult, error) {
	payload, ok, err := s.backend.Get(ctx, sessionID, ResultSlotKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	if !ok {
		return nil, nil
	}

	result, err := s.decode(payload)
	if err != nil {
		s.logger.Warn("discarding stored analysis result",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, nil
	}

	return result, nil
}

func (s *resultStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.backend.Delete(ctx, sessionID, ResultSlotKey); err != nil {
		return fmt.Errorf("failed to clear result: %w", err)
	}
	return nil
}

func (s *resultStore) decode(payload []byte) (*models.AnalysisResult, error) {
	validation, err := s.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, &StorageCorruptionError{Cause: err}
	}

	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &StorageCorruptionError{Cause: fmt.Errorf("schema mismatch: %s", strings.Join(problems, "; "))}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &StorageCorruptionError{Cause: err}
	}

	return &result, nil
}

const analysisResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "grammarSuggestions",
    "keywordMatch",
    "atsCompatibility",
    "shouldLearnTechnologys",
    "overallScore",
    "summary"
  ],
  "definitions": {
    "texts": {"type": "array", "items": {"type": "string"}}
  },
  "properties": {
    "grammarSuggestions": {"$ref": "#/definitions/texts"},
    "keywordMatch": {
      "type": "object",
      "required": ["matched", "missing", "score"],
      "properties": {
        "matched": {"$ref": "#/definitions/texts"},
        "missing": {"$ref": "#/definitions/texts"},
        "score": {"type": "integer"}
      }
    },
    "atsCompatibility": {
      "type": "object",
      "required": ["score", "issues", "suggestions"],
      "properties": {
        "score": {"type": "integer"},
        "issues": {"$ref": "#/definitions/texts"},
        "suggestions": {"$ref": "#/definitions/texts"}
      }
    },
    "shouldLearnTechnologys": {"$ref": "#/definitions/texts"},
    "overallScore": {"type": "integer"},
    "summary": {"type": "string"},
    "metadata": {
      "type": "object",
      "required": ["filename", "fileSize", "fileType", "analysisTimestamp"],
      "properties": {
        "filename": {"type": "string"},
        "fileSize": {"type": "integer"},
        "fileType": {"type": "string"},
        "analysisTimestamp": {"type": "string"},
        "userId": {"type": ["string", "null"]}
      }
    }
  }
}`
