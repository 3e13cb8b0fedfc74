package mcp

import (
	"errors"
	"fmt"

	"github.com/vocabtrainer/server/internal/domain/builder"
	"github.com/vocabtrainer/server/internal/domain/session"
	"github.com/vocabtrainer/server/internal/generation"
	"github.com/vocabtrainer/server/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain sentinel errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Call start_session to begin a new one"}
	case errors.Is(err, session.ErrNoCurrentQuestion):
		return &APIError{Code: "NO_CURRENT_QUESTION", Message: "no question is currently served", RecoveryHint: "Call start_session or wait for generation to catch up"}
	case errors.Is(err, builder.ErrNoEligibleClusters):
		return &APIError{Code: "VALIDATION_FAILURE", Message: "no eligible clusters to generate from", RecoveryHint: "Import more vocabulary clusters"}
	case errors.Is(err, builder.ErrStageOneFailed):
		return &APIError{Code: "VALIDATION_FAILURE", Message: "question generation failed validation repeatedly", RecoveryHint: "Retry; if persistent, check the generation backend"}
	case errors.Is(err, generation.ErrBackendUnavailable):
		return &APIError{Code: "BACKEND_UNAVAILABLE", Message: "generation backend unavailable", RecoveryHint: "Check the configured backend endpoint"}
	case errors.Is(err, generation.ErrEmptyResponse):
		return &APIError{Code: "BACKEND_UNAVAILABLE", Message: "generation backend returned an empty response", RecoveryHint: "Retry the request"}
	case errors.Is(err, repository.ErrStorageFailure):
		return &APIError{Code: "STORAGE_FAILURE", Message: "storage failure", RecoveryHint: "Check database availability"}
	default:
		return nil
	}
}
