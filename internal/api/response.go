// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/authwatch/internal/baseline"
	"github.com/tomtom215/authwatch/internal/logging"
	"github.com/tomtom215/authwatch/internal/models"
	"github.com/tomtom215/authwatch/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error response, logging err when it is non-nil.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, models.NewError(code, message, nil))
}

// respondPipelineError maps baseline sentinel errors onto client errors and
// everything else onto a 500.
func respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, baseline.ErrInsufficientData):
		respondJSON(w, http.StatusBadRequest, models.NewError(models.ErrCodeInsufficient, err.Error(),
			map[string]interface{}{"min_samples": baseline.MinSamples}))
	case errors.Is(err, baseline.ErrModelNotTrained):
		respondJSON(w, http.StatusConflict, models.NewError(models.ErrCodeNotTrained, err.Error(), nil))
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
	}
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// respondValidationError writes a 400 for a failed validation.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, models.NewError(apiErr.Code, apiErr.Message, apiErr.Details))
}

// decodeJSONBody decodes a bounded JSON body into dst, rejecting unknown fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
