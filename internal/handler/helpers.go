package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// classifyError maps a domain error to its HTTP status, the level it is
// logged at and a short log message.
func classifyError(err error) (int, zapcore.Level, string) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, zapcore.DebugLevel, "validation error"
	case errors.As(err, &notFound):
		return http.StatusNotFound, zapcore.DebugLevel, "not found"
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, zapcore.WarnLevel, "unauthorized"
	case errors.As(err, &forbidden):
		return http.StatusForbidden, zapcore.WarnLevel, "forbidden access"
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable, zapcore.ErrorLevel, "circuit breaker open"
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, zapcore.ErrorLevel, "request timeout"
	case errors.As(err, &external):
		return http.StatusBadGateway, zapcore.ErrorLevel, "external service error"
	default:
		return http.StatusInternalServerError, zapcore.ErrorLevel, "unhandled error"
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := logServiceError(err, logger)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// logServiceError logs err at the level matching its class and returns the
// HTTP status for it.
func logServiceError(err error, logger *zap.Logger) int {
	status, level, msg := classifyError(err)
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(zap.Error(err), zap.Int("status", status))
	}
	return status
}
