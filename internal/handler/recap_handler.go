package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/xlsx"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// exportIDHeader identifies one served workbook in responses and logs.
const exportIDHeader = "X-Export-ID"

// ============================================================
// Recap
// GET /v1/owners/{ownerId}/recaps/{month}?category=
// ============================================================

func getRecapHandler(svc *service.RecapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/owners/{ownerId}/recaps/{month}")
		defer span.End()

		q := service.RecapQuery{
			OwnerID:  chi.URLParam(r, "ownerId"),
			Month:    chi.URLParam(r, "month"),
			Category: r.URL.Query().Get("category"),
			Refresh:  parseBool(r.URL.Query().Get("refresh")),
		}

		recap, err := svc.GetMonthlyRecap(ctx, q)
		if err != nil {
			if recap == nil {
				handleServiceError(w, err, logger)
				return
			}
			// Failed fetch: the body still carries the failed state and any
			// last good records.
			writeJSON(w, logServiceError(err, logger), recap)
			return
		}

		writeJSON(w, http.StatusOK, recap)
	}
}

// ============================================================
// Recap state
// GET /v1/owners/{ownerId}/recaps/{month}/state
// ============================================================

func recapStateHandler(svc *service.RecapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := chi.URLParam(r, "ownerId")
		month := chi.URLParam(r, "month")

		state, err := svc.State(ownerID, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.RecapStateResponse{
			OwnerID: ownerID,
			Month:   month,
			State:   state,
		})
	}
}

// ============================================================
// Export
// GET /v1/owners/{ownerId}/recaps/{month}/export
// ============================================================

func exportRecapHandler(svc *service.RecapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/owners/{ownerId}/recaps/{month}/export")
		defer span.End()

		ownerID := chi.URLParam(r, "ownerId")
		month := chi.URLParam(r, "month")

		// Buffered so a failure can still be reported as JSON.
		var buf bytes.Buffer
		n, err := svc.ExportRecap(ctx, ownerID, month, &buf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		exportID := uuid.New().String()
		span.SetAttributes(attribute.String("export.id", exportID))

		w.Header().Set("Content-Type", xlsx.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", xlsx.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set(exportIDHeader, exportID)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			logger.Warn("export: write failed", zap.String("export_id", exportID), zap.Error(err))
			return
		}

		logger.Info("recap exported",
			zap.String("export_id", exportID),
			zap.String("owner_id", ownerID),
			zap.String("month", month),
			zap.Int("records", n),
			zap.Int("bytes", buf.Len()),
		)
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
