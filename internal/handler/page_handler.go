package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"slices"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/service"
	"github.com/peykeuangan/rekap-pengeluaran-go/web"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var pageTemplates = template.Must(
	template.New("pages").Funcs(template.FuncMap{
		"rupiah": domain.FormatRupiah,
		"inc":    func(i int) int { return i + 1 },
	}).ParseFS(web.TemplatesFS, "templates/*.html"),
)

type recapPage struct {
	Recap      *domain.MonthlyRecap
	Categories []string
	// UnknownCategory is set when the active filter matches no category of
	// the month; the page still shows it as selected.
	UnknownCategory bool
	ExportURL       string
}

func exportURL(ownerID, month string) string {
	return "/v1/owners/" + url.PathEscape(ownerID) + "/recaps/" + url.PathEscape(month) + "/export"
}

// ============================================================
// Recap page
// GET /rekap/{ownerId}/{month}?kategori=
// ============================================================

func recapPageHandler(svc *service.RecapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /rekap/{ownerId}/{month}")
		defer span.End()

		q := service.RecapQuery{
			OwnerID:  chi.URLParam(r, "ownerId"),
			Month:    chi.URLParam(r, "month"),
			Category: r.URL.Query().Get("kategori"),
		}

		status := http.StatusOK
		recap, err := svc.GetMonthlyRecap(ctx, q)
		if err != nil {
			status = logServiceError(err, logger)
			if recap == nil {
				http.Error(w, err.Error(), status)
				return
			}
		}

		categories := recap.Categories()
		data := recapPage{
			Recap:           recap,
			Categories:      categories,
			UnknownCategory: recap.Category != "" && !slices.Contains(categories, recap.Category),
			ExportURL:       exportURL(recap.OwnerID, recap.Range.Month),
		}

		var buf bytes.Buffer
		if err := pageTemplates.ExecuteTemplate(&buf, "rekap.html", data); err != nil {
			logger.Error("recap page template failed", zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(buf.Bytes())
	}
}
