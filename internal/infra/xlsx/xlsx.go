// Package xlsx writes the monthly recap as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the only worksheet of the workbook.
	SheetName = "Rekap Pengeluaran"
	// FileName is the download name; it does not depend on owner or month.
	FileName = "Rekap-Pengeluaran.xlsx"
	// ContentType is the MIME type of the workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Headers are the column titles, in order.
var Headers = []string{"No", "Tanggal", "Barang", "Kategori", "Jumlah"}

// ColumnWidthsPx are the fixed column widths in pixels, same order as Headers.
var ColumnWidthsPx = []int{40, 100, 250, 120, 100}

// maxDigitWidth is the pixel width of one digit in the default Calibri 11 font.
const maxDigitWidth = 7

// Row is one exported expense. Jumlah is already display text.
type Row struct {
	No       int
	Tanggal  string
	Barang   string
	Kategori string
	Jumlah   string
}

// Rows maps records to export rows. Amounts are serialized once, here,
// through domain.FormatRupiah; the workbook never sees the raw number.
func Rows(records []domain.ExpenseRecord) []Row {
	rows := make([]Row, 0, len(records))
	for i, r := range records {
		rows = append(rows, Row{
			No:       i + 1,
			Tanggal:  r.Date,
			Barang:   r.Note,
			Kategori: r.Category,
			Jumlah:   domain.FormatRupiah(r.Amount),
		})
	}
	return rows
}

// PixelsToWidth converts a pixel width to Excel column width in characters.
func PixelsToWidth(px int) float64 {
	w := float64(px-5) / maxDigitWidth
	if w < 0 {
		w = 0
	}
	return math.Trunc(w*100+0.5) / 100
}

// WriteRecap writes a single-sheet workbook with a header row and one row
// per record.
func WriteRecap(w io.Writer, records []domain.ExpenseRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range Rows(records) {
		values := []any{row.No, row.Tanggal, row.Barang, row.Kategori, row.Jumlah}
		if err := f.SetSheetRow(SheetName, "A"+strconv.Itoa(i+2), &values); err != nil {
			return fmt.Errorf("write row %d: %w", row.No, err)
		}
	}

	if err := applyLayout(f, len(records)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// applyLayout sets column widths, a bold header and right-aligned amounts.
func applyLayout(f *excelize.File, n int) error {
	for i, px := range ColumnWidthsPx {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, PixelsToWidth(px)); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if n == 0 {
		return nil
	}

	amountStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "E2", "E"+strconv.Itoa(n+1), amountStyle); err != nil {
		return fmt.Errorf("apply amount style: %w", err)
	}
	return nil
}
