package domain

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyPrefix is prepended to every displayed amount.
const CurrencyPrefix = "Rp"

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount the way the recap shows it everywhere:
// "Rp" followed by the whole-rupiah value with id-ID thousands separators.
// NaN and infinities render as zero.
//
//	FormatRupiah(15000)    -> "Rp15.000"
//	FormatRupiah(1250000)  -> "Rp1.250.000"
//	FormatRupiah(999.6)    -> "Rp1.000"
func FormatRupiah(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	whole := math.Round(amount)
	if whole == 0 {
		whole = 0 // drop the sign of -0
	}
	return CurrencyPrefix + rupiahPrinter.Sprintf("%v", number.Decimal(whole, number.Scale(0)))
}
