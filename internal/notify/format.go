// internal/notify/format.go
package notify

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// rupiahPrinter applies Indonesian digit grouping (dots every three digits).
var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a whole-Rupiah amount with the Rp symbol and
// Indonesian grouping, no fractional digits: 100000000 -> "Rp100.000.000".
func FormatRupiah(amount int64) string {
	return rupiahPrinter.Sprintf("Rp%d", amount)
}

var weekdaysID = [...]string{
	"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
}

var monthsID = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDateID renders the Indonesian long form: weekday, day, month name,
// year and 24h time with the id-ID dot separator, e.g.
// "Senin, 15 Januari 2024 14.30". The timestamp renders in its own location;
// callers pass times already in the customer's zone.
func FormatDateID(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d %02d.%02d",
		weekdaysID[t.Weekday()],
		t.Day(),
		monthsID[t.Month()-1],
		t.Year(),
		t.Hour(),
		t.Minute(),
	)
}
