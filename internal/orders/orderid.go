package orders

import (
	"fmt"
	"time"
)

// orderIDPrefix brands every public order number.
const orderIDPrefix = "NCBD"

// FormatOrderID renders the public order number: NCBD-YYYYMMDD-NNNN where
// NNNN is the 1-based sequence within the day.
func FormatOrderID(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", orderIDPrefix, day.Format("20060102"), seq)
}

// DayRange returns the [start, end) UTC bounds of the calendar day containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
