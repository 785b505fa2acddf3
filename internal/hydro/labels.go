package hydro

import (
	"fmt"
	"time"
)

// Days in the rolling window shown on the dashboard, Q7 (oldest) .. Q1 (today).
const WindowDays = 7

// Indexed by time.Weekday, Sunday first.
var thaiWeekdayAbbr = [7]string{"อา.", "จ.", "อ.", "พ.", "พฤ.", "ศ.", "ส."}

// Indexed by time.Month; index 0 is unused.
var thaiMonthAbbr = [13]string{"", "ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.", "ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค."}

// DayLabel formats a date the way the dashboard header does, e.g. "พฤ. 16 ต.ค.".
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%s %d %s", thaiWeekdayAbbr[t.Weekday()], t.Day(), thaiMonthAbbr[t.Month()])
}

// DayLabels returns the labels for the seven days ending at now, oldest first.
func DayLabels(now time.Time) []string {
	labels := make([]string, 0, WindowDays)
	for i := WindowDays - 1; i >= 0; i-- {
		labels = append(labels, DayLabel(now.AddDate(0, 0, -i)))
	}
	return labels
}
