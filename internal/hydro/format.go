package hydro

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/rs/zerolog/log"
)

// RawColumns is the number of visible cells in a station row.
const RawColumns = 17

// Raw cell positions.
const (
	colBank    = 5
	colToday   = 12
	colAverage = 13
	colChart   = 14
	colPercent = 15
	colTrend   = 16
)

// Identity cells (rank, station, basin, district, province) occupy 0..4.
const identityColumns = 5

// NotAvailable fills the half of a level/flow pair that the page did not provide.
const NotAvailable = "N/A"

// Header and data row positions within a Table.
const (
	RowHeaderTop = iota
	RowHeaderBottom
	RowTop
	RowBottom

	tableRows
)

// RawRow holds the cleaned text of each visible cell of the station row, in page order.
type RawRow []string

// Table is the 4-row layout written to the latest tab: two header rows
// followed by the level row (top) and the flow row (bottom).
type Table [][]string

var (
	identityLabels = []string{"ลำดับ", "สถานี", "ลุ่มน้ำ", "อำเภอ", "จังหวัด"}
	bankLabel      = "ระดับตลิ่ง(ม.)"
	capacityLabel  = "ความจุลำน้ำ(ลบ.ม./วินาที)"
	averageLabel   = "เฉลี่ย"
	chartLabel     = "กราฟ"
	percentLabel   = "ร้อยละความจุ"
	trendLabel     = "แนวโน้ม"
	avgFlowLabel   = "เฉลี่ย ปริมาณน้ำ"
)

// SplitPair splits a combined "level flow" cell. The first token is the top
// value and the last token the bottom value; missing halves become N/A.
func SplitPair(s string) (top, bottom string) {
	parts := strings.Fields(s)
	top, bottom = NotAvailable, NotAvailable
	if len(parts) > 0 {
		top = parts[0]
	}
	if len(parts) > 1 {
		bottom = parts[len(parts)-1]
	}
	return top, bottom
}

// Headers returns the two header rows for the window ending at now.
func Headers(now time.Time) (top, bottom []string) {
	top = append(top, identityLabels...)
	top = append(top, bankLabel)
	top = append(top, DayLabels(now)...)
	top = append(top, averageLabel, chartLabel, percentLabel, trendLabel)

	bottom = make([]string, identityColumns, RawColumns)
	bottom = append(bottom, capacityLabel)
	for q := WindowDays; q >= 1; q-- {
		bottom = append(bottom, fmt.Sprintf("ปริมาณน้ำQ%d", q))
	}
	bottom = append(bottom, avgFlowLabel, "", "", "")

	return top, bottom
}

// Format lays a raw row out as the dashboard shows it.
func Format(raw RawRow, now time.Time) (Table, error) {
	if len(raw) != RawColumns {
		return nil, fault.New(fault.MalformedRow, "format row",
			fmt.Errorf("expected %d cells, got %d", RawColumns, len(raw)))
	}

	headerTop, headerBottom := Headers(now)

	top := make([]string, 0, RawColumns)
	bottom := make([]string, 0, RawColumns)

	for i := 0; i < identityColumns; i++ {
		top = append(top, raw[i])
		bottom = append(bottom, "")
	}

	for i := colBank; i <= colAverage; i++ {
		t, b := SplitPair(raw[i])
		top = append(top, t)
		bottom = append(bottom, b)
	}

	top = append(top, raw[colChart], raw[colPercent], raw[colTrend])
	bottom = append(bottom, "", "", "")

	log.Debug().Int("columns", len(top)).Msg("Formatted row like the dashboard")
	return Table{headerTop, headerBottom, top, bottom}, nil
}

// Clone returns a deep copy so writers can pad rows without sharing state.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Validate checks the 4-row shape the writers depend on.
func (t Table) Validate() error {
	if len(t) != tableRows {
		return fmt.Errorf("expected %d rows, got %d", tableRows, len(t))
	}
	return nil
}
