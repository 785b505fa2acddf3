package hydro

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is used for the "date retrieved" column on both tabs.
	TimestampLayout = "2006-01-02 15:04:05"
	// ReportDateLayout is the DD/MM/YYYY date written into each log entry.
	ReportDateLayout = "02/01/2006"

	// TimestampLabel heads the trailing "date retrieved" column.
	TimestampLabel = "วันที่ดึงข้อมูล"
)

// LogColumns is the width of a log entry including the trailing timestamp column.
var LogColumns = len(logHeaderTop) + 1

var (
	logHeaderTop = []string{
		"ลำดับ", "สถานี", "ลุ่มน้ำ", "อำเภอ", "จังหวัด",
		"ระดับตลิ่ง(ม.)", "ระดับน้ำ ",
		"ร้อยละความจุ(%)", "สถานะ/แนวโน้ม",
		"วันที่รายงานน้ำ ",
	}
	logHeaderBottom = []string{
		"", "", "", "", "",
		"ความจุลำน้ำ(ลบ.ม./วินาที)", "ปริมาณน้ำ ",
		"", "", "",
	}
)

// LogHeader returns the two header rows written once to an empty log tab.
func LogHeader() [][]string {
	top := append(append([]string(nil), logHeaderTop...), TimestampLabel)
	bottom := pad(append([]string(nil), logHeaderBottom...), len(top))
	return [][]string{top, bottom}
}

// LogEntry derives the 2-row summary of today's reading from a formatted
// table. The bottom row's last column carries the run timestamp.
func LogEntry(t Table, now time.Time) ([][]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	dataTop, dataBottom := t[RowTop], t[RowBottom]
	if len(dataTop) < RawColumns || len(dataBottom) < colToday+1 {
		return nil, fmt.Errorf("data rows too short: top=%d bottom=%d", len(dataTop), len(dataBottom))
	}

	top := make([]string, 0, LogColumns)
	bottom := make([]string, 0, LogColumns)

	for i := 0; i <= colBank; i++ {
		top = append(top, dataTop[i])
		bottom = append(bottom, dataBottom[i])
	}

	level, _ := SplitPair(dataTop[colToday])
	flow, _ := SplitPair(dataBottom[colToday])
	top = append(top, level)
	bottom = append(bottom, flow)

	top = append(top, dataTop[colPercent], dataTop[colTrend])
	bottom = append(bottom, "", "")

	top = append(top, now.Format(ReportDateLayout))
	bottom = append(bottom, "")

	top = append(pad(top, LogColumns-1), "")
	bottom = append(pad(bottom, LogColumns-1), now.Format(TimestampLayout))

	return [][]string{top, bottom}, nil
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
