package sheets

import (
	"context"
	"errors"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/hydro"

	"github.com/rs/zerolog/log"
)

// LatestWriter replaces the contents of the snapshot tab on every run.
type LatestWriter struct {
	api           ValuesAPI
	spreadsheetID string
	sheet         string
}

func NewLatestWriter(api ValuesAPI, spreadsheetID, sheet string) *LatestWriter {
	return &LatestWriter{api: api, spreadsheetID: spreadsheetID, sheet: sheet}
}

// Write clears the tab and writes the table with a trailing "date retrieved"
// column. The run timestamp lands in the last column of the last data row.
func (w *LatestWriter) Write(ctx context.Context, t hydro.Table, now time.Time) error {
	if err := t.Validate(); err != nil {
		return fault.New(fault.SheetWriteError, "write latest", err)
	}
	if w.api == nil {
		return fault.New(fault.SheetWriteError, "write latest", errors.New("no sheets client"))
	}

	rows := LatestRows(t, now)

	clearRange := a1(w.sheet, "A1:Z")
	log.Info().Str("sheet", w.sheet).Str("range", clearRange).Msg("Clearing latest sheet")
	if err := w.api.ClearRange(ctx, w.spreadsheetID, clearRange); err != nil {
		return fault.New(fault.SheetWriteError, "clear latest", err)
	}

	log.Info().
		Str("sheet", w.sheet).
		Int("rows", len(rows)).
		Str("value_input", UserEntered).
		Msg("Writing latest sheet")

	updated, err := w.api.UpdateRange(ctx, w.spreadsheetID, a1(w.sheet, "A1"), toValues(rows), UserEntered)
	if err != nil {
		return fault.New(fault.SheetWriteError, "update latest", err)
	}

	log.Info().Str("sheet", w.sheet).Int64("updated_cells", updated).Msg("Latest sheet updated")
	return nil
}

// LatestRows returns the rows written to the snapshot tab. t is not modified.
func LatestRows(t hydro.Table, now time.Time) [][]string {
	rows := t.Clone()

	header := rows[hydro.RowHeaderTop]
	if len(header) == 0 || header[len(header)-1] != hydro.TimestampLabel {
		rows[hydro.RowHeaderTop] = append(header, hydro.TimestampLabel)
	}
	width := len(rows[hydro.RowHeaderTop])

	last := len(rows) - 1
	for i := hydro.RowHeaderBottom; i < last; i++ {
		rows[i] = padRow(rows[i], width)
	}
	rows[last] = append(padRow(rows[last], width-1), now.Format(hydro.TimestampLayout))

	return rows
}

func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
