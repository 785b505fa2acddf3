package sheets

import (
	"context"
	"errors"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/hydro"

	"github.com/rs/zerolog/log"
)

// LogWriter appends one 2-row entry per run to the history tab.
type LogWriter struct {
	api           ValuesAPI
	spreadsheetID string
	sheet         string
}

func NewLogWriter(api ValuesAPI, spreadsheetID, sheet string) *LogWriter {
	return &LogWriter{api: api, spreadsheetID: spreadsheetID, sheet: sheet}
}

// Write appends today's reading. An empty tab gets the header block first.
// Values are stored as literal text.
func (w *LogWriter) Write(ctx context.Context, t hydro.Table, now time.Time) error {
	if w.api == nil {
		return fault.New(fault.SheetWriteError, "write log", errors.New("no sheets client"))
	}

	entry, err := hydro.LogEntry(t, now)
	if err != nil {
		return fault.New(fault.SheetWriteError, "build log entry", err)
	}

	empty, err := w.isEmpty(ctx)
	if err != nil {
		return fault.New(fault.SheetWriteError, "check log header", err)
	}

	var rows [][]string
	if empty {
		log.Info().Str("sheet", w.sheet).Msg("Log sheet is empty, adding header")
		rows = append(rows, hydro.LogHeader()...)
	}
	rows = append(rows, entry...)

	log.Info().
		Str("sheet", w.sheet).
		Int("rows", len(rows)).
		Str("value_input", Raw).
		Msg("Appending to log sheet")

	appended, err := w.api.AppendRows(ctx, w.spreadsheetID, a1(w.sheet, "A1"), toValues(rows), Raw)
	if err != nil {
		return fault.New(fault.SheetWriteError, "append log", err)
	}

	log.Info().Str("sheet", w.sheet).Int64("updated_rows", appended).Msg("Log sheet appended")
	return nil
}

func (w *LogWriter) isEmpty(ctx context.Context) (bool, error) {
	values, err := w.api.ReadRange(ctx, w.spreadsheetID, a1(w.sheet, "A1"))
	if err != nil {
		return false, err
	}
	return len(values) == 0, nil
}
