package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/rs/zerolog/log"
)

const (
	KeySpreadsheetID   = "SPREADSHEET_ID"
	KeySheetNameLatest = "SHEET_NAME_LATEST"
	KeySheetNameLog    = "SHEET_NAME_LOG"
)

// Config is the parsed key=value file. It is not modified after Load returns.
type Config struct {
	values map[string]string

	SpreadsheetID   string
	SheetNameLatest string
	SheetNameLog    string
}

// Get returns the raw value for key, including keys the job does not use itself.
func (c Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Load reads the config file at path and checks the required keys.
func Load(path string) (Config, error) {
	log.Info().Str("file", path).Msg("Reading config file")

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fault.New(fault.ConfigError, "open config", err)
	}
	defer f.Close()

	values, err := Parse(f)
	if err != nil {
		return Config{}, fault.New(fault.ConfigError, "parse config", err)
	}

	cfg := Config{
		values:          values,
		SpreadsheetID:   values[KeySpreadsheetID],
		SheetNameLatest: values[KeySheetNameLatest],
		SheetNameLog:    values[KeySheetNameLog],
	}

	var missing []string
	for _, key := range []string{KeySpreadsheetID, KeySheetNameLatest, KeySheetNameLog} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fault.New(fault.ConfigError, "validate config",
			fmt.Errorf("missing required keys: %s", strings.Join(missing, ", ")))
	}

	log.Info().
		Str("spreadsheet_id", cfg.SpreadsheetID).
		Str("latest", cfg.SheetNameLatest).
		Str("log", cfg.SheetNameLog).
		Msg("Config loaded")

	return cfg, nil
}

// Parse reads key=value lines. Blank lines, '#' comments and lines without '='
// are skipped; the first '=' separates key from value and the last occurrence
// of a key wins.
func Parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		values[key] = value

		log.Info().
			Int("line", lineNum).
			Str("key", key).
			Str("value", value).
			Msg("Parsed config entry")
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return values, nil
}
