package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/scraper"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTargetURL = "https://hyd-app.rid.go.th/hydro4d.html"
	DefaultRowID     = "235"
	DefaultGridID    = "jqGrid"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Settings is built once at startup and handed to every component.
type Settings struct {
	ConfigFile      string
	CredentialsFile string
	TokenFile       string

	Scrape scraper.Options

	// AuthTimeout bounds the interactive consent flow. Zero waits until interrupted.
	AuthTimeout time.Duration

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string

	MetricsTextfile string

	StrictExit bool
	DryRun     bool
}

// SettingsFromEnv reads process settings from the environment, falling back
// to defaults for anything unset. Malformed values are a ConfigError.
func SettingsFromEnv() (Settings, error) {
	pageLoad, err := getEnvDuration("PAGE_LOAD_TIMEOUT", 180*time.Second)
	if err != nil {
		return Settings{}, err
	}
	elementWait, err := getEnvDuration("ELEMENT_WAIT_TIMEOUT", 60*time.Second)
	if err != nil {
		return Settings{}, err
	}
	authTimeout, err := getEnvDuration("AUTH_TIMEOUT", 5*time.Minute)
	if err != nil {
		return Settings{}, err
	}
	ntfyEnabled, err := getEnvBool("NTFY_ENABLED", false)
	if err != nil {
		return Settings{}, err
	}
	strict, err := getEnvBool("STRICT_EXIT", false)
	if err != nil {
		return Settings{}, err
	}
	headless, err := getEnvBool("HEADLESS", true)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		ConfigFile:      GetEnvWithDefault("CONFIG_FILE", besideExecutable("config.txt")),
		CredentialsFile: GetEnvWithDefault("CREDENTIALS_FILE", besideExecutable("credentials.json")),
		TokenFile:       GetEnvWithDefault("TOKEN_FILE", besideExecutable("token.json")),
		Scrape: scraper.Options{
			URL:                GetEnvWithDefault("TARGET_URL", DefaultTargetURL),
			GridID:             GetEnvWithDefault("GRID_ID", DefaultGridID),
			RowID:              GetEnvWithDefault("TARGET_ROW_ID", DefaultRowID),
			PageLoadTimeout:    pageLoad,
			ElementWaitTimeout: elementWait,
			ScreenshotDir:      GetEnvWithDefault("SCREENSHOT_DIR", "."),
			Launch: scraper.LaunchOptions{
				UserAgent:    GetEnvWithDefault("USER_AGENT", DefaultUserAgent),
				WindowWidth:  1920,
				WindowHeight: 1080,
				Headless:     headless,
			},
		},
		AuthTimeout:     authTimeout,
		NtfyEnabled:     ntfyEnabled,
		NtfyURL:         GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:       GetEnvWithDefault("NTFY_TOPIC", "water-data-scraper"),
		NtfyPriority:    os.Getenv("NTFY_PRIORITY"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		StrictExit:      strict,
	}

	log.Debug().
		Str("config_file", s.ConfigFile).
		Str("url", s.Scrape.URL).
		Str("row_id", s.Scrape.RowID).
		Dur("page_load_timeout", s.Scrape.PageLoadTimeout).
		Dur("element_wait_timeout", s.Scrape.ElementWaitTimeout).
		Bool("notifications", s.NtfyEnabled).
		Msg("Settings loaded")

	return s, nil
}

var executable = os.Executable

// besideExecutable resolves a default file name against the directory holding
// the binary, following symlinks. Explicit env or flag values are not passed
// through here and stay as given.
func besideExecutable(name string) string {
	exe, err := executable()
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Cannot locate executable, using working directory")
		return name
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("90s", "3m") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fault.New(fault.ConfigError, "read "+key, fmt.Errorf("invalid duration %q", value))
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fault.New(fault.ConfigError, "read "+key, fmt.Errorf("invalid boolean %q", value))
	}
	return b, nil
}
