package main

import (
	"github.com/sadd15/water-data-scraper/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	envFile     string
	configFile  string
	credentials string
	token       string
	rowID       string
	dryRun      bool
	strict      bool
}

// newRootCmd builds the single command. exitCode receives the status the
// process should exit with once the command returns.
func newRootCmd(exitCode *int) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "water-data-scraper",
		Short: "Scrape one river gauge row and write it to Google Sheets.",
		Long: "water-data-scraper loads the RID hydrology dashboard in headless Chrome, reads one station row " +
			"and writes it to a snapshot tab and an append-only log tab of a spreadsheet.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.envFile != "" {
				app.SetupEnvironment(f.envFile)
			} else {
				app.SetupEnvironment()
			}

			settings, err := app.SettingsFromEnv()
			if err != nil {
				log.Error().Err(err).Msg("Invalid settings")
				*exitCode = app.ExitConfig
				return nil
			}
			applyFlags(cmd, f, &settings)

			summary := app.NewRunner(settings).Run(cmd.Context())
			*exitCode = summary.ExitCode(settings.StrictExit)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Load environment variables from this file instead of .env.")
	cmd.Flags().StringVar(&f.configFile, "config", "", "Path to the key=value config file (env CONFIG_FILE).")
	cmd.Flags().StringVar(&f.credentials, "credentials", "", "Path to the OAuth client secret (env CREDENTIALS_FILE).")
	cmd.Flags().StringVar(&f.token, "token", "", "Path to the cached OAuth token (env TOKEN_FILE).")
	cmd.Flags().StringVar(&f.rowID, "row", "", "Element id of the station row (env TARGET_ROW_ID).")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Scrape and print the table without touching the spreadsheet.")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit non-zero when scraping or a sheet write fails (env STRICT_EXIT).")

	return cmd
}

// applyFlags overrides settings with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, f flags, s *app.Settings) {
	changed := cmd.Flags().Changed

	if changed("config") {
		s.ConfigFile = f.configFile
	}
	if changed("credentials") {
		s.CredentialsFile = f.credentials
	}
	if changed("token") {
		s.TokenFile = f.token
	}
	if changed("row") {
		s.Scrape.RowID = f.rowID
	}
	if changed("strict") {
		s.StrictExit = f.strict
	}
	s.DryRun = f.dryRun
}
