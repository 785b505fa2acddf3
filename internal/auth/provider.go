package auth

import (
	"context"
	"errors"
	"os"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const SheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// State is where credential acquisition currently stands.
type State int

const (
	NoCredential State = iota
	CachedInvalid
	Valid
)

func (s State) String() string {
	switch s {
	case NoCredential:
		return "no_credential"
	case CachedInvalid:
		return "cached_invalid"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

// InteractiveFlow obtains a token with the user's consent.
type InteractiveFlow interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// Provider turns a client-secret file and a token cache into a token source.
type Provider struct {
	credentialsFile string
	tokenFile       string
	scopes          []string
	flow            InteractiveFlow
}

func NewProvider(credentialsFile, tokenFile string, flow InteractiveFlow, scopes ...string) *Provider {
	if len(scopes) == 0 {
		scopes = []string{SheetsScope}
	}
	return &Provider{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		scopes:          scopes,
		flow:            flow,
	}
}

// TokenSource walks cached token -> refresh -> interactive consent and
// returns a source that keeps refreshing for the rest of the run. An HTTP
// client for the token endpoint may be supplied via oauth2.HTTPClient in ctx.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	log.Info().Msg("Authenticating with Google Sheets API")

	b, err := os.ReadFile(p.credentialsFile)
	if err != nil {
		return nil, fault.New(fault.CredentialError, "read client secret", err)
	}

	config, err := google.ConfigFromJSON(b, p.scopes...)
	if err != nil {
		return nil, fault.New(fault.CredentialError, "parse client secret", err)
	}

	token, state := p.cachedToken()
	obtained := false

	if state == CachedInvalid {
		if token.RefreshToken != "" {
			log.Info().Msg("Refreshing expired token")
			refreshed, err := config.TokenSource(ctx, token).Token()
			if err != nil {
				log.Warn().Err(err).Msg("Token refresh failed")
				token, state = nil, NoCredential
			} else {
				log.Info().Msg("Token refreshed")
				token, state, obtained = refreshed, Valid, true
			}
		} else {
			log.Info().Msg("Cached token expired and has no refresh token")
			token, state = nil, NoCredential
		}
	}

	if state == NoCredential {
		if p.flow == nil {
			return nil, fault.New(fault.CredentialError, "authorize", errors.New("no interactive flow configured"))
		}

		log.Info().Msg("Starting browser authorization")
		token, err = p.flow.Authorize(ctx, config)
		if err != nil {
			return nil, fault.New(fault.CredentialError, "authorize", err)
		}
		if token == nil {
			return nil, fault.New(fault.CredentialError, "authorize", errors.New("authorization returned no token"))
		}
		log.Info().Msg("Browser authorization succeeded")
		state, obtained = Valid, true
	}

	if obtained {
		if err := saveToken(p.tokenFile, token); err != nil {
			log.Error().Err(err).Str("file", p.tokenFile).Msg("Failed to save token")
		} else {
			log.Info().Str("file", p.tokenFile).Msg("Saved new token")
		}
	}

	log.Debug().Stringer("state", state).Msg("Credential ready")
	return config.TokenSource(ctx, token), nil
}

func (p *Provider) cachedToken() (*oauth2.Token, State) {
	if _, err := os.Stat(p.tokenFile); err != nil {
		log.Debug().Str("file", p.tokenFile).Msg("No cached token")
		return nil, NoCredential
	}

	token, err := tokenFromFile(p.tokenFile)
	if err != nil {
		log.Warn().Err(err).Str("file", p.tokenFile).Msg("Could not load cached token")
		return nil, NoCredential
	}
	log.Info().Str("file", p.tokenFile).Msg("Loaded cached token")

	if token.Valid() {
		return token, Valid
	}
	return token, CachedInvalid
}
