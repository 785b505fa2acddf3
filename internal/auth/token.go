package auth

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// authorizedUser is the google-auth "authorized_user" token layout. It is
// accepted on read so an existing token.json keeps working.
type authorizedUser struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenFromFile loads a cached token.
func tokenFromFile(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}

	if tok.AccessToken == "" {
		var legacy authorizedUser
		if err := json.Unmarshal(b, &legacy); err == nil {
			tok.AccessToken = legacy.Token
			if tok.RefreshToken == "" {
				tok.RefreshToken = legacy.RefreshToken
			}
		}
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no access or refresh token", path)
	}
	return tok, nil
}

// saveToken writes the token with owner-only permissions.
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}
