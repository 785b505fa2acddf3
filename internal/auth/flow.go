package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ErrCancelled is returned when the user interrupts the consent flow.
var ErrCancelled = errors.New("authorization cancelled")

// LocalServerFlow runs the installed-app consent flow: it listens on a
// loopback port, opens the consent page and exchanges the returned code.
type LocalServerFlow struct {
	// OpenBrowser opens url for the user. Defaults to the platform opener.
	OpenBrowser func(url string) error
	// Timeout bounds the wait for the user. Zero waits until ctx is done.
	Timeout time.Duration
}

type callback struct {
	code string
	err  error
}

func (f LocalServerFlow) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state, err := randomState()
	if err != nil {
		listener.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}

		var result callback
		if e := rq.FormValue("error"); e != "" {
			result.err = fmt.Errorf("authorization denied: %s", e)
			fmt.Fprintln(w, "Authorization failed. You may close this window.")
		} else if code := rq.FormValue("code"); code != "" {
			result.code = code
			fmt.Fprintln(w, "Authorization complete. You may close this window.")
		} else {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		select {
		case results <- result:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Authorization callback server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to stop authorization callback server")
		}
	}()

	open := f.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	log.Info().Str("url", authURL).Msg("Open this link to authorize access if a browser does not open")
	if err := open(authURL); err != nil {
		log.Warn().Err(err).Msg("Could not open authorization page in a browser")
	}

	waitCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-interrupt:
		return nil, ErrCancelled
	case <-waitCtx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", waitCtx.Err())
	case result := <-results:
		if result.err != nil {
			return nil, result.err
		}
		token, err := cfg.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
		}
		return token, nil
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
