// Command oauth-init obtains a Google user token for the ledger spreadsheet
// and stores it at GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"teamfin/internal/cli"
	"teamfin/internal/config"
	gsheet "teamfin/internal/sheets/google"
)

func main() {
	port := flag.String("port", "8085", "local port for the OAuth redirect")
	timeout := flag.Duration("timeout", 5*time.Minute, "how long to wait for the authorization")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, "oauth-init")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	clientJSON, err := gsheet.ReadOAuthClient(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		logger.Error("OAuth client unavailable", "error", err)
		os.Exit(1)
	}
	oc, err := gsheet.OAuthConfig(clientJSON, "http://localhost:"+*port+"/callback")
	if err != nil {
		logger.Error("Invalid OAuth client", "error", err)
		os.Exit(1)
	}

	outFile := cfg.GoogleOAuthTokenFile
	if outFile == "" {
		outFile = "token.json"
	}

	tok, err := authorize(ctx, oc, ":"+*port, *timeout)
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}
	if err := gsheet.SaveToken(outFile, tok); err != nil {
		logger.Error("Failed to save token", "error", err, "path", outFile)
		os.Exit(1)
	}
	logger.Info("Saved token", "path", outFile)
}

// authorize runs the installed-app flow against a one-shot local callback.
func authorize(ctx context.Context, oc *oauth2.Config, addr string, timeout time.Duration) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			notify(errCh, fmt.Errorf("oauth error: %s", q.Get("error")))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			notify(codeCh, q.Get("code"))
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			notify(errCh, err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case code := <-codeCh:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// notify delivers v unless a value is already pending.
func notify[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
