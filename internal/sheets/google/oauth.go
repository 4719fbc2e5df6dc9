package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig parses an installed-app OAuth client limited to the Sheets scope.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	cfg.RedirectURL = redirectURL
	return cfg, nil
}

// ReadOAuthClient returns the inline client JSON, falling back to file.
func ReadOAuthClient(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if f := strings.TrimSpace(file); f != "" {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// userTokenSource refreshes the stored user token as needed.
func userTokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	clientJSON, err := ReadOAuthClient(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	oc, err := OAuthConfig(clientJSON, "")
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	return oc.TokenSource(ctx, tok), nil
}
