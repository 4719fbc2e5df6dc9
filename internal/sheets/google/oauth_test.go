package google

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testOAuthClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",` +
	`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
	`"redirect_uris":["http://localhost"]}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}))

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(testOAuthClient), "http://localhost:8085/callback")
	require.NoError(t, err)
	assert.Equal(t, "id.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, "http://localhost:8085/callback", cfg.RedirectURL)
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/spreadsheets")

	_, err = OAuthConfig([]byte("{}"), "")
	assert.Error(t, err)
}

func TestReadOAuthClient(t *testing.T) {
	b, err := ReadOAuthClient(" "+testOAuthClient+" ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, testOAuthClient, string(b))

	_, err = ReadOAuthClient("", "")
	assert.ErrorContains(t, err, "GOOGLE_OAUTH_CLIENT_JSON")
}

func TestNewWithUserToken(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")
	require.NoError(t, SaveToken(tokenPath, &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}))

	cli, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet-id",
		OAuthClientJSON: testOAuthClient,
		OAuthTokenFile:  tokenPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ledger", cli.sheetBase)

	_, err = New(context.Background(), Config{SpreadsheetID: "sheet-id", OAuthTokenFile: tokenPath})
	assert.ErrorContains(t, err, "missing oauth client")
}
