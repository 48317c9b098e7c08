package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"automindmap/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoToken is returned when no usable OAuth token is stored. Run the
// authorize command to create one.
var ErrNoToken = errors.New("no stored YouTube OAuth token")

// captionScope lets the token download caption tracks.
const captionScope = "https://www.googleapis.com/auth/youtube.force-ssl"

func newOAuthConfig(cfg config.YouTubeConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{captionScope},
		Endpoint:     google.Endpoint,
	}
}

// tokenSaver wraps the OAuth config's token source and persists every
// refreshed token so it survives restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	logger    *slog.Logger
	mu        sync.Mutex // serializes refreshes so only one write hits the token file
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	// The oauth2 source refreshes only when the cached token has expired
	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	// A new access token means a refresh happened; persist it
	if newToken.AccessToken != ts.token.AccessToken {
		ts.logger.Info("YouTube token refreshed", "expiry", newToken.Expiry)
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			ts.logger.Warn("failed to save refreshed token", "error", err)
		}
	}

	return newToken, nil
}

// tokenSource loads the stored token without any user interaction. The
// server never starts a device flow; a missing token only disables the
// OAuth-backed caption download.
func tokenSource(cfg config.YouTubeConfig, logger *slog.Logger) (oauth2.TokenSource, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client credentials not configured", ErrNoToken)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	// An expired token is fine as long as it can be refreshed.
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: token in %s expired and has no refresh token", ErrNoToken, cfg.TokenFile)
	}

	return &tokenSaver{
		config:    newOAuthConfig(cfg),
		token:     tok,
		tokenFile: cfg.TokenFile,
		logger:    logger,
	}, nil
}

// Authorize runs the OAuth device flow, printing instructions to out, and
// stores the resulting token in cfg.TokenFile.
func Authorize(ctx context.Context, cfg config.YouTubeConfig, out io.Writer) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for authorization")
	}
	oauthConfig := newOAuthConfig(cfg)

	// Ask Google for a user code; offline access gives us a refresh token
	resp, err := oauthConfig.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("device authorization failed (%s): %s. Ensure the OAuth client type is 'TVs and Limited Input devices' and the YouTube Data API v3 is enabled",
				retrieveErr.Response.Status, strings.TrimSpace(string(retrieveErr.Body)))
		}
		return fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(out, "YOUTUBE DEVICE AUTHORIZATION\n")
	fmt.Fprintf(out, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(out, "1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Fprintf(out, "2. Enter this code when prompted: %s\n\n", resp.UserCode)
	if completeURL := strings.TrimSpace(resp.VerificationURIComplete); completeURL != "" {
		fmt.Fprintf(out, "   Or open directly: %s\n\n", completeURL)
	}
	fmt.Fprintf(out, "Waiting for authorization to complete... (Ctrl+C to cancel)\n")

	// Polls the token endpoint at the interval Google returned until the
	// user approves, denies or ctx is cancelled
	tok, err := oauthConfig.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return fmt.Errorf("device authorization did not complete: %w", err)
	}

	if err := saveToken(cfg.TokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nAuthorization successful. Token saved to %s\n", cfg.TokenFile)
	return nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	// Ensure parent directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
