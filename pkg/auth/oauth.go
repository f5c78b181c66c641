package auth

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fsqpull/pkg/config"
	errs "fsqpull/pkg/errors"
	"fsqpull/pkg/logger"
)

// TokenProvider yields a per-user delegated access token. The interactive
// authorization-code flow implements it for the CLI; tests substitute a stub.
type TokenProvider interface {
	ObtainUserToken() (string, error)
}

// StaticTokenProvider returns a fixed token, for non-interactive use
type StaticTokenProvider string

func (s StaticTokenProvider) ObtainUserToken() (string, error) {
	if s == "" {
		return "", ErrCredentialsNotFound
	}
	return string(s), nil
}

// Authenticator runs the OAuth2 authorization-code flow against the
// Foursquare endpoints. The user opens the authorization URL in a browser,
// approves access, and pastes the redirected URL back; the embedded code is
// then exchanged for a long-lived access token.
type Authenticator struct {
	fsq        config.FoursquareConfig
	httpClient *http.Client
	logger     logger.Logger
}

// NewAuthenticator creates an authenticator for the configured application
func NewAuthenticator(fsq config.FoursquareConfig, log logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		fsq: fsq,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// AuthorizationURL returns the URL the user must open to approve access
func (a *Authenticator) AuthorizationURL() string {
	params := url.Values{}
	params.Set("client_id", a.fsq.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", a.fsq.RedirectURI)
	params.Set("scope", "user.checkins")
	return a.fsq.AuthURL + "?" + params.Encode()
}

// ExtractCode pulls the authorization code out of the redirected URL. It
// accepts either the full redirect URL or the bare code itself.
func (a *Authenticator) ExtractCode(redirected string) (string, error) {
	redirected = strings.TrimSpace(redirected)
	if redirected == "" {
		return "", fmt.Errorf("no authorization code provided")
	}

	if !strings.Contains(redirected, "://") {
		return redirected, nil
	}

	parsed, err := url.Parse(redirected)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL carries no authorization code")
	}
	return code, nil
}

// ExchangeCode trades an authorization code for an access token
func (a *Authenticator) ExchangeCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("authorization code is required")
	}

	form := url.Values{}
	form.Set("client_id", a.fsq.ClientID)
	form.Set("client_secret", a.fsq.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", a.fsq.RedirectURI)
	form.Set("code", code)

	resp, err := a.httpClient.PostForm(a.fsq.TokenURL, form)
	if err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("token exchange request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: fmt.Sprintf("token exchange failed with status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to decode token response: %v", err),
		}
	}
	if payload.AccessToken == "" {
		return "", &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "token response carries no access token",
		}
	}

	return payload.AccessToken, nil
}

// InteractiveProvider implements TokenProvider by walking the user through
// the browser flow on the given streams.
type InteractiveProvider struct {
	Authenticator *Authenticator
	In            io.Reader
	Out           io.Writer
}

// ObtainUserToken prompts the user and runs the full flow
func (p *InteractiveProvider) ObtainUserToken() (string, error) {
	fmt.Fprintln(p.Out, "Open the following URL in your browser and approve access:")
	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, "  "+p.Authenticator.AuthorizationURL())
	fmt.Fprintln(p.Out)
	fmt.Fprint(p.Out, "Paste the full redirect URL (or just the code): ")

	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}

	code, err := p.Authenticator.ExtractCode(line)
	if err != nil {
		return "", err
	}

	return p.Authenticator.ExchangeCode(code)
}
