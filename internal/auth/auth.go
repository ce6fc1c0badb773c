// Package auth bridges to Google's identity provider: interactive login,
// silent token reuse, and revocation on logout.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cv_matcher/internal/app"
	"cv_matcher/internal/store"
)

const (
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
	defaultRevokeURL   = "https://accounts.google.com/o/oauth2/revoke"
)

// Scopes cover spreadsheet writes, title search over files this tool
// created, and the account email used as the tracker cache key.
var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.file",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Service acquires and revokes bearer tokens, persisting them in the store.
type Service struct {
	store       *store.Store
	conf        *oauth2.Config
	httpClient  *http.Client
	userinfoURL string
	revokeURL   string
}

// Option customizes a Service, used by tests to point at local endpoints.
type Option func(*Service)

func WithUserinfoURL(u string) Option { return func(s *Service) { s.userinfoURL = u } }
func WithRevokeURL(u string) Option   { return func(s *Service) { s.revokeURL = u } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// NewService builds the identity bridge. clientID/clientSecret come from
// the GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET environment.
func NewService(st *store.Store, clientID, clientSecret string, opts ...Option) *Service {
	s := &Service{
		store: st,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userinfoURL: defaultUserinfoURL,
		revokeURL:   defaultRevokeURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CachedToken returns a valid access token without user interaction. A
// stored expired token is refreshed and re-persisted; no stored token
// means app.ErrAuthRequired.
func (s *Service) CachedToken(ctx context.Context) (string, error) {
	raw, err := s.store.Token(ctx)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", app.ErrAuthRequired
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return "", fmt.Errorf("decode cached token: %w", err)
	}

	if tok.Valid() {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", app.ErrAuthRequired
	}

	refreshed, err := s.conf.TokenSource(ctx, &tok).Token()
	if err != nil {
		log.Warn().Err(err).Msg("Token refresh failed")
		return "", app.ErrAuthRequired
	}
	if err := s.saveToken(ctx, refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Login runs the interactive browser flow on a loopback redirect and
// stores the resulting token. Returns the account email.
func (s *Service) Login(ctx context.Context) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("start callback listener: %w", err)
	}
	defer listener.Close()

	conf := *s.conf
	conf.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr().String())
	state := uuid.New().String()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open this URL in your browser to log in:\n\n  %s\n\n", authURL)

	code, err := waitForCode(ctx, listener, state)
	if err != nil {
		return "", err
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange auth code: %w", err)
	}
	if err := s.saveToken(ctx, tok); err != nil {
		return "", err
	}

	email, err := s.UserEmail(ctx, tok.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Logged in but could not resolve account email")
		return "", nil
	}
	log.Info().Str("account", email).Msg("Logged in")
	return email, nil
}

// Logout revokes the current token server-side, then removes it from the
// cache. The cache is cleared even when revocation fails so logout always
// succeeds locally.
func (s *Service) Logout(ctx context.Context) error {
	token, err := s.CachedToken(ctx)
	if err == nil {
		revoke := fmt.Sprintf("%s?token=%s", s.revokeURL, token)
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, revoke, nil)
		if reqErr == nil {
			resp, doErr := s.httpClient.Do(req)
			if doErr != nil {
				log.Warn().Err(doErr).Msg("Token revocation failed, clearing cache anyway")
			} else {
				resp.Body.Close()
			}
		}
	}
	return s.store.DeleteToken(ctx)
}

// UserEmail resolves the account email for a bearer token.
func (s *Service) UserEmail(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &app.RemoteError{Op: "userinfo", Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))}
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("userinfo response missing email")
	}
	return info.Email, nil
}

func (s *Service) saveToken(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return s.store.SetToken(ctx, string(data))
}

// waitForCode serves a single OAuth callback and returns the auth code.
func waitForCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- result{err: fmt.Errorf("oauth state mismatch")}
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, errMsg, http.StatusBadRequest)
			results <- result{err: fmt.Errorf("authorization denied: %s", errMsg)}
			return
		}
		fmt.Fprintln(w, "Login complete. You can close this tab.")
		results <- result{code: q.Get("code")}
	})

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Close()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-results:
		return r.code, r.err
	}
}
