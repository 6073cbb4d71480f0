package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/quantrunner/HQSAgent/internal/config"
	"github.com/quantrunner/HQSAgent/internal/env"
)

const (
	loginPath          = "login"
	defaultHTTPTimeout = 30 * time.Second
)

// RequestError reports a non-200 response from the authentication endpoint,
// carrying the provider's diagnostic fields.
type RequestError struct {
	StatusCode int
	Status     string
	Code       any
	Detail     string
	Meta       map[string]any
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("auth: request failed: %d %s", e.StatusCode, e.Status)
	if e.Code != nil || e.Detail != "" {
		msg += fmt.Sprintf(" (code=%v detail=%s)", e.Code, e.Detail)
	}
	return msg
}

// Manager produces a currently-valid bearer token on demand, refreshing or
// re-authenticating transparently and persisting every successful mutation
// into the injected config store.
//
// A Manager is not safe for concurrent use; one instance serves one circuit
// execution at a time.
type Manager struct {
	user       string
	baseURL    string
	store      config.Store
	secrets    SecretProvider
	httpClient *http.Client
	creds      Credentials
	now        func() time.Time
}

// Option customizes Manager construction.
type Option func(*Manager)

// WithUser sets an explicit user identity, taking priority over $HQS_USER and
// the config document.
func WithUser(user string) Option {
	return func(m *Manager) { m.user = strings.TrimSpace(user) }
}

// WithSecretProvider replaces the interactive terminal prompt.
func WithSecretProvider(p SecretProvider) Option {
	return func(m *Manager) { m.secrets = p }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a credential manager against the API base URL, loading
// any persisted token pair from the store. The user identity is resolved
// explicit option > $HQS_USER > config document; it may still be absent at
// construction time and is only required once an interactive login happens.
func NewManager(baseURL string, store config.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("auth: config store is required")
	}
	m := &Manager{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		store:      store,
		secrets:    TerminalSecretProvider{},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.baseURL == "" {
		return nil, errors.New("auth: base URL is required")
	}
	if m.user == "" {
		m.user = env.String(EnvUser, "")
	}
	if m.user == "" {
		if user, ok, err := store.Read(KeyUser); err == nil && ok {
			m.user = strings.TrimSpace(user)
		}
	}
	if access, ok, err := store.Read(KeyAccessToken); err == nil && ok {
		m.creds.AccessToken = access
	}
	if refresh, ok, err := store.Read(KeyRefreshToken); err == nil && ok {
		m.creds.RefreshToken = refresh
	}
	m.creds.User = m.user
	return m, nil
}

// User returns the resolved account identity, possibly empty.
func (m *Manager) User() string {
	return m.user
}

// Credentials returns a copy of the currently held token pair.
func (m *Manager) Credentials() Credentials {
	return m.creds
}

// Token implements the token source consumed by the job client. It returns
// the held access token when still valid, otherwise refreshes or falls back
// to an interactive login, persisting whichever succeeds.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m.creds.AccessToken != "" {
		expired, err := TokenExpired(m.creds.AccessToken, m.now())
		if err == nil && !expired {
			return m.creds.AccessToken, nil
		}
		if err != nil {
			log.Debug().Msg("stored access token is not decodable; re-authenticating")
		}
	}

	if m.creds.RefreshToken != "" {
		if expired, err := TokenExpired(m.creds.RefreshToken, m.now()); err == nil && !expired {
			access, err := m.Refresh(ctx, m.creds.RefreshToken)
			if err == nil {
				m.creds.AccessToken = access
				if err := m.Save(access, ""); err != nil {
					return "", err
				}
				return access, nil
			}
			// The server response is the authoritative expiry signal; only a
			// rejected refresh falls through to interactive login.
			if !errors.Is(err, ErrExpiredRefreshToken) {
				return "", err
			}
			log.Debug().Msg("refresh token rejected; falling back to login")
		}
	}

	access, refresh, err := m.Login(ctx)
	if err != nil {
		return "", err
	}
	m.creds.AccessToken = access
	m.creds.RefreshToken = refresh
	if err := m.Save(access, refresh); err != nil {
		return "", err
	}
	return access, nil
}

// Login prompts for the account secret and exchanges {email, password} for a
// fresh token pair. The secret buffer is zeroed as soon as the request body
// has been built and is never logged.
func (m *Manager) Login(ctx context.Context) (access, refresh string, err error) {
	if m.user == "" {
		return "", "", errors.Wrapf(ErrMissingIdentity, "set $%s or %s in the config document", EnvUser, KeyUser)
	}
	secret, err := m.secrets.Secret(m.user)
	if err != nil {
		return "", "", err
	}
	body, err := json.Marshal(map[string]string{
		"email":    m.user,
		"password": string(secret),
	})
	zeroSecret(secret)
	if err != nil {
		return "", "", errors.Wrap(err, "encode login request failed")
	}

	tokens, err := m.postLogin(ctx, body)
	// The marshalled body still holds the secret.
	zeroSecret(body)
	if err != nil {
		return "", "", err
	}
	if tokens.IDToken == "" {
		return "", "", errors.New("auth: login response carries no id-token")
	}
	log.Info().Str("user", m.user).Msg("logged in to quantum job API")
	return tokens.IDToken, tokens.RefreshToken, nil
}

// Refresh exchanges the refresh token for a new access token. A 400 or 403
// response reports ErrExpiredRefreshToken so the caller can fall back to a
// full login; any other non-200 is fatal.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refresh-token": refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "encode refresh request failed")
	}
	tokens, err := m.postLogin(ctx, body)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) &&
			(reqErr.StatusCode == http.StatusBadRequest || reqErr.StatusCode == http.StatusForbidden) {
			return "", errors.Wrap(ErrExpiredRefreshToken, reqErr.Error())
		}
		return "", err
	}
	if tokens.IDToken == "" {
		return "", errors.New("auth: refresh response carries no id-token")
	}
	log.Debug().Msg("refreshed access token")
	return tokens.IDToken, nil
}

// Save persists the token pair under the provider namespace, writing the full
// document back so unrelated settings survive. An empty refresh token leaves
// the stored one untouched.
func (m *Manager) Save(accessToken, refreshToken string) error {
	if err := m.store.Write(KeyAccessToken, accessToken); err != nil {
		return errors.Wrap(err, "persist access token failed")
	}
	if refreshToken != "" {
		if err := m.store.Write(KeyRefreshToken, refreshToken); err != nil {
			return errors.Wrap(err, "persist refresh token failed")
		}
	}
	return nil
}

type tokenResponse struct {
	IDToken      string `json:"id-token"`
	RefreshToken string `json:"refresh-token"`
}

func (m *Manager) postLogin(ctx context.Context, body []byte) (*tokenResponse, error) {
	url := m.baseURL + "/" + loginPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build login request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "authentication request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read authentication response failed")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newRequestError(resp, raw)
	}
	var tokens tokenResponse
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, errors.Wrap(err, "decode authentication response failed")
	}
	return &tokens, nil
}

func newRequestError(resp *http.Response, raw []byte) *RequestError {
	reqErr := &RequestError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
	}
	var diag struct {
		StatusCode int            `json:"status_code"`
		Code       any            `json:"code"`
		Detail     string         `json:"detail"`
		Meta       map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(raw, &diag); err == nil {
		reqErr.Code = diag.Code
		reqErr.Detail = diag.Detail
		reqErr.Meta = diag.Meta
	}
	return reqErr
}
