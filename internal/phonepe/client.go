package phonepe

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Gateway is the vendor surface the HTTP layer depends on.
type Gateway interface {
	Pay(ctx context.Context, p PayRequest) (*PayResponse, error)
	ValidateCallback(username, password, authorization, body string) (*CallbackResponse, error)
}

// Env selects the PhonePe host set.
type Env string

const (
	EnvSandbox    Env = "SANDBOX"
	EnvProduction Env = "PRODUCTION"
)

const (
	sandboxBaseURL  = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	prodAuthBaseURL = "https://api.phonepe.com/apis/identity-manager"
	prodPGBaseURL   = "https://api.phonepe.com/apis/pg"

	checkoutFlowType = "PG_CHECKOUT"

	// tokens are refreshed this long before their reported expiry
	tokenSkew = 60 * time.Second
)

// ParseEnv maps a config string onto an Env. Anything other than
// "PRODUCTION" (case-insensitive) selects the sandbox.
func ParseEnv(s string) Env {
	if strings.EqualFold(strings.TrimSpace(s), string(EnvProduction)) {
		return EnvProduction
	}
	return EnvSandbox
}

// Config carries the merchant credentials issued by PhonePe. The base
// URL fields override the Env-derived hosts, mainly for tests.
type Config struct {
	ClientID      string
	ClientSecret  string
	ClientVersion string
	Env           Env

	AuthBaseURL string
	PGBaseURL   string
	HTTPClient  *http.Client
}

// Client implements Gateway against the PhonePe Standard Checkout v2
// API. Safe for concurrent use: the only mutable state is the cached
// OAuth token behind mu.
type Client struct {
	clientID      string
	clientSecret  string
	clientVersion string
	authBase      string
	pgBase        string
	httpClient    *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("phonepe: client id and client secret are required")
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "1"
	}
	authBase, pgBase := sandboxBaseURL, sandboxBaseURL
	if cfg.Env == EnvProduction {
		authBase, pgBase = prodAuthBaseURL, prodPGBaseURL
	}
	if cfg.AuthBaseURL != "" {
		authBase = cfg.AuthBaseURL
	}
	if cfg.PGBaseURL != "" {
		pgBase = cfg.PGBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		clientVersion: cfg.ClientVersion,
		authBase:      strings.TrimRight(authBase, "/"),
		pgBase:        strings.TrimRight(pgBase, "/"),
		httpClient:    hc,
	}, nil
}

// token returns a valid access token, fetching a fresh one when the
// cached token is missing or close to expiry. The lock is held across
// the refresh so concurrent callers share a single fetch.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(tokenSkew).Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_version", c.clientVersion)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBase+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("phonepe: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("phonepe: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("phonepe: read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", vendorError(resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("phonepe: decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("phonepe: token response has no access_token")
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Unix(tok.ExpiresAt, 0)
	return c.accessToken, nil
}

// Pay creates a Standard Checkout order and returns the gateway
// response. Non-2xx answers come back as *Error with the upstream
// status attached.
func (c *Client) Pay(ctx context.Context, p PayRequest) (*PayResponse, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	buf, err := json.Marshal(payBody{
		MerchantOrderID: p.MerchantOrderID,
		Amount:          p.Amount,
		ExpireAfter:     p.ExpireAfter,
		MetaInfo:        p.MetaInfo,
		PaymentFlow: payFlow{
			Type:         checkoutFlowType,
			MerchantURLs: merchantURLs{RedirectURL: p.RedirectURL},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("phonepe: encode pay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pgBase+"/checkout/v2/pay", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("phonepe: build pay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phonepe: pay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("phonepe: read pay response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, vendorError(resp.StatusCode, raw)
	}

	out := &PayResponse{Raw: raw}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("phonepe: decode pay response: %w", err)
	}
	return out, nil
}

// ValidateCallback checks the Authorization value PhonePe sends with a
// webhook against the configured credentials and decodes the body. The
// expected value is the hex SHA-256 of "username:password". The body
// must be the exact bytes received on the wire.
func (c *Client) ValidateCallback(username, password, authorization, body string) (*CallbackResponse, error) {
	sum := sha256.Sum256([]byte(username + ":" + password))
	want := hex.EncodeToString(sum[:])
	got := strings.TrimSpace(authorization)
	if !hmac.Equal([]byte(want), []byte(got)) {
		return nil, &Error{
			Code:       "INVALID_CALLBACK",
			Message:    "callback authorization mismatch",
			HTTPStatus: http.StatusUnauthorized,
		}
	}

	var env callbackEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &Error{
			Code:       "INVALID_CALLBACK",
			Message:    "callback body is not valid JSON",
			HTTPStatus: http.StatusUnauthorized,
		}
	}
	typ := env.Type
	if typ == "" {
		typ = env.Event
	}
	return &CallbackResponse{Type: typ, Payload: env.Payload}, nil
}

// vendorError shapes a non-2xx gateway answer. PhonePe error bodies
// carry code/message/data; anything undecodable falls back to the
// HTTP status text.
func vendorError(status int, body []byte) error {
	e := &Error{HTTPStatus: status, Message: http.StatusText(status)}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			e.Message = eb.Message
		}
		e.Code = eb.Code
		e.Data = eb.Data
	}
	return e
}
