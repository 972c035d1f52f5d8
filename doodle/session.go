package doodle

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Credentials identify the calling application to the service. They are
// issued at https://doodle.com/mydoodle/consumer/credentials.html.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

const (
	oauthVersion     = "1.0"
	oauthCallbackOOB = "oob"
)

// sessionManager performs the OAuth1 token exchange on first use and keeps
// the signed client until reset. The exchange sends no verifier and does not
// require oauth_callback_confirmed, so plain OAuth 1.0 providers work too.
type sessionManager struct {
	mu              sync.Mutex
	creds           Credentials
	requestTokenURL string
	accessTokenURL  string
	callback        string
	signer          oauth1.Signer
	noncer          oauth1.Noncer
	now             func() time.Time
	httpClient      *http.Client
	client          *http.Client
	logger          zerolog.Logger
}

func newSessionManager(creds Credentials, baseURL string, httpClient *http.Client, logger zerolog.Logger) *sessionManager {
	return &sessionManager{
		creds:           creds,
		requestTokenURL: baseURL + "/oauth/requesttoken",
		accessTokenURL:  baseURL + "/oauth/accesstoken",
		callback:        oauthCallbackOOB,
		signer:          &oauth1.HMACSigner{ConsumerSecret: creds.ConsumerSecret},
		noncer:          uuidNoncer{},
		now:             time.Now,
		httpClient:      httpClient,
		logger:          logger,
	}
}

func (m *sessionManager) session(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	m.logger.Debug().Str("url", m.requestTokenURL).Msg("requesting oauth request token")
	requestToken, requestSecret, err := m.fetchToken(ctx, m.requestTokenURL, m.requestTokenParams(), "")
	if err != nil {
		return nil, fmt.Errorf("%w: request token: %w", ErrAuthentication, err)
	}

	m.logger.Debug().Str("url", m.accessTokenURL).Msg("exchanging request token for access token")
	accessToken, accessSecret, err := m.fetchToken(ctx, m.accessTokenURL, m.accessTokenParams(requestToken), requestSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %w", ErrAuthentication, err)
	}

	config := oauth1.NewConfig(m.creds.ConsumerKey, m.creds.ConsumerSecret)
	config.Signer = m.signer
	config.Noncer = m.noncer

	sessionCtx := context.WithValue(context.Background(), oauth1.HTTPClient, m.httpClient)
	client := config.Client(sessionCtx, oauth1.NewToken(accessToken, accessSecret))
	client.Timeout = m.httpClient.Timeout

	m.client = client
	m.logger.Debug().Msg("doodle session established")
	return m.client, nil
}

func (m *sessionManager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
}

func (m *sessionManager) commonParams() map[string]string {
	return map[string]string{
		"oauth_consumer_key":     m.creds.ConsumerKey,
		"oauth_signature_method": m.signer.Name(),
		"oauth_timestamp":        strconv.FormatInt(m.now().Unix(), 10),
		"oauth_nonce":            m.noncer.Nonce(),
		"oauth_version":          oauthVersion,
	}
}

func (m *sessionManager) requestTokenParams() map[string]string {
	params := m.commonParams()
	params["oauth_callback"] = m.callback
	return params
}

func (m *sessionManager) accessTokenParams(requestToken string) map[string]string {
	params := m.commonParams()
	params["oauth_token"] = requestToken
	return params
}

// fetchToken performs one signed token request and reads the
// oauth_token/oauth_token_secret pair from the form-encoded reply.
func (m *sessionManager) fetchToken(ctx context.Context, tokenURL string, params map[string]string, tokenSecret string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build request: %w", err)
	}
	if err := m.sign(req, params, tokenSecret); err != nil {
		return "", "", err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     req.Method,
			URL:        tokenURL,
			Header:     resp.Header,
			Body:       body,
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	token, secret := values.Get("oauth_token"), values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return "", "", fmt.Errorf("%w: token response without oauth_token and oauth_token_secret", ErrMalformedResponse)
	}
	return token, secret, nil
}

// sign computes the HMAC signature over req and params (RFC 5849 3.4) and
// sets the OAuth Authorization header.
func (m *sessionManager) sign(req *http.Request, params map[string]string, tokenSecret string) error {
	collected := make(map[string]string, len(params))
	for key, values := range req.URL.Query() {
		collected[key] = values[0]
	}
	for key, value := range params {
		collected[key] = value
	}

	signature, err := m.signer.Sign(tokenSecret, signatureBase(req, collected))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	params["oauth_signature"] = signature

	req.Header.Set("Authorization", "OAuth "+strings.Join(encodedPairs(params, `%s="%s"`), ", "))
	return nil
}

func signatureBase(req *http.Request, params map[string]string) string {
	return strings.Join([]string{
		strings.ToUpper(req.Method),
		oauth1.PercentEncode(baseURI(req.URL)),
		oauth1.PercentEncode(strings.Join(encodedPairs(params, "%s=%s"), "&")),
	}, "&")
}

func baseURI(u *url.URL) string {
	host := strings.ToLower(u.Host)
	if h, port, err := net.SplitHostPort(host); err == nil && (port == "80" || port == "443") {
		host = h
	}
	return strings.ToLower(u.Scheme) + "://" + host + u.EscapedPath()
}

// encodedPairs percent-encodes params and formats them sorted by key.
func encodedPairs(params map[string]string, format string) []string {
	encoded := make(map[string]string, len(params))
	keys := make([]string, 0, len(params))
	for key, value := range params {
		k := oauth1.PercentEncode(key)
		encoded[k] = oauth1.PercentEncode(value)
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, key := range keys {
		pairs[i] = fmt.Sprintf(format, key, encoded[key])
	}
	return pairs
}

type uuidNoncer struct{}

func (uuidNoncer) Nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
