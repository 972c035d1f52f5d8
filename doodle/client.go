package doodle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clbanning/mxj/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://doodle.com/api1"

	publicURLTemplate = "https://doodle.com/%s"
	adminURLTemplate  = "https://doodle.com/%s%s/admin"

	keyHeader = "X-DoodleKey"

	// textKey holds the character data of an element, as mxj names it.
	textKey = "#text"
)

// Client talks to the doodle.com REST API. It is safe for concurrent use;
// the OAuth1 session is established once, on the first call that needs it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	sessions   *sessionManager
}

type ClientOption func(*Client)

// WithBaseURL points the client at another API root, e.g. a staging host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds every HTTP call, token exchange included. It applies to
// the client given with WithHTTPClient regardless of option order, without
// modifying the caller's client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(consumerKey, consumerSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}

	creds := Credentials{ConsumerKey: consumerKey, ConsumerSecret: consumerSecret}
	c.sessions = newSessionManager(creds, c.baseURL, c.httpClient, c.logger)
	return c
}

// ResetSession drops the cached session; the next call authenticates again.
func (c *Client) ResetSession() {
	c.sessions.reset()
}

// CreatePoll creates p and returns its location URL and admin key.
func (c *Client) CreatePoll(ctx context.Context, p Poll) (*CreatePollResult, error) {
	if p.Type == "" {
		p.Type = PollTypeText
	}
	if !p.Type.valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPollType, p.Type)
	}
	if p.Description == "" && p.Location == "" {
		return nil, ErrDescriptionOrLocationRequired
	}

	body, err := MarshalPoll(p)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/xml")

	resp, _, err := c.do(ctx, http.MethodPost, c.baseURL+"/polls", header, body)
	if err != nil {
		return nil, err
	}

	res := &CreatePollResult{
		Location: resp.Header.Get("Content-Location"),
		Key:      resp.Header.Get(keyHeader),
	}
	if res.Location == "" {
		return nil, fmt.Errorf("%w: missing Content-Location header", ErrMalformedResponse)
	}
	if res.Key == "" {
		return nil, fmt.Errorf("%w: missing %s header", ErrMalformedResponse, keyHeader)
	}
	return res, nil
}

// GetPoll fetches a poll. key is the admin key and is only needed for polls
// not created by this session.
func (c *Client) GetPoll(ctx context.Context, pollID, key string) (PollData, error) {
	header := http.Header{}
	if key != "" {
		header.Set(keyHeader, key)
	}

	_, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/polls/"+url.PathEscape(pollID), header, nil)
	if err != nil {
		return nil, err
	}

	doc, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	root, ok := doc["poll"]
	if !ok {
		return nil, fmt.Errorf("%w: missing poll element", ErrMalformedResponse)
	}
	switch v := root.(type) {
	case map[string]any:
		return PollData(v), nil
	case string:
		if v == "" {
			return PollData{}, nil
		}
		return PollData{textKey: v}, nil
	default:
		return PollData{}, nil
	}
}

// AdminURL returns the management URL of a poll.
func AdminURL(pollID, key string) string {
	return fmt.Sprintf(adminURLTemplate, pollID, key)
}

// PublicURL returns the participation URL of a poll.
func PublicURL(pollID string) string {
	return fmt.Sprintf(publicURLTemplate, pollID)
}

func (c *Client) AdminURL(pollID, key string) string {
	return AdminURL(pollID, key)
}

func (c *Client) PublicURL(pollID string) string {
	return PublicURL(pollID)
}

func (c *Client) do(ctx context.Context, method, target string, header http.Header, body []byte) (*http.Response, []byte, error) {
	session, err := c.sessions.session(ctx)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := session.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("doodle: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("doodle request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     method,
			URL:        target,
			Header:     resp.Header,
			Body:       respBody,
		}
	}

	return resp, respBody, nil
}
