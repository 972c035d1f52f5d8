package doodle_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/doodle/doodletest"
)

const pollDocument = `<?xml version="1.0" encoding="UTF-8"?>
<poll xmlns="http://doodle.com/xsd1">
	<latestChange>2024-03-01T10:00:00+01:00</latestChange>
	<type>TEXT</type>
	<hidden>false</hidden>
	<levels>2</levels>
	<state>OPEN</state>
	<title>Team lunch</title>
	<description>Where do we go?</description>
	<initiator><name>Ann</name></initiator>
	<options>
		<option id="1">Pizza</option>
		<option id="2">Sushi</option>
	</options>
</poll>`

func newTestClient(t *testing.T) (*doodle.Client, *doodletest.Server) {
	t.Helper()
	server := doodletest.NewServer()
	t.Cleanup(server.Close)
	return doodle.NewClient("consumer-key", "consumer-secret", doodle.WithBaseURL(server.BaseURL())), server
}

func TestCreatePoll(t *testing.T) {
	client, server := newTestClient(t)

	res, err := client.CreatePoll(context.Background(), doodle.Poll{
		Title:       "Team lunch",
		Description: "Where do we go?",
		Initiator:   doodle.Initiator{Name: "Ann", Email: "ann@example.com"},
		Options:     doodle.TextOptions("Pizza", "Sushi"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Location, server.BaseURL()+"/polls/"))
	assert.NotEmpty(t, res.Key)
	assert.Equal(t, res.Location[strings.LastIndex(res.Location, "/")+1:], res.ID())

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api1/polls", reqs[0].Path)
	assert.Equal(t, "application/xml", reqs[0].ContentType)
	assert.Contains(t, string(reqs[0].Body), "<title>Team lunch</title>")
	assert.Contains(t, string(reqs[0].Body), "<option>Sushi</option>")
}

func TestCreatePollPreconditions(t *testing.T) {
	tests := []struct {
		name string
		poll doodle.Poll
		want error
	}{
		{
			name: "missing description and location",
			poll: doodle.Poll{Title: "Lunch", Initiator: doodle.Initiator{Name: "Ann"}},
			want: doodle.ErrDescriptionOrLocationRequired,
		},
		{
			name: "unknown type",
			poll: doodle.Poll{Type: "MEETING", Title: "Lunch", Location: "Office"},
			want: doodle.ErrInvalidPollType,
		},
		{
			name: "lowercase type",
			poll: doodle.Poll{Type: "text", Title: "Lunch", Description: "Friday"},
			want: doodle.ErrInvalidPollType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(t)

			res, err := client.CreatePoll(context.Background(), tt.poll)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)

			requestTokens, accessTokens := server.Handshakes()
			assert.Zero(t, requestTokens)
			assert.Zero(t, accessTokens)
			assert.Empty(t, server.Requests())
		})
	}
}

func TestCreatePollStatusError(t *testing.T) {
	client, server := newTestClient(t)
	server.FailWith(http.StatusBadRequest)

	_, err := client.CreatePoll(context.Background(), doodle.Poll{Title: "Lunch", Location: "Office"})
	require.Error(t, err)

	statusErr, ok := doodle.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, http.MethodPost, statusErr.Method)
	assert.Len(t, server.Requests(), 1, "must not retry")
}

func TestCreatePollMissingHeaders(t *testing.T) {
	client, server := newTestClient(t)
	server.OmitCreateHeaders(true)

	res, err := client.CreatePoll(context.Background(), doodle.Poll{Title: "Lunch", Location: "Office"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, doodle.ErrMalformedResponse)
	assert.ErrorContains(t, err, "Content-Location")
}

func TestGetPoll(t *testing.T) {
	client, server := newTestClient(t)
	server.SetPoll("abc123", "", pollDocument)

	data, err := client.GetPoll(context.Background(), "abc123", "")
	require.NoError(t, err)

	assert.Equal(t, "Team lunch", data["title"])
	assert.Equal(t, "OPEN", data["state"])
	initiator, ok := data["initiator"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ann", initiator["name"])

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api1/polls/abc123", reqs[0].Path)
	assert.Empty(t, reqs[0].Key)
}

func TestGetPollWithKey(t *testing.T) {
	client, server := newTestClient(t)
	server.SetPoll("abc123", "key1", pollDocument)

	_, err := client.GetPoll(context.Background(), "abc123", "")
	statusErr, ok := doodle.AsStatusError(err)
	require.True(t, ok)
	assert.True(t, statusErr.IsUnauthorized())

	data, err := client.GetPoll(context.Background(), "abc123", "key1")
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", data["title"])

	reqs := server.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "key1", reqs[1].Key)
}

func TestGetPollNotFound(t *testing.T) {
	client, server := newTestClient(t)

	_, err := client.GetPoll(context.Background(), "missing", "")
	statusErr, ok := doodle.AsStatusError(err)
	require.True(t, ok)
	assert.True(t, statusErr.IsNotFound())
	assert.Len(t, server.Requests(), 1, "must not retry")
}

func TestGetPollMalformed(t *testing.T) {
	client, server := newTestClient(t)
	server.SetPoll("broken", "", "<poll><title>unterminated")
	server.SetPoll("other", "", "<survey><title>Nope</title></survey>")

	_, err := client.GetPoll(context.Background(), "broken", "")
	assert.ErrorIs(t, err, doodle.ErrMalformedResponse)

	_, err = client.GetPoll(context.Background(), "other", "")
	assert.ErrorIs(t, err, doodle.ErrMalformedResponse)
}

func TestGetPollTextRoot(t *testing.T) {
	client, server := newTestClient(t)
	server.SetPoll("plain", "", `<poll>just text</poll>`)
	server.SetPoll("empty", "", `<poll/>`)

	data, err := client.GetPoll(context.Background(), "plain", "")
	require.NoError(t, err)
	assert.Equal(t, doodle.PollData{"#text": "just text"}, data)

	data, err = client.GetPoll(context.Background(), "empty", "")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	res, err := client.CreatePoll(ctx, doodle.Poll{
		Title:     "Board games",
		Location:  "Cafe",
		Hidden:    true,
		Initiator: doodle.Initiator{Name: "Ann"},
		Options:   doodle.TextOptions("Catan"),
	})
	require.NoError(t, err)

	data, err := client.GetPoll(ctx, res.ID(), "")
	require.NoError(t, err)
	assert.Equal(t, "Board games", data["title"])
	assert.Equal(t, "true", data["hidden"])
	assert.Equal(t, "2", data["levels"])
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://doodle.com/abc123key1/admin", doodle.AdminURL("abc123", "key1"))
	assert.Equal(t, "https://doodle.com/abc123", doodle.PublicURL("abc123"))

	client := doodle.NewClient("k", "s")
	assert.Equal(t, "https://doodle.com/abc123key1/admin", client.AdminURL("abc123", "key1"))
	assert.Equal(t, "https://doodle.com/abc123", client.PublicURL("abc123"))
}

func TestCreatePollResultID(t *testing.T) {
	assert.Equal(t, "abc123", doodle.CreatePollResult{Location: "https://doodle.com/api1/polls/abc123"}.ID())
	assert.Equal(t, "abc123", doodle.CreatePollResult{Location: "https://doodle.com/api1/polls/abc123/"}.ID())
	assert.Equal(t, "abc123", doodle.CreatePollResult{Location: "abc123"}.ID())
}

func TestStatusErrorMessage(t *testing.T) {
	err := error(&doodle.StatusError{StatusCode: 500, Status: "500 Internal Server Error", Method: "GET", URL: "https://doodle.com/api1/polls/x"})
	assert.Equal(t, "doodle: GET https://doodle.com/api1/polls/x: 500 Internal Server Error", err.Error())

	_, ok := doodle.AsStatusError(errors.New("plain"))
	assert.False(t, ok)
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithTimeoutIgnoresOptionOrder(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	orders := map[string]func(hc *http.Client) []doodle.ClientOption{
		"timeout first": func(hc *http.Client) []doodle.ClientOption {
			return []doodle.ClientOption{doodle.WithTimeout(50 * time.Millisecond), doodle.WithHTTPClient(hc)}
		},
		"timeout last": func(hc *http.Client) []doodle.ClientOption {
			return []doodle.ClientOption{doodle.WithHTTPClient(hc), doodle.WithTimeout(50 * time.Millisecond)}
		},
	}

	for name, opts := range orders {
		t.Run(name, func(t *testing.T) {
			transport := &countingTransport{}
			hc := &http.Client{Transport: transport}

			client := doodle.NewClient("k", "s", append(opts(hc), doodle.WithBaseURL(slow.URL))...)

			start := time.Now()
			_, err := client.GetPoll(context.Background(), "abc123", "")
			assert.ErrorIs(t, err, doodle.ErrAuthentication)
			assert.Less(t, time.Since(start), 5*time.Second)
			assert.Positive(t, transport.calls.Load(), "the caller's transport must be used")
			assert.Zero(t, hc.Timeout, "the caller's client must not be modified")
		})
	}
}
