package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/doodle/doodletest"
	"github.com/vncsmyrnk/dood/internal/adapters/auth/jwt"
	gateway "github.com/vncsmyrnk/dood/internal/adapters/gateway/doodle"
	handler "github.com/vncsmyrnk/dood/internal/adapters/handler/http"
	repo "github.com/vncsmyrnk/dood/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/dood/internal/core/domain"
	"github.com/vncsmyrnk/dood/internal/core/ports"
	"github.com/vncsmyrnk/dood/internal/core/services"
)

type TestApp struct {
	DB          *sql.DB
	Repo        ports.PollRecordRepository
	Upstream    *doodletest.Server
	Server      *httptest.Server
	Client      *http.Client
	DBContainer testcontainers.Container
}

func setupTestApp(t *testing.T) *TestApp {
	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db, "up.sql"))

	upstream := doodletest.NewServer()
	client := doodle.NewClient("consumer-key", "consumer-secret", doodle.WithBaseURL(upstream.BaseURL()))

	recordRepo := repo.NewPollRecordRepository(db)
	svc := services.NewPollService(gateway.NewGateway(client), recordRepo, zerolog.Nop())
	router := handler.NewHandler(handler.NewPollHandler(svc), jwt.NewVerifier(testSecret, testIssuer), zerolog.Nop())
	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Repo:        recordRepo,
		Upstream:    upstream,
		Server:      server,
		Client:      server.Client(),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.Upstream.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func (app *TestApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, app.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

// TestPollFlow covers create -> ledger -> get with the stored key -> links.
func TestPollFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	token := signToken(t, "ops")

	resp := app.request(t, http.MethodPost, "/api/polls", token, map[string]any{
		"title":       "Flow Test Poll",
		"description": "Testing the basic flow",
		"initiator":   map[string]string{"name": "Ann"},
		"options":     []string{"Option A", "Option B"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		domain.PollRecord
		Links domain.PollLinks `json:"links"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEqual(t, uuid.Nil, created.ID)
	require.NotEmpty(t, created.PollID)

	var adminKey string
	err := app.DB.QueryRow("SELECT admin_key FROM poll_records WHERE poll_id = $1", created.PollID).Scan(&adminKey)
	require.NoError(t, err)
	assert.NotEmpty(t, adminKey)
	assert.Equal(t, doodle.AdminURL(created.PollID, adminKey), created.Links.AdminURL)

	// Lock the poll behind its key; reads must still succeed via the ledger.
	app.Upstream.SetPoll(created.PollID, adminKey, `<poll xmlns="http://doodle.com/xsd1"><title>Flow Test Poll</title></poll>`)

	resp = app.request(t, http.MethodGet, "/api/polls/"+created.PollID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	assert.Equal(t, "Flow Test Poll", fetched["title"])

	reqs := app.Upstream.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, adminKey, reqs[len(reqs)-1].Key)

	resp = app.request(t, http.MethodGet, fmt.Sprintf("/api/polls/%s/links", created.PollID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var links domain.PollLinks
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&links))
	resp.Body.Close()
	assert.Equal(t, created.Links, links)
}

func TestPollRecordRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	ctx := context.Background()

	_, err := app.Repo.GetByPollID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		err := app.Repo.Save(ctx, &domain.PollRecord{
			ID:        uuid.New(),
			PollID:    fmt.Sprintf("poll%d", i),
			Title:     fmt.Sprintf("Poll %d", i),
			Type:      string(doodle.PollTypeText),
			Location:  "https://doodle.com/api1/polls/poll" + fmt.Sprint(i),
			AdminKey:  "key",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	// Saving the same poll again replaces its key.
	err = app.Repo.Save(ctx, &domain.PollRecord{
		ID: uuid.New(), PollID: "poll0", Title: "Poll 0", Type: "TEXT", Location: "x", AdminKey: "rotated", CreatedAt: base,
	})
	require.NoError(t, err)

	record, err := app.Repo.GetByPollID(ctx, "poll0")
	require.NoError(t, err)
	assert.Equal(t, "rotated", record.AdminKey)

	page, err := app.Repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "poll2", page[0].PollID)
	assert.Equal(t, "poll1", page[1].PollID)

	page, err = app.Repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "poll0", page[0].PollID)
}

func TestMigrationsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	require.NoError(t, applyMigrations(app.DB, "down.sql"))

	var exists bool
	err := app.DB.QueryRow(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'poll_records')`).Scan(&exists)
	require.NoError(t, err)
	assert.False(t, exists)
}
