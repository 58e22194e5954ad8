package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler"
	pgRepo "github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository/postgres"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/storage"
	"github.com/marcos-nsantos/focusdeck-sync/internal/client/api"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/auth"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/database"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/events"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/middleware"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/server"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/conflict"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/device"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
	syncUC "github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

const (
	testDBUser     = "testuser"
	testDBPassword = "testpass"
	testDBName     = "testdb"
	testJWTSecret  = "test-secret-key-for-e2e-tests"
	testPassword   = "correct horse battery staple"
	apiBasePath    = "/api/v1"
)

type TestApp struct {
	Server     *httptest.Server
	Pool       *pgxpool.Pool
	Container  testcontainers.Container
	Hub        *events.Hub
	BaseURL    string
	httpClient *http.Client
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}

	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(ctx, pool))

	logger := zap.NewNop()

	credentialRepo := pgRepo.NewCredentialRepo(pool)
	deviceRepo := pgRepo.NewDeviceRepo(pool)
	refreshTokenRepo := pgRepo.NewRefreshTokenRepo(pool)
	pairingRepo := pgRepo.NewPairingRepo(pool)
	changeRepo := pgRepo.NewChangeRepo(pool)
	conflictRepo := pgRepo.NewConflictRepo(pool)
	limiter := pgRepo.NewAttemptLimiter(pool, 15*time.Minute, 5, 15*time.Minute)

	jwtSvc := auth.NewJWTService(testJWTSecret, 15*time.Minute, "focusdeck-e2e")
	hub := events.NewHub(logger)

	deviceSvc := device.NewService(deviceRepo, refreshTokenRepo, hub, 24*time.Hour, logger)
	sessionSvc := session.NewService(deviceRepo, refreshTokenRepo, deviceSvc, jwtSvc, 24*time.Hour, logger)
	// Cheap KDF settings keep the handshakes fast.
	pakeSvc := pake.NewService(credentialRepo, cache.NewMemoryHandshakeStore(), limiter, pake.Config{
		ServerSecret:   []byte("e2e-pake-secret"),
		SessionTTL:     time.Minute,
		KDFTime:        1,
		KDFMemoryKiB:   8 * 1024,
		KDFParallelism: 1,
	}, logger)
	pairingSvc := pairing.NewService(pairingRepo, sessionSvc, deviceSvc, pairing.Config{
		CodeTTL:        5 * time.Minute,
		CodeLength:     8,
		MaxAttempts:    5,
		DeepLinkScheme: "focusdeck",
		DeviceTTL:      24 * time.Hour,
	}, logger)
	syncSvc := syncUC.NewService(changeRepo, conflictRepo, hub, syncUC.Config{
		PullDefaultLimit: 100,
		PullMaxLimit:     500,
		MaxPushBatch:     100,
	}, logger)
	conflictSvc := conflict.NewService(conflictRepo, storage.NopArchive{}, logger)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(pakeSvc, deviceSvc, sessionSvc),
		PairingHandler: handler.NewPairingHandler(pairingSvc),
		SyncHandler:    handler.NewSyncHandler(syncSvc, conflictSvc),
		EventsHandler:  handler.NewEventsHandler(hub, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtSvc, deviceSvc),
		Health:         pool.Ping,
		Logger:         logger,
		Environment:    "test",
	})

	ts := httptest.NewServer(router.Engine())

	return &TestApp{
		Server:    ts,
		Pool:      pool,
		Container: pgContainer,
		Hub:       hub,
		BaseURL:   ts.URL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (app *TestApp) cleanup(t *testing.T) {
	t.Helper()

	app.Server.Close()
	app.Pool.Close()

	ctx := context.Background()
	if err := app.Container.Terminate(ctx); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// recordingTransport keeps every request body sent through it.
type recordingTransport struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))

		rt.mu.Lock()
		rt.bodies = append(rt.bodies, body)
		rt.mu.Unlock()
	}
	return http.DefaultTransport.RoundTrip(req)
}

func (rt *recordingTransport) Bodies() [][]byte {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([][]byte(nil), rt.bodies...)
}

// newClient returns a device client whose request bodies are recorded.
func (app *TestApp) newClient() (*api.Client, *recordingTransport) {
	rt := &recordingTransport{}
	return api.New(app.BaseURL, &http.Client{Transport: rt, Timeout: 10 * time.Second}), rt
}

func testDevice(id string) api.Device {
	return api.Device{DeviceID: id, Name: "Device " + id, Platform: "linux"}
}

// registerAndLogin creates an account and signs in one device.
func registerAndLogin(t *testing.T, app *TestApp, username, deviceID string) *api.Client {
	t.Helper()
	ctx := context.Background()

	client, _ := app.newClient()
	_, err := client.Register(ctx, username, testPassword)
	require.NoError(t, err)
	_, err = client.Login(ctx, username, testPassword, testDevice(deviceID))
	require.NoError(t, err)
	return client
}

// loginDevice signs an existing account in on another device.
func loginDevice(t *testing.T, app *TestApp, username, deviceID string) *api.Client {
	t.Helper()
	client, _ := app.newClient()
	_, err := client.Login(context.Background(), username, testPassword, testDevice(deviceID))
	require.NoError(t, err)
	return client
}

func (app *TestApp) request(method, path string, body any, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, app.BaseURL+apiBasePath+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.httpClient.Do(req)
}

func (app *TestApp) get(path string, headers map[string]string) (*http.Response, error) {
	return app.request(http.MethodGet, path, nil, headers)
}

func (app *TestApp) post(path string, body any, headers map[string]string) (*http.Response, error) {
	return app.request(http.MethodPost, path, body, headers)
}

func parseResponse(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if dest != nil {
		err = json.Unmarshal(body, dest)
		require.NoError(t, err, "response body: %s", string(body))
	}
}

func authHeader(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}
