package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Amr-9/SeedHunter/internal/config"
	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/Amr-9/SeedHunter/pkg/grind"
)

// Every worker draws the same seed, whose address is knownAddress.
const (
	knownSeed    = "AAAAAAAAAAAAAAAA"
	knownAddress = "7WXMo4Jt9bDc7VUdEjb1U2rdJ1bEQqktwBdHqye3BbVx"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Server.MaxConcurrentWorkers = 4
	cfg.Grind.CPUs = 2
	cfg.Grind.Timeout = 10 * time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	fixed, err := seed.Parse(knownSeed)
	require.NoError(t, err)
	srv, err := NewServerWithOptions(cfg, zap.NewNop(), &ServerOptions{
		Version: "1.2.3",
		GrindOptions: []grind.Option{
			grind.WithSeedFactory(func(int) seed.Source { return seed.NewSequence(fixed) }),
		},
		ProgressInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if srv.limiter != nil {
			srv.limiter.Stop()
		}
	})
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = -1

	_, err := NewServer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Equal(t, "1.2.3", docs["version"])
	assert.Contains(t, docs["endpoints"], "GET /grind")

	rec = get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, HealthResponse{Status: "healthy", Service: "seedhunter", Version: "1.2.3"}, health)
}

func TestGrind(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/grind?prefix=7WXMo")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp GrindResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, knownAddress, resp.Address)
	assert.Equal(t, knownSeed, resp.Seed)
	require.Len(t, resp.SeedBytes, 16)
	for _, b := range resp.SeedBytes {
		assert.Equal(t, int('A'), b)
	}
	assert.Equal(t, config.DefaultBase, resp.Base)
	assert.Equal(t, config.DefaultOwner, resp.Owner)
	require.NotNil(t, resp.Prefix)
	assert.Equal(t, "7WXMo", *resp.Prefix)
	assert.Nil(t, resp.Suffix)
	assert.False(t, resp.CaseInsensitive)
	assert.Equal(t, uint64(1), resp.Attempts)

	// Absent targets are encoded as null, not omitted.
	assert.Contains(t, rec.Body.String(), `"suffix":null`)
}

func TestGrindCaseInsensitiveOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Grind.Suffix = "QQQQ"
	srv := newTestServer(t, cfg)

	rec := get(t, srv, "/grind?suffix=BBVX&case_insensitive=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GrindResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, knownAddress, resp.Address)
	require.NotNil(t, resp.Suffix)
	assert.Equal(t, "bbvx", *resp.Suffix)
	assert.True(t, resp.CaseInsensitive)
}

func TestGrindBadQuery(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tests := []struct {
		name  string
		query string
	}{
		{"cpus not a number", "cpus=many"},
		{"cpus negative", "cpus=-1"},
		{"cpus over budget", "cpus=5"},
		{"case flag", "case_insensitive=maybe"},
		{"timeout garbage", "timeout=soon"},
		{"timeout negative", "timeout=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, "/grind?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGrindInvalidConfiguredKeys(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		owner string
		want  string
	}{
		{"base", "not-base58-0OIl", config.DefaultOwner, "Invalid base pubkey in config: "},
		{"owner", config.DefaultBase, "2", "Invalid owner pubkey in config: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Grind.Base = tt.base
			cfg.Grind.Owner = tt.owner
			srv := newTestServer(t, cfg)

			rec := get(t, srv, "/grind")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, strings.HasPrefix(body.Error, tt.want), body.Error)
		})
	}
}

func TestGrindTimeout(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/grind?prefix=zzzz&timeout=50ms")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Error, "Grinding failed: "), body.Error)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig())

	require.Equal(t, http.StatusOK, get(t, srv, "/grind?prefix=7").Code)
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/grind?cpus=x").Code)

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `seedhunter_grind_requests_total{outcome="found"} 1`)
	assert.Contains(t, body, `seedhunter_grind_requests_total{outcome="invalid"} 1`)
	assert.Contains(t, body, `seedhunter_grind_in_flight 0`)
	assert.Contains(t, body, `seedhunter_grind_duration_seconds_count 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.PerSecond = 0.001
	cfg.RateLimit.Burst = 1
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/grind?cpus=x").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv, "/grind?cpus=x").Code)

	// Documentation and probes are not limited.
	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
}

func TestRequestDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Grind.CPUs = 0
	cfg.Grind.Prefix = "abc"
	srv := newTestServer(t, cfg)

	req, err := srv.requestFromQuery(nil)
	require.NoError(t, err)

	want := runtime.NumCPU()
	if want > 4 {
		want = 4
	}
	assert.Equal(t, want, req.Workers)
	assert.Equal(t, "abc", req.Prefix)
	assert.Equal(t, 10*time.Second, req.Timeout)

	req, err = srv.requestFromQuery(map[string][]string{"prefix": {""}, "timeout": {"90"}})
	require.NoError(t, err)
	assert.Equal(t, "", req.Prefix)
	assert.Equal(t, 90*time.Second, req.Timeout)
}

func dialStream(t *testing.T, srv *Server, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/grind/stream?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilFinal returns the number of progress frames and the final frame.
func readUntilFinal(t *testing.T, conn *websocket.Conn) (int, StreamMessage) {
	t.Helper()

	progress := 0
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != MessageProgress {
			return progress, msg
		}
		require.NotNil(t, msg.Progress)
		progress++
	}
}

func TestGrindStreamResult(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dialStream(t, srv, "prefix=7WXMo")

	_, final := readUntilFinal(t, conn)
	require.Equal(t, MessageResult, final.Type)
	require.NotNil(t, final.Result)
	assert.Equal(t, knownAddress, final.Result.Address)
	assert.Equal(t, knownSeed, final.Result.Seed)
}

func TestGrindStreamProgressAndTimeout(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dialStream(t, srv, "prefix=zzzz&timeout=300ms")

	progress, final := readUntilFinal(t, conn)
	assert.Greater(t, progress, 0)
	require.Equal(t, MessageError, final.Type)
	assert.Equal(t, http.StatusGatewayTimeout, final.Status)
	assert.True(t, strings.HasPrefix(final.Error, "Grinding failed: "), final.Error)
}

func TestGrindStreamBadQuery(t *testing.T) {
	srv := newTestServer(t, testConfig())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/grind/stream?cpus=x"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrindResponseNullTargets(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/grind")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"prefix":null`)
	assert.Contains(t, rec.Body.String(), `"suffix":null`)
}

func TestConfiguredCPUsClampedToBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Grind.CPUs = 16
	core, logs := observer.New(zapcore.WarnLevel)

	srv, err := NewServerWithOptions(cfg, zap.New(core), nil)
	require.NoError(t, err)

	req, err := srv.requestFromQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, req.Workers)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "configured grind cpus exceed the worker budget, clamping", entry.Message)
	assert.EqualValues(t, 16, entry.ContextMap()["cpus"])

	// An explicit request above the budget is still rejected.
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/grind?cpus=16").Code)
}

func rateLimitedConfig() *config.Config {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.PerSecond = 0.001
	cfg.RateLimit.Burst = 1
	return cfg
}

func getForwarded(srv *Server, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/grind?cpus=x", nil)
	req.RemoteAddr = "203.0.113.7:40000"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	srv := newTestServer(t, rateLimitedConfig())

	assert.Equal(t, http.StatusBadRequest, getForwarded(srv, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, getForwarded(srv, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, getForwarded(srv, "198.51.100.3"))
	assert.Equal(t, 1, srv.limiter.LimiterCount())
}

func TestRateLimitTrustedProxy(t *testing.T) {
	cfg := rateLimitedConfig()
	cfg.Server.TrustProxyHeaders = true
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusBadRequest, getForwarded(srv, "198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, getForwarded(srv, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, getForwarded(srv, "198.51.100.1"))
	assert.Equal(t, 2, srv.limiter.LimiterCount())
}

func TestStopEndsRunningGrind(t *testing.T) {
	srv := newTestServer(t, testConfig())

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- get(t, srv, "/grind?prefix=zzzz&timeout=30s") }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Stop(context.Background()))

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), shutdownMessage)
	case <-time.After(5 * time.Second):
		t.Fatal("grind still running after Stop")
	}
}

func TestStopEndsGrindStream(t *testing.T) {
	srv := newTestServer(t, testConfig())
	conn := dialStream(t, srv, "prefix=zzzz&timeout=30s")

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var first StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, MessageProgress, first.Type)

	require.NoError(t, srv.Stop(context.Background()))

	_, final := readUntilFinal(t, conn)
	require.Equal(t, MessageError, final.Type)
	assert.Equal(t, http.StatusServiceUnavailable, final.Status)
	assert.Equal(t, shutdownMessage, final.Error)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}
