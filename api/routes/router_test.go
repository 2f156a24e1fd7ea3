package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/internal/admin"
	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/kitstore-backend/pkg/auth"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
)

var testJWT = config.JWTConfig{Secret: "router-secret", Issuer: "kitstore-test", ExpirationMinutes: 30}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) { return true, nil }

func (stubSessionManager) Rotate(context.Context, string, string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(context.Context, string) error { return nil }

type stubLeagues struct {
	leagues.Service
}

func (stubLeagues) ListLeagues(_ context.Context, sport enums.Sport) ([]leagues.LeagueDTO, error) {
	return []leagues.LeagueDTO{{ID: "epl", Name: "Premier League", Sport: enums.SportFootball, Source: leagues.SourceStatic}}, nil
}

type stubAdmin struct {
	admin.Service
}

func (stubAdmin) Dashboard(context.Context) (*admin.Dashboard, error) {
	return &admin.Dashboard{Customers: 3}, nil
}

type stubCheckout struct {
	checkout.Service
	created   int
	signature string
	body      string
}

func (s *stubCheckout) CreateOrder(_ context.Context, input checkout.CreateOrderInput) (*checkout.CreateOrderResult, error) {
	s.created++
	return &checkout.CreateOrderResult{OrderID: fmt.Sprintf("KS-%d", s.created)}, nil
}

func (s *stubCheckout) HandleWebhook(_ context.Context, body []byte, signature string) error {
	s.body = string(body)
	s.signature = signature
	return nil
}

type stubOrders struct {
	orders.Service
}

type memoryRedis struct {
	data   map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

type fixture struct {
	handler  http.Handler
	checkout *stubCheckout
	registry *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  testJWT,
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:  time.Minute,
			LoginIPLimit: 1,
		},
	}
	reg := prometheus.NewRegistry()
	co := &stubCheckout{}
	h := NewRouter(Params{
		Config:      cfg,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Redis:       newMemoryRedis(),
		Sessions:    stubSessionManager{},
		Leagues:     stubLeagues{},
		Checkout:    co,
		Orders:      stubOrders{},
		Admin:       stubAdmin{},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	})
	return fixture{handler: h, checkout: co, registry: reg}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role enums.UserRole) string {
	t.Helper()
	tok, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestHealthLive(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-KitStore-Env"))
}

func TestPublicLeaguesUseSuccessEnvelope(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/leagues?sport=football", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                `json:"success"`
		Data    []leagues.LeagueDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "epl", body.Data[0].ID)
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", token(t, enums.UserRoleCustomer))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", token(t, enums.UserRoleAdmin))
	assert.Equal(t, http.StatusOK, f.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/orders/update-status", strings.NewReader(`{}`))
	req.Header.Set("Authorization", token(t, enums.UserRoleCustomer))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
}

func TestCreateOrderReplaysIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(`{"paystackReference":"ref-1"}`))
		req.Header.Set("Idempotency-Key", "order-abc")
		return f.do(req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, f.checkout.created)
}

func TestPaystackWebhookPassesRawBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/paystack/webhook", strings.NewReader(`{"event":"charge.success"}`))
	req.Header.Set("x-paystack-signature", "abc123")

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"event":"charge.success"}`, f.checkout.body)
	assert.Equal(t, "abc123", f.checkout.signature)
}

func TestLoginIsRateLimited(t *testing.T) {
	f := newFixture(t)
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		return f.do(req).Code
	}
	assert.NotEqual(t, http.StatusTooManyRequests, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestMetricsEndpointLabelsRoutePattern(t *testing.T) {
	f := newFixture(t)
	f.do(httptest.NewRequest(http.MethodGet, "/api/leagues", nil))

	families, err := f.registry.Gather()
	require.NoError(t, err)
	var routes []string
	for _, family := range families {
		if family.GetName() != "kitstore_http_request_duration_seconds" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" {
					routes = append(routes, label.GetValue())
				}
			}
		}
	}
	assert.Contains(t, routes, "/api/leagues")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kitstore_http_request_duration_seconds")
}
