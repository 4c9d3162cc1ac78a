package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/config"
	"github.com/krazybird78/travel-plug-checker/internal/core"
	"github.com/krazybird78/travel-plug-checker/internal/logging"
	"github.com/krazybird78/travel-plug-checker/internal/metrics"
)

func testCatalog() *core.Catalog {
	return core.NewCatalog([]core.Profile{
		{Name: "United States", Code: "US", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
		{Name: "Germany", Code: "DE", Frequencies: []string{"50 Hz"}, Plugs: []string{"C", "F"}, Voltages: []string{"230 V"}},
		{Name: "United Kingdom", Code: "GB", Frequencies: []string{"50 Hz"}, Plugs: []string{"G"}, Voltages: []string{"230 V"}},
		{Name: "Canada", Code: "CA", Frequencies: []string{"60 Hz"}, Plugs: []string{"A", "B"}, Voltages: []string{"120 V"}},
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{RequestTimeout: 5 * time.Second},
		Affiliate: config.AffiliateConfig{DefaultRegion: "US", ProductASIN: "B0DHVNW1CN"},
		Security:  config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	*Server
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, cfg *config.Config, catalog CatalogFunc) testServer {
	t.Helper()

	links, err := affiliate.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := metrics.New()
	return testServer{Server: NewServer(ctx, cfg, catalog, links, m), metrics: m}
}

func staticCatalog(c *core.Catalog) CatalogFunc {
	return func() (*core.Catalog, error) { return c, nil }
}

func (s testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestListCountries(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/api/countries?q=united")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []countrySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []countrySummary{
		{Name: "United Kingdom", Code: "GB"},
		{Name: "United States", Code: "US"},
	}, got)

	rec = s.get(t, "/api/countries")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 4)
}

func TestGetCountry(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/api/countries/Germany")
	require.Equal(t, http.StatusOK, rec.Code)

	var p core.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "DE", p.Code)
	assert.Equal(t, []string{"C", "F"}, p.Plugs)

	rec = s.get(t, "/api/countries/Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "SEL001", errResp.Code)

	rec = s.get(t, "/api/countries/%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "REQ001", errResp.Code)
}

func TestCheck_Pending(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	for _, target := range []string{
		"/api/check",
		"/api/check?home=Germany",
		"/api/check?home=Germany&dest=Atlantis",
	} {
		rec := s.get(t, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.JSONEq(t, `{"pending":true}`, rec.Body.String(), target)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.PendingChecks))
}

func TestCheck_Resolved(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/api/check?home=United+States&dest=United+Kingdom&tz=America/Toronto")
	require.Equal(t, http.StatusOK, rec.Code)

	var got checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "United States", got.Home.Name)
	assert.Equal(t, "United Kingdom", got.Dest.Name)
	assert.Equal(t, core.CompatibilityResult{PlugCompatible: false, NeedsAdapter: true, NeedsConverter: true}, got.Result)
	assert.Equal(t, "Adapter Required", got.Advisory.Headline)
	assert.Contains(t, got.Advisory.Recommendation, "(G)")
	assert.Equal(t, affiliate.Region("CA"), got.Region)
	assert.Equal(t, "https://www.amazon.ca/dp/B0DHVNW1CN?tag=purrandpaws05-20", got.Link)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Checks.WithLabelValues("true", "true")))
}

func TestCheck_RegionOverridesTimezone(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/api/check?home=Canada&dest=United+States&tz=America/Toronto&region=uk")
	require.Equal(t, http.StatusOK, rec.Code)

	var got checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Advisory.OK)
	assert.Equal(t, affiliate.Region("UK"), got.Region)
	assert.Equal(t, "https://www.amazon.co.uk/dp/B0DHVNW1CN?tag=purrandpaws08-20", got.Link)
}

func TestSetLinks(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	links, err := affiliate.Parse([]byte("default:\n  domain: amazon.example\n  tag: swapped-20\n"))
	require.NoError(t, err)
	s.SetLinks(links)

	rec := s.get(t, "/api/check?home=Canada&dest=Germany")
	require.Equal(t, http.StatusOK, rec.Code)

	var got checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "https://www.amazon.example/dp/B0DHVNW1CN?tag=swapped-20", got.Link)
}

func TestCatalogUnavailable(t *testing.T) {
	failing := func() (*core.Catalog, error) {
		return nil, errors.New("read artifact: open data/countries.json: no such file or directory")
	}
	s := newTestServer(t, testConfig(), failing)

	rec := s.get(t, "/api/check?home=Germany&dest=Canada")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "DATA001", errResp.Code)
	assert.NotContains(t, rec.Body.String(), "no such file", "technical detail stays server-side")

	rec = s.get(t, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "DATA001")

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.CatalogErrors))
}

func TestCheckPage(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="Canada">`)
	assert.NotContains(t, body, `class="verdict`)

	rec = s.get(t, "/check?home=United+States&dest=Germany")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Adapter Required")
	assert.Contains(t, body, "C, F")
	assert.Contains(t, body, "amazon.com/dp/B0DHVNW1CN")
}

func TestCheckPage_EscapesInput(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	rec := s.get(t, "/check?home=%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))
	s.get(t, "/api/check?home=Canada&dest=Germany")

	rec := s.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `plugcheck_checks_total{needs_adapter="true",needs_converter="true"} 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg, staticCatalog(testCatalog()))

	assert.Equal(t, http.StatusOK, s.get(t, "/health").Code)
	assert.Equal(t, http.StatusOK, s.get(t, "/health").Code)

	rec := s.get(t, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(rec.Body.String(), "RATE001"))
}

func TestRateLimiter_WindowResetAndSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(ctx, 1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "limits are per IP")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"), "new window")

	now = now.Add(3 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1:1234"))
	assert.Equal(t, "203.0.113.9", clientIP("203.0.113.9"))
	assert.Equal(t, "::1", clientIP("[::1]:80"))
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	logging.Setup(&buf, "debug", "json")
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRespondError_LevelByCode(t *testing.T) {
	buf := captureLogs(t)
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	s.get(t, "/api/countries/Atlantis")
	assert.Contains(t, buf.String(), `"level":"WARN","msg":"request error"`)
	assert.Contains(t, buf.String(), `"code":"SEL001"`)

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	s.respondError(httptest.NewRecorder(), req, errors.New("something odd"), http.StatusInternalServerError)
	assert.Contains(t, buf.String(), `"level":"ERROR","msg":"request error"`)
	assert.Contains(t, buf.String(), `"code":"ERR000"`)
}

func TestCheck_LogsSelection(t *testing.T) {
	buf := captureLogs(t)
	s := newTestServer(t, testConfig(), staticCatalog(testCatalog()))

	s.get(t, "/api/check?home=Canada&dest=Germany")

	out := buf.String()
	assert.Contains(t, out, `"msg":"check"`)
	assert.Contains(t, out, `"home":"Canada","dest":"Germany"`)
	assert.Contains(t, out, `"needs_adapter":true`)
}
