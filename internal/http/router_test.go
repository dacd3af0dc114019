package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/factory"
	httpH "github.com/contentpilot/contentpilot-backend/internal/http/handlers"
	httpMW "github.com/contentpilot/contentpilot-backend/internal/http/middleware"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/services"
)

type roundTripperFunc func(req *nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) { return f(req) }

func jsonResponse(status int, body string) *nethttp.Response {
	return &nethttp.Response{
		StatusCode: status,
		Header:     nethttp.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewWithCore(core), logs
}

type planFunc func(ctx context.Context, brand domain.BrandInfo) ([]domain.ContentPlanItem, error)

func (f planFunc) GeneratePlan(ctx context.Context, brand domain.BrandInfo) ([]domain.ContentPlanItem, error) {
	return f(ctx, brand)
}

type trendFunc func(ctx context.Context, industry string) ([]domain.Trend, error)

func (f trendFunc) ScanTrends(ctx context.Context, industry string) ([]domain.Trend, error) {
	return f(ctx, industry)
}

type researchFunc func(ctx context.Context, brand domain.BrandInfo) (domain.BrandStrategy, error)

func (f researchFunc) ResearchCompetitors(ctx context.Context, brand domain.BrandInfo) (domain.BrandStrategy, error) {
	return f(ctx, brand)
}

type routerFixture struct {
	engine  *gin.Engine
	logs    *observer.ObservedLogs
	metrics *observability.Metrics
}

func newRouterFixture(t *testing.T, upstream roundTripperFunc, jwtSecret string) routerFixture {
	t.Helper()
	trends := trendFunc(func(ctx context.Context, industry string) ([]domain.Trend, error) {
		return []domain.Trend{{ID: "t1", Title: industry, Platform: domain.TrendGeneral}}, nil
	})
	return newRouterFixtureWithTrends(t, upstream, jwtSecret, trends)
}

func newRouterFixtureWithTrends(t *testing.T, upstream roundTripperFunc, jwtSecret string, trends trendFunc) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, logs := testLogger()
	metrics := observability.NewMetrics()

	fc := factory.NewWithHTTPClient(log, factory.Config{
		DraftURL:   "https://draft.factory.test/generate",
		ProdURL:    "https://prod.factory.test/generate",
		InpaintURL: "https://inpaint.factory.test/run",
		AuthToken:  "modal-token",
		Timeout:    time.Second,
	}, &nethttp.Client{Transport: upstream})

	orch, err := services.NewOrchestrator(log, services.OrchestratorDeps{
		Plans: planFunc(func(ctx context.Context, brand domain.BrandInfo) ([]domain.ContentPlanItem, error) {
			out := make([]domain.ContentPlanItem, 3)
			for i := range out {
				out[i] = domain.ContentPlanItem{Day: i + 1, Title: "Post", ContentType: domain.ContentTypeImage, ContentPillar: domain.PillarEducation}
			}
			return out, nil
		}),
		Trends: trends,
		Research: researchFunc(func(ctx context.Context, brand domain.BrandInfo) (domain.BrandStrategy, error) {
			return domain.BrandStrategy{VisualDirection: "Warm"}, nil
		}),
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	ws := services.NewWorkspaceService(log, services.WorkspaceDeps{Orchestrator: orch, Trends: trends})
	t.Cleanup(ws.Close)

	engine := NewRouter(RouterConfig{
		Log:              log,
		Metrics:          metrics,
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, jwtSecret),
		HealthHandler:    httpH.NewHealthHandler(nil),
		VideoHandler:     httpH.NewVideoHandler(log, fc, metrics),
		WorkspaceHandler: httpH.NewWorkspaceHandler(log, ws, 0),
	})
	return routerFixture{engine: engine, logs: logs, metrics: metrics}
}

func (f routerFixture) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func noUpstream(t *testing.T) roundTripperFunc {
	return func(req *nethttp.Request) (*nethttp.Response, error) {
		t.Errorf("unexpected upstream call to %s", req.URL)
		return nil, errors.New("unexpected call")
	}
}

func TestGenerateVideoRoutesByQuality(t *testing.T) {
	cases := []struct {
		quality  string
		wantHost string
	}{
		{quality: "production", wantHost: "prod.factory.test"},
		{quality: "draft", wantHost: "draft.factory.test"},
		{quality: "", wantHost: "draft.factory.test"},
	}
	for _, tc := range cases {
		t.Run("quality="+tc.quality, func(t *testing.T) {
			var gotHost, gotAuth string
			var gotBody map[string]any
			f := newRouterFixture(t, func(req *nethttp.Request) (*nethttp.Response, error) {
				gotHost = req.URL.Host
				gotAuth = req.Header.Get("Authorization")
				_ = json.NewDecoder(req.Body).Decode(&gotBody)
				return jsonResponse(nethttp.StatusOK, `{"url":"https://cdn.test/v.mp4","engine":"wan-2.1","quality":"`+tc.quality+`"}`), nil
			}, "")

			rec := f.do(t, nethttp.MethodPost, "/api/generate/video", `{"prompt":"a latte pour","quality":"`+tc.quality+`","aspectRatio":"9:16"}`, nil)
			if rec.Code != nethttp.StatusOK {
				t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
			}
			if gotHost != tc.wantHost {
				t.Fatalf("upstream host: want=%s got=%s", tc.wantHost, gotHost)
			}
			if gotAuth != "Bearer modal-token" {
				t.Fatalf("authorization: got=%q", gotAuth)
			}
			if gotBody["aspect_ratio"] != "9:16" || gotBody["prompt"] != "a latte pour" {
				t.Fatalf("upstream body: got=%v", gotBody)
			}
			env := decode[map[string]any](t, rec)
			if env["url"] != "https://cdn.test/v.mp4" || env["engine"] != "wan-2.1" || env["status"] != "completed" {
				t.Fatalf("envelope: got=%v", env)
			}
		})
	}
}

func TestGenerateVideoUpstreamFailureUsesFixedMessage(t *testing.T) {
	f := newRouterFixture(t, func(req *nethttp.Request) (*nethttp.Response, error) {
		return jsonResponse(nethttp.StatusServiceUnavailable, `CUDA out of memory on node gpu-7`), nil
	}, "")

	rec := f.do(t, nethttp.MethodPost, "/api/generate/video", `{"prompt":"x","quality":"production"}`, nil)
	if rec.Code != nethttp.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["error"] != "GPU Factory unreachable. Verify cluster status." {
		t.Fatalf("error message: got=%q", body["error"])
	}
	if strings.Contains(rec.Body.String(), "CUDA") {
		t.Fatalf("upstream body leaked to client: %s", rec.Body.String())
	}
	entries := f.logs.FilterMessage("Video generation proxy failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["upstream_body"] != "CUDA out of memory on node gpu-7" {
		t.Fatalf("upstream body should be logged, got=%v", entries)
	}
}

func TestInpaintUnreachableUsesFixedMessage(t *testing.T) {
	f := newRouterFixture(t, func(req *nethttp.Request) (*nethttp.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, "")

	rec := f.do(t, nethttp.MethodPost, "/api/edit/video", `{"videoUrl":"https://cdn.test/in.mp4","maskCoordinates":[[0,0],[10,10]],"prompt":"remove cup"}`, nil)
	if rec.Code != nethttp.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["error"] != "Temporal mask processing failed." {
		t.Fatalf("error message: got=%q", body["error"])
	}
}

func TestInpaintTranslatesFields(t *testing.T) {
	var got map[string]json.RawMessage
	f := newRouterFixture(t, func(req *nethttp.Request) (*nethttp.Response, error) {
		_ = json.NewDecoder(req.Body).Decode(&got)
		return jsonResponse(nethttp.StatusOK, `{"url":"https://cdn.test/out.mp4","engine":"sam2"}`), nil
	}, "")

	rec := f.do(t, nethttp.MethodPost, "/api/edit/video", `{"videoUrl":"https://cdn.test/in.mp4","maskCoordinates":{"x":1,"y":2},"prompt":"p"}`, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if string(got["video_url"]) != `"https://cdn.test/in.mp4"` || !bytes.Equal(got["mask_coordinates"], []byte(`{"x":1,"y":2}`)) {
		t.Fatalf("upstream body: got=%v", got)
	}
	env := decode[map[string]any](t, rec)
	if env["status"] != "success" || env["engine"] != "sam2" {
		t.Fatalf("envelope: got=%v", env)
	}
}

func TestVideoRoutesRejectInvalidInput(t *testing.T) {
	f := newRouterFixture(t, noUpstream(t), "")
	cases := []struct {
		path string
		body string
	}{
		{"/api/generate/video", `{"prompt":"","quality":"draft"}`},
		{"/api/generate/video", `{"prompt":"x","quality":"4k"}`},
		{"/api/generate/video", `not json`},
		{"/api/edit/video", `{"maskCoordinates":[[1,1]],"prompt":"p"}`},
		{"/api/edit/video", `{"videoUrl":"https://cdn.test/a.mp4","maskCoordinates":[],"prompt":"p"}`},
	}
	for _, tc := range cases {
		rec := f.do(t, nethttp.MethodPost, tc.path, tc.body, nil)
		if rec.Code != nethttp.StatusBadRequest {
			t.Fatalf("%s %s: want=400 got=%d", tc.path, tc.body, rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["error"] == "" {
			t.Fatalf("%s %s: want flat error body got=%s", tc.path, tc.body, rec.Body.String())
		}
	}
}

func TestConcurrentGenerationsGetIndependentEnvelopes(t *testing.T) {
	f := newRouterFixture(t, func(req *nethttp.Request) (*nethttp.Response, error) {
		var in map[string]string
		_ = json.NewDecoder(req.Body).Decode(&in)
		return jsonResponse(nethttp.StatusOK, `{"url":"https://cdn.test/`+in["prompt"]+`.mp4","engine":"wan"}`), nil
	}, "")

	prompts := []string{"alpha", "bravo", "charlie", "delta"}
	var wg sync.WaitGroup
	got := make([]string, len(prompts))
	for i, p := range prompts {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			rec := f.do(t, nethttp.MethodPost, "/api/generate/video", `{"prompt":"`+p+`"}`, nil)
			var env map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &env)
			got[i], _ = env["url"].(string)
		}(i, p)
	}
	wg.Wait()
	for i, p := range prompts {
		if want := "https://cdn.test/" + p + ".mp4"; got[i] != want {
			t.Fatalf("request %d url: want=%s got=%s", i, want, got[i])
		}
	}
}

func TestWorkspaceOnboardingAndReview(t *testing.T) {
	f := newRouterFixture(t, noUpstream(t), "")

	rec := f.do(t, nethttp.MethodPost, "/api/onboarding", `{"brand":{"name":"Lumen","industry":"Coffee","platforms":["Instagram"]}}`, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("onboarding: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	ws := decode[services.Workspace](t, rec)
	if ws.UserID != "guest" || len(ws.State.Plan) != 3 {
		t.Fatalf("workspace: user=%s plan=%d", ws.UserID, len(ws.State.Plan))
	}

	rec = f.do(t, nethttp.MethodPost, "/api/plan/2/review", `{"status":"rejected","feedback":"too dark"}`, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("review: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	item := decode[domain.ContentPlanItem](t, rec)
	if item.Status != domain.StatusRejected || item.ClientFeedback != "too dark" {
		t.Fatalf("reviewed item: got=%+v", item)
	}

	rec = f.do(t, nethttp.MethodPost, "/api/plan/9/schedule", `{"scheduledAt":1700000000}`, nil)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("unknown day: want=404 got=%d", rec.Code)
	}
	env := decode[map[string]map[string]string](t, rec)
	if env["error"]["code"] != "plan_item_not_found" {
		t.Fatalf("error envelope: got=%v", env)
	}

	rec = f.do(t, nethttp.MethodPatch, "/api/plan/abc", `{}`, nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad day: want=400 got=%d", rec.Code)
	}

	rec = f.do(t, nethttp.MethodPost, "/api/trends/refresh", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("refresh trends: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestWorkspaceHeaderIdentityIsolatesUsers(t *testing.T) {
	f := newRouterFixture(t, noUpstream(t), "")

	rec := f.do(t, nethttp.MethodPost, "/api/assets", `{"url":"https://cdn.test/a.png","type":"image"}`, map[string]string{"X-User-Id": "alice"})
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("append asset: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}

	alice := decode[map[string][]domain.Asset](t, f.do(t, nethttp.MethodGet, "/api/assets", "", map[string]string{"X-User-Id": "alice"}))
	guest := decode[map[string][]domain.Asset](t, f.do(t, nethttp.MethodGet, "/api/assets", "", nil))
	if len(alice["assets"]) != 1 || len(guest["assets"]) != 0 {
		t.Fatalf("assets: alice=%d guest=%d", len(alice["assets"]), len(guest["assets"]))
	}
}

func TestWorkspaceRequiresValidJWTWhenConfigured(t *testing.T) {
	const secret = "test-secret"
	f := newRouterFixture(t, noUpstream(t), secret)

	if rec := f.do(t, nethttp.MethodGet, "/api/workspace", "", nil); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("missing token: want=401 got=%d", rec.Code)
	}

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u-1"}).SignedString([]byte("wrong"))
	if rec := f.do(t, nethttp.MethodGet, "/api/workspace", "", map[string]string{"Authorization": "Bearer " + forged}); rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("forged token: want=401 got=%d", rec.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := f.do(t, nethttp.MethodGet, "/api/workspace", "", map[string]string{"Authorization": "Bearer " + token, "X-User-Id": "spoofed"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("valid token: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if ws := decode[services.Workspace](t, rec); ws.UserID != "u-1" {
		t.Fatalf("user id: want=u-1 got=%s", ws.UserID)
	}

	// The proxy routes stay open.
	f2 := newRouterFixture(t, noUpstream(t), secret)
	if rec := f2.do(t, nethttp.MethodPost, "/api/generate/video", `{"prompt":""}`, nil); rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("proxy route behind auth: want=400 got=%d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newRouterFixture(t, noUpstream(t), "")

	rec := f.do(t, nethttp.MethodGet, "/healthcheck", "", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("X-Request-Id header missing")
	}

	rec = f.do(t, nethttp.MethodGet, "/metrics", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("metrics: want=200 got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `cp_api_requests_total{method="GET",route="/healthcheck",status="200"} 1`) {
		t.Fatalf("metrics body missing healthcheck counter:\n%s", rec.Body.String())
	}
}

func TestWorkspaceUpstreamFailuresHideCause(t *testing.T) {
	f := newRouterFixtureWithTrends(t, noUpstream(t), "", func(ctx context.Context, industry string) ([]domain.Trend, error) {
		return nil, errors.New("search api: invalid key AIza-SECRET")
	})

	rec := f.do(t, nethttp.MethodPost, "/api/onboarding", `{"brand":{"name":"Lumen","industry":"Coffee","platforms":["Instagram"]}}`, nil)
	if rec.Code != nethttp.StatusBadGateway {
		t.Fatalf("onboarding: want=502 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "AIza-SECRET") {
		t.Fatalf("onboarding body leaks upstream error: %s", rec.Body.String())
	}
	env := decode[map[string]map[string]string](t, rec)
	if env["error"]["code"] != "onboarding_failed" {
		t.Fatalf("error envelope: got=%v", env)
	}

	rec = f.do(t, nethttp.MethodPost, "/api/trends/refresh", "", nil)
	if rec.Code != nethttp.StatusBadGateway {
		t.Fatalf("refresh trends: want=502 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "AIza-SECRET") {
		t.Fatalf("trend refresh body leaks upstream error: %s", rec.Body.String())
	}
}
