package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentesocial/internal/adapter/cache"
	"agentesocial/internal/adapter/storage"
	"agentesocial/internal/config"
	"agentesocial/internal/domain/store"
	"agentesocial/internal/logging"
	"agentesocial/internal/metrics"
	"agentesocial/internal/service/analysis"
	learningsvc "agentesocial/internal/service/learning"
	"agentesocial/internal/service/scoring"
	"agentesocial/internal/service/tools"
)

type downStore struct{}

func (downStore) Query(context.Context, store.Query) ([]store.Record, error) {
	return nil, errors.New("connection refused")
}

func (downStore) Insert(context.Context, store.Collection, store.Record) error {
	return errors.New("connection refused")
}

type testEnv struct {
	handler http.Handler
	store   *storage.MemoryStore
	redis   *miniredis.Miniredis
}

func seedStore(s *storage.MemoryStore) {
	types := []string{"reel", "reel", "reel", "image", "image", "carousel"}
	for i, ct := range types {
		s.Seed(store.CollectionContentPieces, store.Record{
			"id":               fmt.Sprintf("c%d", i),
			"user_id":          "u1",
			"platform":         "instagram",
			"title":            fmt.Sprintf("post %d", i),
			"content_type":     ct,
			"tone":             "funny",
			"body":             strings.Repeat("x", 50*(i+1)),
			"posted_day":       "friday",
			"engagement_score": float64(100 - i*10),
			"created_at":       time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}

	s.Seed(store.CollectionAnalyticsSnapshots,
		store.Record{"user_id": "u1", "platform": "instagram", "followers_count": int64(1000), "engagement_rate": 2.0, "reach": int64(300), "created_at": time.Now().Add(-72 * time.Hour)},
		store.Record{"user_id": "u1", "platform": "instagram", "followers_count": int64(1200), "engagement_rate": 4.0, "reach": int64(500), "created_at": time.Now().Add(-24 * time.Hour)},
	)

	s.Seed(store.CollectionViralContent,
		store.Record{"id": "v1", "platform": "instagram", "niche": "moda", "virality_score": 91.0},
		store.Record{"id": "v2", "platform": "tiktok", "niche": "tech", "virality_score": 80.0},
		store.Record{"id": "v3", "platform": "tiktok", "niche": "tech", "virality_score": 20.0},
	)
}

func newTestEnv(t *testing.T, st store.Store) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	analyzer := scoring.NewService(nil, m, logger, scoring.ServiceConfig{Workers: 2, ParallelThreshold: 100})
	aggregator := learningsvc.NewService(st, m, logger, learningsvc.Config{})

	srv := NewServer(config.ServerConfig{CorsOrigins: []string{"*"}}, Dependencies{
		Analyzer:      analyzer,
		Aggregator:    aggregator,
		Analysis:      analysis.NewService(st, m, logger, analysis.Config{}),
		Tools:         tools.NewDefaultRegistry(analyzer, aggregator, logger),
		Cache:         cache.NewRedisCache(client, time.Minute, m, logger),
		EventsTopic:   "virality",
		Gatherer:      reg,
		TopContentMax: 3,
	}, logger)

	env := &testEnv{handler: srv.Handler(), redis: mr}
	if mem, ok := st.(*storage.MemoryStore); ok {
		env.store = mem
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())

	rec := env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestViralityEndpoints(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	postedAt := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)

	t.Run("score", func(t *testing.T) {
		body := fmt.Sprintf(`{"id":"p1","likes":"100","comments":20,"shares":50,"saves":30,"followers":1000,"posted_at":%q}`, postedAt)
		rec := env.do(t, http.MethodPost, "/api/v1/virality/score", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decode(t, rec)
		assert.Equal(t, "p1", out["content_id"])
		assert.Equal(t, 92.5, out["virality_score"])
		assert.Equal(t, "super_viral", out["classification"])
	})

	t.Run("score rejects bad counters", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/virality/score", `{"likes":"many"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "invalid likes")
	})

	t.Run("classify", func(t *testing.T) {
		body := fmt.Sprintf(`{"items":[{"id":"low","likes":1,"followers":100000},{"id":"high","likes":100,"comments":20,"shares":50,"saves":30,"followers":1000,"posted_at":%q},{"id":"bad","likes":"?"}]}`, postedAt)
		rec := env.do(t, http.MethodPost, "/api/v1/virality/classify", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var out struct {
			Results []struct {
				ContentID      string `json:"content_id"`
				Classification string `json:"classification"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Results, 3)
		assert.Equal(t, "high", out.Results[0].ContentID)
		assert.Equal(t, "error", out.Results[2].Classification)
	})

	t.Run("classify empty batch", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/virality/classify", `{"items":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
	})

	t.Run("patterns on empty batch", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/virality/patterns", `{"items":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		assert.NotEmpty(t, out["error"])
		assert.Equal(t, map[string]interface{}{}, out["patterns"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/virality/patterns", `{"items":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDashboardIsCachedAndInvalidated(t *testing.T) {
	mem := storage.NewMemoryStore()
	seedStore(mem)
	env := newTestEnv(t, mem)

	rec := env.do(t, http.MethodGet, "/api/v1/insights/dashboard?user_id=u1&platform=instagram", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	first := decode(t, rec)
	patterns := first["patterns"].(map[string]interface{})
	assert.Equal(t, 6.0, patterns["total_analyzed"])
	assert.NotEmpty(t, first["recommendations"])
	assert.True(t, env.redis.Exists("agentesocial:insights:dashboard:u1:instagram"))

	rec = env.do(t, http.MethodGet, "/api/v1/insights/dashboard?user_id=u1&platform=instagram", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, mustJSON(t, first), rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/insights/learnings", `{"user_id":"u1","learning_type":"strategy","insight":"Reels win"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saved", decode(t, rec)["status"])
	assert.False(t, env.redis.Exists("agentesocial:insights:dashboard:u1:instagram"))
	assert.Len(t, env.store.Records(store.CollectionLearnings), 1)

	rec = env.do(t, http.MethodGet, "/api/v1/insights/dashboard?user_id=u1&platform=instagram", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestInsightsEndpoints(t *testing.T) {
	mem := storage.NewMemoryStore()
	seedStore(mem)
	env := newTestEnv(t, mem)

	t.Run("dashboard requires a user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/dashboard", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("growth", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/growth?user_id=u1&days=7", "")
		require.Equal(t, http.StatusOK, rec.Code)
		summary := decode(t, rec)["summary"].(map[string]interface{})
		assert.Equal(t, 200.0, summary["followers_change"])
		assert.Equal(t, 7.0, summary["period_days"])
	})

	t.Run("growth rejects bad days", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/growth?user_id=u1&days=week", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("engagement", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/engagement?user_id=u1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		assert.NotNil(t, out["top_performers"])
		assert.NotEmpty(t, out["recommendation"])
	})

	t.Run("top content is capped", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/insights/top-content?user_id=u1&limit=50", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode(t, rec)["items"].([]interface{})
		require.Len(t, items, 3)
		assert.Equal(t, "c0", items[0].(map[string]interface{})["id"])
	})

	t.Run("save without user is skipped", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/insights/learnings", `{"insight":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "skipped", decode(t, rec)["status"])
	})
}

func TestStoreFailuresMapToBadGateway(t *testing.T) {
	env := newTestEnv(t, downStore{})

	for _, path := range []string{
		"/api/v1/insights/dashboard?user_id=u1",
		"/api/v1/insights/growth?user_id=u1",
		"/api/v1/insights/engagement?user_id=u1",
		"/api/v1/insights/top-content?user_id=u1",
		"/api/v1/analysis/viral",
	} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "connection refused", path)
	}
}

func TestAnalysisEndpoints(t *testing.T) {
	mem := storage.NewMemoryStore()
	seedStore(mem)
	env := newTestEnv(t, mem)

	rec := env.do(t, http.MethodGet, "/api/v1/analysis/viral", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, 2.0, out["total"])

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/viral?platform=tiktok&min_score=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decode(t, rec)["total"])

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/viral?min_score=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/benchmarks/tiktok?niche=fitness&account_size=micro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.Equal(t, "tiktok", out["platform"])
	assert.Contains(t, out["benchmarks"], "micro")

	rec = env.do(t, http.MethodGet, "/api/v1/analysis/benchmarks/myspace", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported platform")
}

func TestToolEndpoints(t *testing.T) {
	mem := storage.NewMemoryStore()
	seedStore(mem)
	env := newTestEnv(t, mem)

	rec := env.do(t, http.MethodGet, "/api/v1/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["tools"], 7)

	rec = env.do(t, http.MethodPost, "/api/v1/tools/get_growth_trajectory", `{"user_id":"u1","days":"7"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode(t, rec)["summary"])

	rec = env.do(t, http.MethodPost, "/api/v1/tools/analyze_content_performance", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "user_id")

	rec = env.do(t, http.MethodPost, "/api/v1/tools/launch_rockets", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	env.do(t, http.MethodPost, "/api/v1/virality/classify", `{"items":[{"likes":1}]}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentesocial_")
}

func TestWebSocketWithoutSubscriber(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())

	rec := env.do(t, http.MethodGet, "/ws/virality", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
