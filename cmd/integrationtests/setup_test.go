package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auction "auction-bidding/internal/auctionService"
	"auction-bidding/internal/cache"
	"auction-bidding/internal/repository"
	"auction-bidding/internal/server"
	"auction-bidding/internal/validation"
	"auction-bidding/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testClock is a manually advanced clock shared by the service and the store
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv is a fully wired router over the in-memory store
type testEnv struct {
	Router *gin.Engine
	Clock  *testClock
	Loc    *time.Location
}

type envOption func(cfg *auction.Config, c *cache.Cache)

func withInvalidateOnWrite() envOption {
	return func(cfg *auction.Config, _ *cache.Cache) { cfg.InvalidateOnWrite = true }
}

// withRedisCache backs the list cache with an in-process redis server
func withRedisCache(t *testing.T) envOption {
	return func(_ *auction.Config, c *cache.Cache) {
		mr := miniredis.RunT(t)
		rc, err := cache.NewRedisCache(context.Background(), cache.RedisOptions{Addr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = rc.Close() })
		*c = rc
	}
}

// SetupTestEnv initializes the router with an in-memory repository and a controllable clock
func SetupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loc, err := utils.LoadLocation("")
	require.NoError(t, err)
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, loc)}

	repo := repository.NewMemoryRepo()
	repo.SetClock(clock.Now)

	var c cache.Cache = cache.NewMemoryCache(clock.Now)
	cfg := auction.Config{Location: loc, Clock: clock.Now}
	for _, opt := range opts {
		opt(&cfg, &c)
	}

	service := auction.NewAuctionService(repo, c, cfg)
	router, err := server.SetupRouter(service, server.Options{Location: loc})
	require.NoError(t, err)

	return &testEnv{Router: router, Clock: clock, Loc: loc}
}

// InputTime formats now+d the way clients send auction times
func (e *testEnv) InputTime(d time.Duration) string {
	return e.Clock.Now().Add(d).In(e.Loc).Format(validation.InputTimeLayout)
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}
