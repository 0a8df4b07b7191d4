package integrationtests

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createAuction(t *testing.T, name string, start, end time.Duration, minimumBid float64) map[string]any {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, e.Router, http.MethodPost, "/auction", map[string]any{
		"name":               name,
		"startTime":          e.InputTime(start),
		"endTime":            e.InputTime(end),
		"minimumBid":         minimumBid,
		"minimumAskingPrice": minimumBid * 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["data"].(map[string]any)
}

func bidBody(amount float64, userID int64) map[string]any {
	return map[string]any{"bidAmount": amount, "userId": userID}
}

// Walks one auction through pending, open and closed over HTTP
func TestAuctionLifecycle(t *testing.T) {
	env := SetupTestEnv(t)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auction", map[string]any{
		"name":               "A1",
		"startTime":          env.InputTime(time.Minute),
		"endTime":            env.InputTime(2 * time.Minute),
		"minimumBid":         100,
		"minimumAskingPrice": 200,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, 201.0, resp["statusCode"])
	require.Equal(t, "Auction created successfully", resp["message"])
	created := resp["data"].(map[string]any)
	require.Equal(t, 100.0, created["minimumBid"])
	require.Equal(t, "2025-06-01T10:01:00.000+03:00", created["startTime"])
	require.Equal(t, "2025-06-01T10:02:00.000+03:00", created["endTime"])
	id := created["id"].(string)

	bidURL := "/auction/" + id + "/bid"

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, bidURL, bidBody(150, 1))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Auction is not open for bidding", resp["message"])
	require.Equal(t, "Bad Request", resp["error"])

	env.Clock.Advance(90 * time.Second)

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, bidURL, bidBody(50, 2))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Bid amount must be at least 100", resp["message"])

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, bidURL, bidBody(150, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "Bid placed successfully", resp["message"])
	bid := resp["data"].(map[string]any)
	require.Equal(t, 150.0, bid["bidAmount"])
	require.Equal(t, 1.0, bid["userId"])
	require.Equal(t, id, bid["auction"])

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Auction retrieved successfully", resp["message"])
	bids := resp["data"].(map[string]any)["bids"].([]any)
	require.Len(t, bids, 1)
	require.Equal(t, bid["id"], bids[0].(map[string]any)["id"])

	env.Clock.Advance(time.Minute)

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, bidURL, bidBody(150, 1))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Auction is closed for bidding", resp["message"])
}

func TestCreateAuction_Validation(t *testing.T) {
	env := SetupTestEnv(t)

	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{
			name: "start_in_past",
			body: map[string]any{
				"name": "A1", "startTime": env.InputTime(-time.Hour), "endTime": env.InputTime(time.Hour),
				"minimumBid": 1, "minimumAskingPrice": 1,
			},
			wantMsg: "Start time must be in the future and in format YYYY-MM-DD HH:mm A",
		},
		{
			name: "end_before_start",
			body: map[string]any{
				"name": "A1", "startTime": env.InputTime(2 * time.Hour), "endTime": env.InputTime(time.Hour),
				"minimumBid": 1, "minimumAskingPrice": 1,
			},
			wantMsg: "End time must be after start time and in format YYYY-MM-DD HH:mm A",
		},
		{
			name: "blank_name",
			body: map[string]any{
				"name": "   ", "startTime": env.InputTime(time.Hour), "endTime": env.InputTime(2 * time.Hour),
				"minimumBid": 1, "minimumAskingPrice": 1,
			},
			wantMsg: "Auction name is required",
		},
		{
			name:    "malformed_json",
			body:    `{"name": "A1",`,
			wantMsg: "Invalid request payload",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auction", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tc.wantMsg, resp["message"])
		})
	}

	// nothing was persisted
	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp["data"])
}

func TestGetAuction_NotFound(t *testing.T) {
	env := SetupTestEnv(t)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Auction not found", resp["message"])
	require.Equal(t, "Not Found", resp["error"])

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction/nonexistent-id", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid ID format", resp["message"])

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auction/"+uuid.NewString()+"/bid", bidBody(10, 1))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Auction not found", resp["message"])
}

func TestListAuctions_Caching(t *testing.T) {
	tests := []struct {
		name      string
		opts      func(t *testing.T) []envOption
		wantStale bool
	}{
		{name: "memory_cache_stale_within_ttl", opts: func(*testing.T) []envOption { return nil }, wantStale: true},
		{name: "redis_cache_stale_within_ttl", opts: func(t *testing.T) []envOption { return []envOption{withRedisCache(t)} }, wantStale: true},
		{name: "invalidate_on_write", opts: func(*testing.T) []envOption { return []envOption{withInvalidateOnWrite()} }},
		{
			name: "redis_invalidate_on_write",
			opts: func(t *testing.T) []envOption { return []envOption{withRedisCache(t), withInvalidateOnWrite()} },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := SetupTestEnv(t, tc.opts(t)...)

			env.createAuction(t, "A1", time.Minute, time.Hour, 10)
			resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction", nil)
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "Auctions retrieved successfully", resp["message"])
			require.Len(t, resp["data"], 1)

			env.createAuction(t, "A2", time.Minute, time.Hour, 10)
			resp, _ = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction", nil)
			if tc.wantStale {
				require.Len(t, resp["data"], 1, "cached list is served until it expires")
			} else {
				require.Len(t, resp["data"], 2)
			}

			list := resp["data"].([]any)
			require.Equal(t, "A1", list[0].(map[string]any)["name"])
		})
	}
}

// Many clients bidding on one auction: every accepted bid is kept
func TestPlaceBid_ConcurrentClients(t *testing.T) {
	env := SetupTestEnv(t)
	a := env.createAuction(t, "contended", time.Minute, time.Hour, 10)
	env.Clock.Advance(2 * time.Minute)
	bidURL := "/auction/" + a["id"].(string) + "/bid"

	const clients = 25
	var wg sync.WaitGroup
	codes := make(chan int, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, bidURL, bidBody(float64(10+user), user))
			codes <- w.Code
		}(int64(i))
	}
	wg.Wait()
	close(codes)

	accepted := 0
	for code := range codes {
		require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, code)
		if code == http.StatusCreated {
			accepted++
		}
	}
	require.Positive(t, accepted)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auction/"+a["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Len(t, data["bids"], accepted)
	require.Equal(t, float64(accepted), data["version"])
}
