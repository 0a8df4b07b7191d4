package perftests

import (
	"context"
	"fmt"
	"testing"
	"time"

	auction "auction-bidding/internal/auctionService"
	"auction-bidding/internal/cache"
	"auction-bidding/internal/models"
	"auction-bidding/internal/repository"
)

// benchClock starts before every auction opens and is moved past the start once seeded
type benchClock struct{ offset time.Duration }

func (c *benchClock) Now() time.Time { return time.Now().Add(c.offset) }

// setupService creates a service over the in-memory store with numAuctions open auctions
func setupService(tb testing.TB, numAuctions int, cfg auction.Config) (*auction.AuctionService, *cache.MemoryCache, []string) {
	tb.Helper()

	clock := &benchClock{}
	cfg.Clock = clock.Now
	memCache := cache.NewMemoryCache(nil)
	svc := auction.NewAuctionService(repository.NewMemoryRepo(), memCache, cfg)

	ids := make([]string, 0, numAuctions)
	ctx := context.Background()
	start := time.Now().Add(time.Minute)
	for i := 0; i < numAuctions; i++ {
		a, err := svc.CreateAuction(ctx, models.CreateAuctionInput{
			Name:               fmt.Sprintf("auction_%d", i),
			StartTime:          start,
			EndTime:            start.Add(24 * time.Hour),
			MinimumBid:         50,
			MinimumAskingPrice: 100,
		})
		if err != nil {
			tb.Fatalf("failed to create auction: %v", err)
		}
		ids = append(ids, a.ID)
	}

	// open every auction
	clock.offset = 2 * time.Minute
	return svc, memCache, ids
}
