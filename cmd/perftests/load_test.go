package perftests

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	auction "auction-bidding/internal/auctionService"
	"auction-bidding/internal/models"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name              string
	NumAuctions       int
	ReadRatio         int // out of 10; reads split between GetAuction and ListAuctions
	MaxBidIncrement   int
	InvalidateOnWrite bool
	Burst             bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()
	if len(om.latencies) == 0 {
		return
	}
	latencies := append([]time.Duration(nil), om.latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)-1))]
	p99 = latencies[int(0.99*float64(len(latencies)-1))]
	return
}

// Benchmark_Load_AuctionSystem runs multiple scenarios
func Benchmark_Load_AuctionSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{Name: "Low-Contention-WriteHeavy", NumAuctions: 200, ReadRatio: 0, MaxBidIncrement: 50},
		{Name: "High-Contention-WriteHeavy", NumAuctions: 5, ReadRatio: 0, MaxBidIncrement: 20},
		{Name: "Mixed-Workload", NumAuctions: 50, ReadRatio: 7, MaxBidIncrement: 30},
		{Name: "ReadHeavy", NumAuctions: 50, ReadRatio: 9, MaxBidIncrement: 20},
		{Name: "ReadHeavy-InvalidateOnWrite", NumAuctions: 50, ReadRatio: 9, MaxBidIncrement: 20, InvalidateOnWrite: true},
		{Name: "Edge-Case-SingleAuction", NumAuctions: 1, ReadRatio: 5, MaxBidIncrement: 10},
		{Name: "Peak-Burst", NumAuctions: 50, ReadRatio: 0, MaxBidIncrement: 20, Burst: true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	svc, _, ids := setupService(b, s.NumAuctions, auction.Config{
		InvalidateOnWrite: s.InvalidateOnWrite,
		MaxBidAttempts:    5,
	})
	ctx := context.Background()

	var totalOps, acceptedBids, rejectedBids, totalReads int64
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			auctionID := ids[rnd.Intn(len(ids))]
			opType := rnd.Intn(10)

			opStart := time.Now()
			switch {
			case opType < s.ReadRatio && opType%2 == 0:
				if _, err := svc.ListAuctions(ctx); err != nil {
					b.Logf("ignored list error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			case opType < s.ReadRatio:
				if _, err := svc.GetAuction(ctx, auctionID); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			default:
				in := models.PlaceBidInput{
					BidAmount: float64(50 + rnd.Intn(s.MaxBidIncrement)),
					UserID:    rnd.Int63(),
				}
				if _, err := svc.PlaceBid(ctx, auctionID, in); err != nil {
					atomic.AddInt64(&rejectedBids, 1)
				} else {
					atomic.AddInt64(&acceptedBids, 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Auctions: %d | Total Ops: %d | Accepted Bids: %d | Rejected Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumAuctions, totalOps, acceptedBids, rejectedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	var stored int64
	for _, id := range ids {
		a, err := svc.GetAuction(ctx, id)
		if err != nil {
			b.Fatalf("get auction %s: %v", id, err)
		}
		stored += int64(len(a.Bids))
	}
	if stored != acceptedBids {
		b.Fatalf("lost bids: %d accepted, %d stored", acceptedBids, stored)
	}
}
