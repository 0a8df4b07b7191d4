package repository

//go:generate mockgen -destination=mock_repository.go -package=repository auction-bidding/internal/repository AuctionDB

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-bidding/internal/auctionerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/utils"
)

// AuctionStore persists auction records
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
}

// BidStore persists bids. RecordBid stores the bid and appends it to its auction
// in one step, provided the auction is still at expectedVersion.
type BidStore interface {
	RecordBid(ctx context.Context, bid *model.Bid, expectedVersion int64) error
}

// AuctionDB is the storage the auction lifecycle runs against
type AuctionDB interface {
	AuctionStore
	BidStore
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> value: auction without bids
	bids     map[string][]model.Bid   // key: auctionID -> value: bids in arrival order
	order    []string                 // auctionIDs in creation order
	now      func() time.Time
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
		now:      time.Now,
	}
}

// CreateAuction assigns an id and timestamps and stores the auction
func (r *MemoryRepo) CreateAuction(ctx context.Context, auction *model.Auction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	auction.ID = utils.GenerateID()
	auction.Bids = []model.Bid{}
	auction.Version = 0
	auction.CreatedAt = now
	auction.UpdatedAt = now

	stored := *auction
	stored.Bids = nil
	r.auctions[auction.ID] = stored
	r.order = append(r.order, auction.ID)
	return nil
}

// GetAuction returns the auction with its bids resolved
func (r *MemoryRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if err := ctx.Err(); err != nil {
		return model.Auction{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return r.resolve(auctionID), nil
}

// ListAuctions returns every auction in creation order with bids resolved
func (r *MemoryRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.order))
	for _, id := range r.order {
		auctions = append(auctions, r.resolve(id))
	}
	return auctions, nil
}

// RecordBid stores bid and appends it to its auction when the auction is still at expectedVersion
func (r *MemoryRepo) RecordBid(ctx context.Context, bid *model.Bid, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Version != expectedVersion {
		return fmt.Errorf("record bid for auction %s at version %d (current %d): %w",
			bid.AuctionID, expectedVersion, auction.Version, auctionerrors.ErrVersionConflict)
	}

	now := r.now().UTC()
	bid.ID = utils.GenerateID()
	bid.CreatedAt = now
	bid.UpdatedAt = now

	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], *bid)
	auction.Version++
	auction.UpdatedAt = now
	r.auctions[bid.AuctionID] = auction
	return nil
}

// resolve must be called with r.mu held
func (r *MemoryRepo) resolve(auctionID string) model.Auction {
	auction := r.auctions[auctionID]
	auction.Bids = append([]model.Bid{}, r.bids[auctionID]...)
	return auction
}

// SetClock replaces the timestamp source. This method is intended for tests only.
func (r *MemoryRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
