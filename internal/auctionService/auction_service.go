package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"auction-bidding/internal/auctionerrors"
	"auction-bidding/internal/cache"
	"auction-bidding/internal/metrics"
	"auction-bidding/internal/models"
	"auction-bidding/internal/repository"
	"auction-bidding/internal/validation"
	"auction-bidding/utils"
)

const (
	DefaultCacheTTL       = 600 * time.Second
	DefaultListCacheKey   = "auctions"
	DefaultMaxBidAttempts = 3
)

// Client-facing messages
const (
	MsgAuctionNotFound    = "Auction not found"
	MsgNotOpen            = "Auction is not open for bidding"
	MsgClosed             = "Auction is closed for bidding"
	MsgBidBelowMinimum    = "Bid amount must be at least %s"
	MsgCreateFailed       = "Auction could not be created"
	MsgConcurrentBidRetry = "Auction received a concurrent bid, please retry"
)

// Config tunes AuctionService; zero values take the defaults above
type Config struct {
	CacheTTL     time.Duration
	ListCacheKey string
	// InvalidateOnWrite evicts the cached list on CreateAuction and PlaceBid.
	// Off by default: listings may then be stale for up to CacheTTL.
	InvalidateOnWrite bool
	Location          *time.Location
	MaxBidAttempts    int
	Clock             func() time.Time
	Metrics           *metrics.Metrics
}

// AuctionService owns the auction lifecycle and bid admission
type AuctionService struct {
	repo  repository.AuctionDB
	cache cache.Cache
	cfg   Config
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, c cache.Cache, cfg Config) *AuctionService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.ListCacheKey == "" {
		cfg.ListCacheKey = DefaultListCacheKey
	}
	if cfg.Location == nil {
		cfg.Location = utils.DefaultLocation()
	}
	if cfg.MaxBidAttempts <= 0 {
		cfg.MaxBidAttempts = DefaultMaxBidAttempts
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &AuctionService{
		repo:  repo,
		cache: c,
		cfg:   cfg,
	}
}

// CreateAuction validates and persists a new auction
func (s *AuctionService) CreateAuction(ctx context.Context, in models.CreateAuctionInput) (models.AuctionView, error) {
	if err := validation.CreateAuction(in, s.cfg.Clock()); err != nil {
		return models.AuctionView{}, err
	}

	auction := models.Auction{
		Name:               in.Name,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		MinimumBid:         in.MinimumBid,
		MinimumAskingPrice: in.MinimumAskingPrice,
	}
	// any store failure is reported to the caller as a bad request
	if err := s.repo.CreateAuction(ctx, &auction); err != nil {
		return models.AuctionView{}, auctionerrors.AsValidation(MsgCreateFailed,
			fmt.Errorf("service: failed to create auction %q: %w", in.Name, err))
	}

	s.cfg.Metrics.AuctionCreated()
	s.invalidateList(ctx)
	return s.format(auction), nil
}

// GetAuction returns an auction with its bids
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (models.AuctionView, error) {
	auction, err := s.load(ctx, auctionID)
	if err != nil {
		return models.AuctionView{}, err
	}
	return s.format(auction), nil
}

// ListAuctions returns every auction, read through the list cache
func (s *AuctionService) ListAuctions(ctx context.Context) ([]models.AuctionView, error) {
	if views, ok := s.cachedList(ctx); ok {
		return views, nil
	}

	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}

	views := make([]models.AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, s.format(a))
	}

	payload, err := json.Marshal(views)
	if err != nil {
		utils.Warn("ListAuctions: failed to encode auction list for cache", map[string]any{"error": err.Error()})
		return views, nil
	}
	if err := s.cache.Set(ctx, s.cfg.ListCacheKey, string(payload), s.cfg.CacheTTL); err != nil {
		utils.Warn("ListAuctions: failed to populate cache", map[string]any{
			"key":   s.cfg.ListCacheKey,
			"error": err.Error(),
		})
	}
	return views, nil
}

// PlaceBid admits a bid when the auction is open and the amount meets its minimum.
// The bid is recorded against the auction version that was validated; when another
// bid got in first the auction is reloaded and the bid re-validated.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID string, in models.PlaceBidInput) (models.Bid, error) {
	if err := validation.PlaceBid(in); err != nil {
		s.cfg.Metrics.Bid(metrics.BidRejected)
		return models.Bid{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxBidAttempts; attempt++ {
		auction, err := s.load(ctx, auctionID)
		if err != nil {
			return models.Bid{}, err
		}

		status := models.StatusAt(s.cfg.Clock(), auction.StartTime, auction.EndTime)
		if err := admit(auction, in, status); err != nil {
			s.cfg.Metrics.Bid(metrics.BidRejected)
			utils.Debug("PlaceBid: bid rejected", map[string]any{
				"auction_id": auctionID,
				"status":     status.String(),
				"amount":     in.BidAmount,
				"reason":     auctionerrors.Message(err),
			})
			return models.Bid{}, err
		}

		bid := models.Bid{
			BidAmount: in.BidAmount,
			UserID:    in.UserID,
			AuctionID: auction.ID,
		}
		err = s.repo.RecordBid(ctx, &bid, auction.Version)
		switch {
		case err == nil:
			s.cfg.Metrics.Bid(metrics.BidAccepted)
			s.invalidateList(ctx)
			return bid, nil
		case errors.Is(err, auctionerrors.ErrVersionConflict):
			lastErr = err
			utils.Warn("PlaceBid: concurrent bid detected, retrying", map[string]any{
				"auction_id": auctionID,
				"attempt":    attempt,
				"version":    auction.Version,
			})
		case errors.Is(err, auctionerrors.ErrAuctionNotFound):
			return models.Bid{}, auctionerrors.NotFound(MsgAuctionNotFound, err)
		default:
			return models.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %d: %w", auctionID, in.UserID, err)
		}
	}

	s.cfg.Metrics.Bid(metrics.BidConflict)
	return models.Bid{}, auctionerrors.Conflict(MsgConcurrentBidRetry,
		fmt.Errorf("service: gave up after %d attempts: %w", s.cfg.MaxBidAttempts, lastErr))
}

// admit checks the bidding window and the minimum bid
func admit(auction models.Auction, in models.PlaceBidInput, status models.AuctionStatus) error {
	switch status {
	case models.AuctionPending:
		return auctionerrors.Validation(MsgNotOpen)
	case models.AuctionClosed:
		return auctionerrors.Validation(MsgClosed)
	}

	if in.BidAmount < auction.MinimumBid {
		return auctionerrors.Validationf(MsgBidBelowMinimum, strconv.FormatFloat(auction.MinimumBid, 'f', -1, 64))
	}
	return nil
}

func (s *AuctionService) load(ctx context.Context, auctionID string) (models.Auction, error) {
	auction, err := s.repo.GetAuction(ctx, auctionID)
	if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
		return models.Auction{}, auctionerrors.NotFound(MsgAuctionNotFound, err)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// cachedList returns the cached listing; cache faults count as a miss
func (s *AuctionService) cachedList(ctx context.Context) ([]models.AuctionView, bool) {
	key := s.cfg.ListCacheKey
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.cfg.Metrics.ListCache(metrics.CacheError)
		utils.Warn("ListAuctions: cache read failed, loading from store", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	if !ok {
		s.cfg.Metrics.ListCache(metrics.CacheMiss)
		return nil, false
	}

	var views []models.AuctionView
	if err := json.Unmarshal([]byte(payload), &views); err != nil {
		s.cfg.Metrics.ListCache(metrics.CacheError)
		utils.Warn("ListAuctions: cached entry is corrupt, loading from store", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	s.cfg.Metrics.ListCache(metrics.CacheHit)
	return views, true
}

func (s *AuctionService) invalidateList(ctx context.Context) {
	if !s.cfg.InvalidateOnWrite {
		return
	}
	if err := s.cache.Delete(ctx, s.cfg.ListCacheKey); err != nil {
		utils.Warn("failed to evict auction list cache", map[string]any{"key": s.cfg.ListCacheKey, "error": err.Error()})
	}
}

func (s *AuctionService) format(a models.Auction) models.AuctionView {
	bids := a.Bids
	if bids == nil {
		bids = []models.Bid{}
	}
	return models.AuctionView{
		ID:                 a.ID,
		Name:               a.Name,
		StartTime:          utils.FormatDisplay(a.StartTime, s.cfg.Location),
		EndTime:            utils.FormatDisplay(a.EndTime, s.cfg.Location),
		MinimumBid:         a.MinimumBid,
		MinimumAskingPrice: a.MinimumAskingPrice,
		Bids:               bids,
		Version:            a.Version,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
