package handler

//go:generate mockgen -destination=mock_auction_service.go -package=handler auction-bidding/services/auction/handler AuctionServiceInterface

import (
	"context"
	"net/http"
	"time"

	"auction-bidding/internal/models"
	"auction-bidding/internal/validation"
	"auction-bidding/services/auction/helpers"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, in models.CreateAuctionInput) (models.AuctionView, error)
	GetAuction(ctx context.Context, auctionID string) (models.AuctionView, error)
	ListAuctions(ctx context.Context) ([]models.AuctionView, error)
	PlaceBid(ctx context.Context, auctionID string, in models.PlaceBidInput) (models.Bid, error)
}

type AuctionHandler struct {
	service  AuctionServiceInterface
	location *time.Location
}

// NewAuctionHandler parses request times in loc, utils.DefaultLocation when nil
func NewAuctionHandler(service AuctionServiceInterface, loc *time.Location) *AuctionHandler {
	if loc == nil {
		loc = utils.DefaultLocation()
	}
	return &AuctionHandler{service: service, location: loc}
}

// CreateAuctionHandler handles POST /auction
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	start, err := validation.ParseInputTime(req.StartTime, h.location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, validation.MsgStartTime)
		return
	}
	end, err := validation.ParseInputTime(req.EndTime, h.location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, validation.MsgEndTime)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), models.CreateAuctionInput{
		Name:               req.Name,
		StartTime:          start,
		EndTime:            end,
		MinimumBid:         req.MinimumBid,
		MinimumAskingPrice: req.MinimumAskingPrice,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"handler": "CreateAuctionHandler",
			"name":    req.Name,
			"error":   err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "Auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created", map[string]any{
		"auction_id": auction.ID,
		"name":       auction.Name,
		"start_time": auction.StartTime,
		"end_time":   auction.EndTime,
	})
}

// ListAuctionsHandler handles GET /auction
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Error("ListAuctionsHandler: failed to list auctions", map[string]any{"error": err.Error()})
		return
	}

	if auctions == nil {
		auctions = []models.AuctionView{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "Auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved", map[string]any{"count": len(auctions)})
}

// GetAuctionHandler handles GET /auction/:id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID, ok := auctionIDParam(c, "GetAuctionHandler")
	if !ok {
		return
	}

	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, "Auction retrieved successfully")
	helpers.LogSuccess("GetAuctionHandler", "auction retrieved", map[string]any{
		"auction_id": auctionID,
		"bids":       len(auction.Bids),
	})
}

// PlaceBidHandler handles POST /auction/:id/bid
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID, ok := auctionIDParam(c, "PlaceBidHandler")
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, models.PlaceBidInput{
		BidAmount: req.BidAmount,
		UserID:    *req.UserID,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"user_id":    *req.UserID,
			"amount":     req.BidAmount,
			"status":     status,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, bid, "Bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed", map[string]any{
		"bid_id":     bid.ID,
		"auction_id": auctionID,
		"user_id":    bid.UserID,
		"amount":     bid.BidAmount,
	})
}

func auctionIDParam(c *gin.Context, handlerName string) (string, bool) {
	auctionID := c.Param("id")
	if !utils.IsValidID(auctionID) {
		utils.JSONError(c, http.StatusBadRequest, helpers.MsgInvalidID)
		utils.Warn(handlerName+": invalid auction id", map[string]any{"auction_id": auctionID})
		return "", false
	}
	return auctionID, true
}
