package helpers

// Request DTOs
type CreateAuctionRequest struct {
	Name               string  `json:"name" binding:"required"`
	StartTime          string  `json:"startTime" binding:"required,auctiontime"`
	EndTime            string  `json:"endTime" binding:"required,auctiontime"`
	MinimumBid         float64 `json:"minimumBid" binding:"required,min=1"`
	MinimumAskingPrice float64 `json:"minimumAskingPrice" binding:"required,min=1"`
}

type PlaceBidRequest struct {
	BidAmount float64 `json:"bidAmount" binding:"required,min=1"`
	// pointer so that userId 0 passes the required check
	UserID *int64 `json:"userId" binding:"required"`
}
