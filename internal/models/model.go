package models

import "time"

// AuctionStatus is derived from the clock and the auction window, never stored
type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionOpen
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionOpen:
		return "open"
	case AuctionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StatusAt reports the auction state at now; the window [start, end] is inclusive on both ends
func StatusAt(now, start, end time.Time) AuctionStatus {
	switch {
	case now.Before(start):
		return AuctionPending
	case now.After(end):
		return AuctionClosed
	default:
		return AuctionOpen
	}
}

// Auction represents a timed sale with a bidding window
type Auction struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	MinimumBid         float64   `json:"minimumBid"`
	MinimumAskingPrice float64   `json:"minimumAskingPrice"`
	Bids               []Bid     `json:"bids"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Bid represents a user's bid on an auction
type Bid struct {
	ID        string    `json:"id"`
	BidAmount float64   `json:"bidAmount"`
	UserID    int64     `json:"userId"`
	AuctionID string    `json:"auction"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuctionView is the display form of an Auction: window bounds are rendered strings
type AuctionView struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	StartTime          string    `json:"startTime"`
	EndTime            string    `json:"endTime"`
	MinimumBid         float64   `json:"minimumBid"`
	MinimumAskingPrice float64   `json:"minimumAskingPrice"`
	Bids               []Bid     `json:"bids"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// CreateAuctionInput is a parsed auction creation request
type CreateAuctionInput struct {
	Name               string
	StartTime          time.Time
	EndTime            time.Time
	MinimumBid         float64
	MinimumAskingPrice float64
}

// PlaceBidInput is a parsed bid request
type PlaceBidInput struct {
	BidAmount float64
	UserID    int64
}
