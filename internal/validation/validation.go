// Package validation holds the input rules of the auction lifecycle as plain functions.
package validation

import (
	"fmt"
	"strings"
	"time"

	"auction-bidding/internal/auctionerrors"
	"auction-bidding/internal/models"

	"github.com/go-playground/validator/v10"
)

// InputTimeLayout is the accepted creation date format, YYYY-MM-DD HH:mm A
const InputTimeLayout = "2006-01-02 15:04 PM"

// InputTimeTag is the struct tag checking a string against InputTimeLayout
const InputTimeTag = "auctiontime"

const (
	MsgNameRequired       = "Auction name is required"
	MsgStartTime          = "Start time must be in the future and in format YYYY-MM-DD HH:mm A"
	MsgEndTime            = "End time must be after start time and in format YYYY-MM-DD HH:mm A"
	MsgMinimumBid         = "Minimum bid must be at least 1"
	MsgMinimumAskingPrice = "Minimum asking price must be at least 1"
	MsgBidAmount          = "Bid amount must be at least 1"
	MsgUserIDRequired     = "User ID is required"

	MsgMinimumBidNumber         = "Minimum bid must be a number"
	MsgMinimumAskingPriceNumber = "Minimum asking price must be a number"
	MsgBidAmountNumber          = "Bid amount must be a number"
	MsgUserIDNumber             = "User ID must be a number"
)

// ParseInputTime parses value in InputTimeLayout, interpreting it in loc.
// Every field is two digits wide and the meridiem is case-insensitive.
func ParseInputTime(value string, loc *time.Location) (time.Time, error) {
	if len(value) != len(InputTimeLayout) {
		return time.Time{}, fmt.Errorf("parse input time %q: want layout YYYY-MM-DD HH:mm A", value)
	}
	return time.ParseInLocation(InputTimeLayout, strings.ToUpper(value), loc)
}

// IsInputTime reports whether value is in InputTimeLayout
func IsInputTime(value string) bool {
	_, err := ParseInputTime(value, time.UTC)
	return err == nil
}

// RegisterBindings registers the custom struct tags on v
func RegisterBindings(v *validator.Validate) error {
	return v.RegisterValidation(InputTimeTag, func(fl validator.FieldLevel) bool {
		return IsInputTime(fl.Field().String())
	})
}

// NotBlank fails with message when value is empty or whitespace
func NotBlank(value, message string) error {
	if strings.TrimSpace(value) == "" {
		return auctionerrors.Validation(message)
	}
	return nil
}

// AtLeast fails with message when value < min
func AtLeast(value, min float64, message string) error {
	if value < min {
		return auctionerrors.Validation(message)
	}
	return nil
}

// StartInFuture fails unless start is strictly after now
func StartInFuture(start, now time.Time) error {
	if !start.After(now) {
		return auctionerrors.Validation(MsgStartTime)
	}
	return nil
}

// EndAfterStart fails unless end is strictly after start
func EndAfterStart(start, end time.Time) error {
	if !end.After(start) {
		return auctionerrors.Validation(MsgEndTime)
	}
	return nil
}

// CreateAuction applies every creation rule; the first failure wins
func CreateAuction(in models.CreateAuctionInput, now time.Time) error {
	checks := []func() error{
		func() error { return NotBlank(in.Name, MsgNameRequired) },
		func() error { return StartInFuture(in.StartTime, now) },
		func() error { return EndAfterStart(in.StartTime, in.EndTime) },
		func() error { return AtLeast(in.MinimumBid, 1, MsgMinimumBid) },
		func() error { return AtLeast(in.MinimumAskingPrice, 1, MsgMinimumAskingPrice) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// PlaceBid applies the shape rules of a bid request
func PlaceBid(in models.PlaceBidInput) error {
	return AtLeast(in.BidAmount, 1, MsgBidAmount)
}
