package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	"auction-bidding/internal/auctionerrors"
	"auction-bidding/internal/validation"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	MsgInvalidPayload = "Invalid request payload"
	MsgInvalidID      = "Invalid ID format"
	MsgInternal       = "internal server error"
)

// fieldMessages maps DTO fields to the message reported when they fail validation
var fieldMessages = map[string]string{
	"Name":               validation.MsgNameRequired,
	"StartTime":          validation.MsgStartTime,
	"EndTime":            validation.MsgEndTime,
	"MinimumBid":         validation.MsgMinimumBid,
	"MinimumAskingPrice": validation.MsgMinimumAskingPrice,
	"BidAmount":          validation.MsgBidAmount,
	"UserID":             validation.MsgUserIDRequired,
}

// typeMessages maps JSON body fields to the message reported when they carry the wrong type
var typeMessages = map[string]string{
	"minimumBid":         validation.MsgMinimumBidNumber,
	"minimumAskingPrice": validation.MsgMinimumAskingPriceNumber,
	"bidAmount":          validation.MsgBidAmountNumber,
	"userId":             validation.MsgUserIDNumber,
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	message := BindErrorMessage(err)
	utils.JSONError(c, http.StatusBadRequest, message)
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error(), "message": message})
}

// BindErrorMessage reports the first failing field, or a generic message for malformed bodies
func BindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].StructField()]; ok {
			return msg
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := typeMessages[typeErr.Field]; ok {
			return msg
		}
	}
	return MsgInvalidPayload
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, auctionerrors.Message(err)
	case errors.Is(err, auctionerrors.ErrNotFound):
		return http.StatusNotFound, auctionerrors.Message(err)
	case errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusConflict, auctionerrors.Message(err)
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
