package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
)

var messages = map[string]string{
	"invalid_service_selection":    "One or more services are unknown or inactive.",
	"slot_conflict":                "The selected time is no longer available.",
	"invalid_range":                "The time range is invalid.",
	"not_found":                    "Not found.",
	"invalid_status":               "Unknown appointment status.",
	"invalid_duration":             "Duration must be positive.",
	"outside_working_hours":        "The barber is not working at that time.",
	"too_soon":                     "That time is too close to book.",
	"barber_inactive":              "The barber is not taking bookings.",
	"invalid_working_hours":        "Working hours are invalid.",
	"email_already_registered":     "That email is already registered.",
	"user_not_found":               "User not found.",
	"invalid_image":                "The upload is not a supported picture.",
	"image_too_large":              "The picture is too large.",
	"image_too_small":              "The picture is too small.",
	"media_storage_not_configured": "Picture uploads are not available.",
	httperr.CodeTimeout:            "The request timed out, please retry.",
	httperr.CodeStorageUnavailable: "Storage is temporarily unavailable, please retry.",
}

// writeError maps a use case error onto the HTTP surface.
func writeError(c *gin.Context, err error) {
	code := httperr.Code(err)
	msg := messages[code]

	switch code {
	case "":
		if errors.Is(err, context.Canceled) {
			c.Abort()
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled error")
		httperr.Internal(c, "internal_error", "Unexpected error.")

	case "not_found", "user_not_found":
		httperr.NotFound(c, code, msg)

	case "slot_conflict", "email_already_registered":
		httperr.Conflict(c, code, msg)

	case "outside_working_hours", "too_soon", "barber_inactive":
		httperr.Unprocessable(c, code, msg)

	case httperr.CodeTimeout, httperr.CodeStorageUnavailable, "media_storage_not_configured":
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("request failed, retryable")
		httperr.Unavailable(c, code, msg)

	default:
		httperr.BadRequest(c, code, msg)
	}
}

func bindError(c *gin.Context, err error) {
	httperr.BadRequest(c, "invalid_request", err.Error())
}
