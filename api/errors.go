package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"printbay/service"
)

// respondError maps a service error onto a machine-readable code and HTTP
// status. Business-rule rejections keep their human-readable reason; only
// unclassified errors collapse into a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		writeError(c, http.StatusConflict, "insufficient_balance", err)
	case errors.Is(err, service.ErrSelfInteractionForbidden):
		writeError(c, http.StatusForbidden, "self_interaction_forbidden", err)
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(c, http.StatusBadRequest, "invalid_amount", err)
	case errors.Is(err, service.ErrWalletNotFound):
		writeError(c, http.StatusNotFound, "wallet_not_found", err)
	case errors.Is(err, service.ErrPostNotFound):
		writeError(c, http.StatusNotFound, "post_not_found", err)
	case errors.Is(err, service.ErrRewardOutOfPolicy):
		writeError(c, http.StatusUnprocessableEntity, "reward_out_of_policy", err)
	case errors.Is(err, service.ErrConcurrencyConflict), errors.Is(err, service.ErrStorageUnavailable):
		writeError(c, http.StatusServiceUnavailable, "try_again", err)
	default:
		log.WithError(err).Error("Unhandled error in request")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal error",
		})
	}
}

func writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": err.Error(),
	})
}
