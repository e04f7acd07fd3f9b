package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/response"
	"github.com/hrcadm/cadencecase/internal/service"
	"github.com/hrcadm/cadencecase/internal/storage"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	if status >= 500 {
		logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	} else {
		logger.Warnf("[request_id=%s] %s: %v", requestID, msg, err)
	}
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 409:
		resp = response.Conflict(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg)
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

// HandleServiceError maps known domain errors to a status and reports err.
func HandleServiceError(c *gin.Context, logger internal.Logger, err error, msg string) {
	HandleError(c, logger, err, statusFor(err), msg)
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, analysis.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSleepNotFound), errors.Is(err, service.ErrNoActiveSleep),
		errors.Is(err, storage.ErrNotFound), errors.Is(err, analysis.ErrUnknownTipCategory):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSleepAlreadyActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	HandleSuccessStatus(c, logger, http.StatusOK, data, meta)
}

func HandleSuccessStatus(c *gin.Context, logger internal.Logger, status int, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(status, response.Success(data, meta))
}
