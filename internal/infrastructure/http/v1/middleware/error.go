package middleware

import (
	"github.com/gin-gonic/gin"

	"branchpos/internal/core/apperror"
	"branchpos/internal/infrastructure/http/v1/dto"
	"branchpos/pkg/logger"
)

// ErrorHandler renders the last handler error as a JSON problem body.
// Internal causes are logged and never reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

func writeError(c *gin.Context, err error) {
	appErr := apperror.Wrap(err)
	if appErr.Err != nil {
		log := logger.FromContext(c.Request.Context())
		if appErr.HTTPStatus >= 500 {
			log.Errorw("request error", "code", appErr.Code, "cause", appErr.Err)
		} else {
			log.Debugw("request rejected", "code", appErr.Code, "cause", appErr.Err)
		}
	}

	body := dto.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Code == apperror.CodeInternal {
		body.RequestID = c.GetString("request_id")
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}
