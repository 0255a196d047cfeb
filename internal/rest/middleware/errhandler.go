package middleware

import (
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/gin-gonic/gin"
)

const defaultDisplayMessage = "An unexpected error occurred"

// ErrorHandler renders the last error a handler attached to the context
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		display := ierr.DisplayMessage(err)
		if display == "" {
			display = defaultDisplayMessage
		}

		response := ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Display: display,
				Code:    ierr.ErrorCode(err),
				Details: ierr.ReportableDetails(err),
			},
		}

		c.JSON(ierr.HTTPStatusFromErr(err), response)
	}
}
