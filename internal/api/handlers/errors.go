package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/sirupsen/logrus"
)

// dateLayout is the calendar-date format accepted in queries and bodies.
const dateLayout = "2006-01-02"

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, log *logrus.Logger, err error, message string) {
	var validation *analytics.ValidationError
	switch {
	case errors.As(err, &validation):
		utils.SendValidationError(c, message, validation.Error())
	case errors.Is(err, utils.ErrNotFound):
		utils.SendNotFound(c, err.Error())
	case services.IsUnavailable(err):
		log.WithError(err).Warn(message)
		utils.SendUnavailable(c, "Data store is temporarily unavailable")
	default:
		log.WithError(err).Error(message)
		utils.SendError(c, http.StatusInternalServerError, utils.NewAppError(utils.ErrCodeComputation, message, err.Error()))
	}
}

// parseDate accepts an empty string as the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}
