package middlewares

import (
	"errors"
	"net/http"

	"StoryVault/models"
	"StoryVault/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, services.ErrNotArchived):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrMalformedSnapshot), errors.Is(err, models.ErrUnsupportedVersion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every error as {"error": "..."}.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Failed to process request"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else if code := statusFor(err); code != http.StatusInternalServerError {
			status = code
			message = err.Error()
		}

		if status >= http.StatusInternalServerError {
			logrus.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
				"error":  err,
			}).Error("Error request")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, map[string]interface{}{"error": message})
		}
		if err != nil {
			logrus.WithError(err).Error("Failed to write error response")
		}
	}
}
