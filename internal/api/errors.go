package api

import (
	"errors"
	"net/http"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{models.ErrConfigValidationFailed, http.StatusUnprocessableEntity},
	{models.ErrConfigNotFound, http.StatusNotFound},
	{models.ErrSessionNotFound, http.StatusNotFound},
	{models.ErrLineNotFound, http.StatusNotFound},
	{models.ErrProductNotFound, http.StatusNotFound},
	{models.ErrInvalidConfigName, http.StatusBadRequest},
	{models.ErrInvalidQuantity, http.StatusBadRequest},
	{models.ErrInvalidCartItem, http.StatusBadRequest},
	{models.ErrEmptyCart, http.StatusBadRequest},
	{models.ErrMissingSessionToken, http.StatusBadRequest},
	{models.ErrCheckoutInProgress, http.StatusConflict},
	{models.ErrCheckoutDisabled, http.StatusForbidden},
	{models.ErrConfigReadOnly, http.StatusMethodNotAllowed},
	{models.ErrConfigUnavailable, http.StatusServiceUnavailable},
	{models.ErrCheckoutRejected, http.StatusBadGateway},
	{models.ErrNetworkFailure, http.StatusBadGateway},
}

// classify returns the error kind of err and its HTTP status
func classify(err error) (error, int) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.err, e.status
		}
	}
	return nil, http.StatusInternalServerError
}

func violationsOf(err error) []models.Violation {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return nil
}

func writeError(c *gin.Context, err error) {
	kind, status := classify(err)
	message := http.StatusText(status)
	if kind != nil {
		message = kind.Error()
	}

	body := gin.H{
		"error":   message,
		"details": err.Error(),
	}
	if violations := violationsOf(err); violations != nil {
		body["violations"] = violations
	}
	c.JSON(status, body)
}
