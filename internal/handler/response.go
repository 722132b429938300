package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// respondError maps service errors onto status codes. Anything unexpected is
// logged and reported without detail.
func respondError(c echo.Context, log *logrus.Logger, funcName string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("validation_error", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "resource not found"))
	case errors.Is(err, service.ErrDuplicateOffer):
		return c.JSON(http.StatusConflict, NewErrorResponse("duplicate_offer", err.Error()))
	case errors.Is(err, service.ErrOfferAlreadyHandled):
		return c.JSON(http.StatusConflict, NewErrorResponse("offer_already_handled", err.Error()))
	case errors.Is(err, service.ErrPreOrderLocked):
		return c.JSON(http.StatusConflict, NewErrorResponse("pre_order_locked", err.Error()))
	case errors.Is(err, service.ErrInsufficientSupply):
		return c.JSON(http.StatusConflict, NewErrorResponse("insufficient_supply", err.Error()))
	case errors.Is(err, repository.ErrDBNotReady):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("db_not_ready", "database is starting"))
	}
	logger.LogError(logger.FromContext(c.Request().Context(), log), "handler", funcName, c.Path(), nil, err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "something went wrong"))
}
