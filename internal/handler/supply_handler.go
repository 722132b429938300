package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type SupplyHandler struct {
	svc service.SupplyService
	log *logrus.Logger
}

func NewSupplyHandler(svc service.SupplyService, log *logrus.Logger) *SupplyHandler {
	return &SupplyHandler{svc: svc, log: log}
}

func (h *SupplyHandler) ListAvailable(c echo.Context) error {
	list, total, err := h.svc.ListAvailable(c.Request().Context(), queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		return respondError(c, h.log, "SupplyHandler.ListAvailable", err)
	}
	return c.JSON(http.StatusOK, ListResponse[MarketSupplyResponse]{Items: mapSlice(list, toMarketSupplyResponse), Total: total})
}

func (h *SupplyHandler) MyCrops(c echo.Context) error {
	f, ok, err := requireFarmer(c)
	if !ok {
		return err
	}
	crops, err := h.svc.ListFarmCrops(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.log, "SupplyHandler.MyCrops", err)
	}
	return c.JSON(http.StatusOK, ListResponse[CropResponse]{Items: mapSlice(crops, toCropResponse), Total: int64(len(crops))})
}
