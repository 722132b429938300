package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OfferHandler struct {
	svc service.OfferService
	log *logrus.Logger
}

func NewOfferHandler(svc service.OfferService, log *logrus.Logger) *OfferHandler {
	return &OfferHandler{svc: svc, log: log}
}

type SubmitOfferRequest struct {
	FulfilledQty decimal.Decimal `json:"fulfilledQty"`
	OfferStatus  string          `json:"offerStatus" validate:"required,oneof=accepted rejected"`
	Description  string          `json:"description" validate:"max=255"`
}

type DecideOfferRequest struct {
	OfferStatus string `json:"offerStatus" validate:"required,oneof=confirmed rejected"`
}

func (h *OfferHandler) Submit(c echo.Context) error {
	f, ok, err := requireFarmer(c)
	if !ok {
		return err
	}
	preOrderID, ok := parseIDParam(c, "preOrderId")
	if !ok {
		return badID(c)
	}
	var req SubmitOfferRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	d, err := h.svc.SubmitOffer(c.Request().Context(), f, service.SubmitOfferInput{
		PreOrderID:   preOrderID,
		FulfilledQty: req.FulfilledQty,
		Status:       model.OfferStatus(req.OfferStatus),
		Description:  req.Description,
	})
	if err != nil {
		return respondError(c, h.log, "OfferHandler.Submit", err)
	}
	return c.JSON(http.StatusCreated, toOrderDetailResponse(d))
}

func (h *OfferHandler) List(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	list, total, err := h.svc.FilterOffers(c.Request().Context(), actor, service.OfferFilter{
		Status: model.OfferStatus(c.QueryParam("status")),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})
	if err != nil {
		return respondError(c, h.log, "OfferHandler.List", err)
	}
	return c.JSON(http.StatusOK, ListResponse[OrderDetailResponse]{Items: mapSlice(list, toOrderDetailResponse), Total: total})
}

func (h *OfferHandler) Decide(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	var req DecideOfferRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	d, err := h.svc.ConfirmOffer(c.Request().Context(), v, id, model.OfferStatus(req.OfferStatus))
	if err != nil {
		return respondError(c, h.log, "OfferHandler.Decide", err)
	}
	return c.JSON(http.StatusOK, toOrderDetailResponse(d))
}

func (h *OfferHandler) Cancel(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	d, err := h.svc.CancelOffer(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, h.log, "OfferHandler.Cancel", err)
	}
	return c.JSON(http.StatusOK, toOrderDetailResponse(d))
}
