package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type PreOrderHandler struct {
	svc    service.PreOrderService
	offers service.OfferService
	log    *logrus.Logger
}

func NewPreOrderHandler(svc service.PreOrderService, offers service.OfferService, log *logrus.Logger) *PreOrderHandler {
	return &PreOrderHandler{svc: svc, offers: offers, log: log}
}

type CreatePreOrderRequest struct {
	ProductID    uint64          `json:"productId" validate:"required"`
	Qty          decimal.Decimal `json:"qty"`
	DeliveryDate string          `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
	Location     string          `json:"location" validate:"max=255"`
	Note         string          `json:"note" validate:"max=2000"`
}

type UpdatePreOrderRequest struct {
	ProductID    *uint64          `json:"productId" validate:"omitempty,gt=0"`
	Qty          *decimal.Decimal `json:"qty"`
	DeliveryDate *string          `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
	Location     *string          `json:"location" validate:"omitempty,max=255"`
	Note         *string          `json:"note" validate:"omitempty,max=2000"`
}

type FromSurplusRequest struct {
	MarketSupplyID uint64          `json:"marketSupplyId" validate:"required"`
	Qty            decimal.Decimal `json:"qty"`
	Unit           string          `json:"unit" validate:"max=16"`
	DeliveryDate   string          `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
	Location       string          `json:"location" validate:"max=255"`
	Note           string          `json:"note" validate:"max=2000"`
}

func (h *PreOrderHandler) Create(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	var req CreatePreOrderRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	delivery, ok, err := bindDate(c, "deliveryDate", req.DeliveryDate)
	if !ok {
		return err
	}
	p, err := h.svc.SubmitPreOrder(c.Request().Context(), v, service.SubmitPreOrderInput{
		ProductID:    req.ProductID,
		Qty:          req.Qty,
		DeliveryDate: delivery,
		Location:     req.Location,
		Note:         req.Note,
	})
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Create", err)
	}
	return c.JSON(http.StatusCreated, toPreOrderResponse(p))
}

func (h *PreOrderHandler) List(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	list, total, err := h.svc.ListPreOrders(c.Request().Context(), actor, service.PreOrderFilter{
		Status:         model.PreOrderStatus(c.QueryParam("status")),
		ExcludePending: queryBool(c, "excludePending"),
		Limit:          queryInt(c, "limit"),
		Offset:         queryInt(c, "offset"),
	})
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.List", err)
	}
	return c.JSON(http.StatusOK, ListResponse[PreOrderResponse]{Items: mapSlice(list, toPreOrderResponse), Total: total})
}

func (h *PreOrderHandler) Trending(c echo.Context) error {
	items, err := h.svc.TrendingProducts(c.Request().Context(), queryInt(c, "limit"))
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Trending", err)
	}
	resp := make([]TrendingResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toTrendingResponse(it))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": resp})
}

func (h *PreOrderHandler) Get(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	p, err := h.svc.GetPreOrder(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Get", err)
	}
	return c.JSON(http.StatusOK, toPreOrderResponse(p))
}

func (h *PreOrderHandler) Update(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	var req UpdatePreOrderRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	in := service.UpdatePreOrderInput{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		Location:  req.Location,
		Note:      req.Note,
	}
	if req.DeliveryDate != nil {
		delivery, ok, err := bindDate(c, "deliveryDate", *req.DeliveryDate)
		if !ok {
			return err
		}
		in.DeliveryDate = delivery
	}
	p, err := h.svc.UpdatePreOrder(c.Request().Context(), v, id, in)
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Update", err)
	}
	return c.JSON(http.StatusOK, toPreOrderResponse(p))
}

func (h *PreOrderHandler) Cancel(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	p, err := h.svc.CancelPreOrder(c.Request().Context(), v, id)
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Cancel", err)
	}
	return c.JSON(http.StatusOK, toPreOrderResponse(p))
}

func (h *PreOrderHandler) Offers(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	list, err := h.offers.ListOffersForPreOrder(c.Request().Context(), v, id)
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.Offers", err)
	}
	return c.JSON(http.StatusOK, ListResponse[OrderDetailResponse]{Items: mapSlice(list, toOrderDetailResponse), Total: int64(len(list))})
}

func (h *PreOrderHandler) FromSurplus(c echo.Context) error {
	v, ok, err := requireVendor(c)
	if !ok {
		return err
	}
	var req FromSurplusRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	delivery, ok, err := bindDate(c, "deliveryDate", req.DeliveryDate)
	if !ok {
		return err
	}
	out, err := h.svc.StoreFromSurplus(c.Request().Context(), v, service.StoreFromSurplusInput{
		MarketSupplyID: req.MarketSupplyID,
		Qty:            req.Qty,
		Unit:           req.Unit,
		DeliveryDate:   delivery,
		Location:       req.Location,
		Note:           req.Note,
	})
	if err != nil {
		return respondError(c, h.log, "PreOrderHandler.FromSurplus", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"preOrder":     toPreOrderResponse(&out.PreOrder),
		"orderDetail":  toOrderDetailResponse(&out.OrderDetail),
		"marketSupply": toMarketSupplyResponse(&out.Supply),
	})
}
