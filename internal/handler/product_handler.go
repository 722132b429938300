package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	svc service.ProductService
	log *logrus.Logger
}

func NewProductHandler(svc service.ProductService, log *logrus.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

type ProductRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Unit        string  `json:"unit" validate:"max=16"`
	Image       *string `json:"image" validate:"omitempty,max=512"`
	Description string  `json:"description"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{Name: r.Name, Unit: r.Unit, Image: r.Image, Description: r.Description}
}

func (h *ProductHandler) Create(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	var req ProductRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), actor, req.input())
	if err != nil {
		return respondError(c, h.log, "ProductHandler.Create", err)
	}
	return c.JSON(http.StatusCreated, toProductResponse(p))
}

func (h *ProductHandler) Update(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	var req ProductRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), actor, id, req.input())
	if err != nil {
		return respondError(c, h.log, "ProductHandler.Update", err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, "ProductHandler.Get", err)
	}
	return c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *ProductHandler) List(c echo.Context) error {
	var ownerID uint64
	if v := queryInt(c, "ownerId"); v > 0 {
		ownerID = uint64(v)
	}
	list, total, err := h.svc.List(c.Request().Context(), ownerID, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		return respondError(c, h.log, "ProductHandler.List", err)
	}
	return c.JSON(http.StatusOK, ListResponse[ProductResponse]{Items: mapSlice(list, toProductResponse), Total: total})
}
