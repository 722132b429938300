package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/harvest-market-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	svc service.NotificationService
	log *logrus.Logger
}

func NewNotificationHandler(svc service.NotificationService, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

func (h *NotificationHandler) List(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	unreadOnly := queryBool(c, "unreadOnly")
	list, unreadCount, err := h.svc.List(c.Request().Context(), actor, unreadOnly, queryInt(c, "limit"))
	if err != nil {
		return respondError(c, h.log, "NotificationHandler.List", err)
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unreadCount,
	})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	cnt, err := h.svc.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, h.log, "NotificationHandler.UnreadCount", err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unreadCount": cnt})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.svc.MarkRead(c.Request().Context(), actor, id); err != nil {
		return respondError(c, h.log, "NotificationHandler.MarkRead", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor, ok, err := currentActor(c)
	if !ok {
		return err
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), actor); err != nil {
		return respondError(c, h.log, "NotificationHandler.MarkAllRead", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
