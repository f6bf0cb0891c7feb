package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Notifications lists the center's history, newest first.
func (h *Shell) Notifications(c echo.Context) error {
	items := h.Center.Recent()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Shell) DismissNotification(c echo.Context) error {
	if !h.Center.Dismiss(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Shell) ClearNotifications(c echo.Context) error {
	h.Center.Clear()
	return c.NoContent(http.StatusNoContent)
}
