package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-client/internal/session"
)

type sessionLoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionRegisterReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// SessionResult answers a credential flow.
type SessionResult struct {
	OK       bool             `json:"ok"`
	Redirect string           `json:"redirect,omitempty"`
	Session  session.Snapshot `json:"session"`
}

func (h *Shell) result(c echo.Context, ok bool) error {
	snap := h.Session.Snapshot()
	res := SessionResult{OK: ok, Session: snap}
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	res.Redirect = session.ViewRoot
	return c.JSON(http.StatusOK, res)
}

// GetSession returns the current snapshot.
func (h *Shell) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *Shell) Login(c echo.Context) error {
	var req sessionLoginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.result(c, h.Session.Login(c.Request().Context(), req.Email, req.Password))
}

func (h *Shell) Register(c echo.Context) error {
	var req sessionRegisterReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ok := h.Session.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Role)
	return h.result(c, ok)
}

// Logout always succeeds.
func (h *Shell) Logout(c echo.Context) error {
	h.Session.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, SessionResult{OK: true, Redirect: session.ViewLogin, Session: h.Session.Snapshot()})
}
