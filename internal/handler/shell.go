package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/routeguard"
	"github.com/iliyamo/lms-client/internal/session"
)

// Shell serves the local client: view descriptors, the session API, the
// OAuth callback and the notification center.
type Shell struct {
	Session *session.Store
	Center  *notify.Center
	Logger  *slog.Logger
}

func NewShell(s *session.Store, center *notify.Center, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{Session: s, Center: center, Logger: logger}
}

// View is the JSON descriptor the shell answers a navigation with.
type View struct {
	View     string            `json:"view"`
	Path     string            `json:"path"`
	User     *model.User       `json:"user"`
	Sections []model.Section   `json:"sections"`
	Params   map[string]string `json:"params,omitempty"`
}

func (h *Shell) render(c echo.Context, view string) error {
	snap := h.Session.Snapshot()
	v := View{
		View:     view,
		Path:     c.Request().URL.Path,
		User:     snap.User,
		Sections: model.Sections(snap.Role()),
	}
	if names := c.ParamNames(); len(names) > 0 {
		v.Params = make(map[string]string, len(names))
		for _, n := range names {
			v.Params[n] = c.Param(n)
		}
	}
	return c.JSON(http.StatusOK, v)
}

// Page renders an unguarded view such as login or reset-password.
func (h *Shell) Page(view string) echo.HandlerFunc {
	return func(c echo.Context) error { return h.render(c, view) }
}

// Guarded renders a route from the navigation table.  The route guard has
// already run.
func (h *Shell) Guarded(r routeguard.Route) echo.HandlerFunc {
	return func(c echo.Context) error { return h.render(c, r.View) }
}

// Root sends a user with a known role to their landing view and renders a
// generic home otherwise.
func (h *Shell) Root(c echo.Context) error {
	if p := model.LandingPath(h.Session.Snapshot().Role()); p != session.ViewRoot {
		return c.Redirect(http.StatusFound, p)
	}
	return h.render(c, "home")
}

// OAuthRedirect completes a third-party sign-in and redirects to the
// destination the session picks.
func (h *Shell) OAuthRedirect(c echo.Context) error {
	dest := h.Session.CompleteOAuth(c.Request().Context(), c.QueryParam(session.OAuthTokenParam))
	return c.Redirect(http.StatusFound, dest)
}
