package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/routeguard"
	"github.com/iliyamo/lms-client/internal/session"
)

// Session is what the shell middleware needs from *session.Store.
type Session interface {
	Snapshot() session.Snapshot
	Navigate(ctx context.Context, path string)
}

// TrackLocation reports every navigation to the session before any guard
// runs, so the reset-password posture follows the client's location.
func TrackLocation(s Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.Navigate(c.Request().Context(), c.Request().URL.Path)
			return next(c)
		}
	}
}

// RequireView applies the route guard: 204 while the session is loading,
// 302 to the decision's location, otherwise the wrapped view.
func RequireView(s Session, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := routeguard.Decide(s.Snapshot(), roles)
			switch d.Outcome {
			case routeguard.Pending:
				return c.NoContent(http.StatusNoContent)
			case routeguard.Redirect:
				return c.Redirect(http.StatusFound, d.Location)
			}
			return next(c)
		}
	}
}
