package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/middleware"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/repository"
	"github.com/iliyamo/lms-client/internal/utils"
)

// MsgInvalidCredentials is the login rejection message.
const MsgInvalidCredentials = "Invalid email or password"

const dbTimeout = 5 * time.Second

// AuthAPI serves the reference backend's /api/auth endpoints.
type AuthAPI struct {
	Cfg    config.MockAPIConfig
	Users  *repository.UserRepo
	Logger *slog.Logger
}

func NewAuthAPI(cfg config.MockAPIConfig, users *repository.UserRepo, logger *slog.Logger) *AuthAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthAPI{Cfg: cfg, Users: users, Logger: logger}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	AccessToken string `json:"accessToken"`
	model.User
}

// Register creates the account; it does not log in.
func (h *AuthAPI) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "role must be one of ADMIN, INSTRUCTOR, STUDENT"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Name, req.Password, role, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
	}
	if err != nil {
		h.Logger.Error("mock-api: create user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}
	return c.JSON(http.StatusCreated, u.Public())
}

// Login verifies credentials and issues an access token.
func (h *AuthAPI) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": MsgInvalidCredentials})
	}
	if err != nil {
		h.Logger.Error("mock-api: load user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": MsgInvalidCredentials})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Public(), h.Cfg.AccessTTLMin)
	if err != nil {
		h.Logger.Error("mock-api: sign token", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue access failed"})
	}
	return c.JSON(http.StatusOK, loginResp{AccessToken: access.Token, User: u.Public()})
}

// Me returns the user behind the bearer token.  It runs behind JWTAuth.
func (h *AuthAPI) Me(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(model.UserID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		// token outlived its account
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	if err != nil {
		h.Logger.Error("mock-api: load user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}
