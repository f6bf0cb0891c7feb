package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/database"
	"github.com/iliyamo/lms-client/internal/handler"
	"github.com/iliyamo/lms-client/internal/middleware"
	"github.com/iliyamo/lms-client/internal/repository"
	"github.com/iliyamo/lms-client/internal/router"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Run the reference auth backend",
	Long: `Run a development backend implementing POST /api/auth/register,
POST /api/auth/login and GET /api/auth/me.

Users live in DB_DRIVER/DB_DSN (sqlite by default). JWT_SECRET is
required. Auth routes are rate limited through Redis when one is
reachable (REDIS_* and RATE_LIMIT_*).`,
	RunE: runMockAPI,
}

func init() {
	rootCmd.AddCommand(mockAPICmd)
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadMockAPI()
	if err != nil {
		return err
	}
	logger := newLogger(config.Load().LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db, cfg.DBDriver)
	if err := users.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("users schema: %w", err)
	}

	var limiter echo.MiddlewareFunc
	rl := config.LoadRateLimitConfig()
	if rl.Enabled {
		if rdb := config.NewRedisClient(); rdb != nil {
			defer rdb.Close()
			limiter = middleware.NewTokenBucket(rl, rdb, logger)
		} else {
			logger.Warn("redis unreachable; rate limiting disabled")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(requestLogger(logger)))
	router.RegisterMockAPI(e, handler.NewAuthAPI(cfg, users, logger), cfg.JWTSecret, limiter)

	return run(ctx, e, ":"+cfg.Port, logger)
}
