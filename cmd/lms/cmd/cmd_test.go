package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/database"
	"github.com/iliyamo/lms-client/internal/handler"
	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/repository"
	"github.com/iliyamo/lms-client/internal/router"
	"github.com/iliyamo/lms-client/internal/session"
)

func startBackend(t *testing.T, secret string) string {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repository.NewUserRepo(db, database.DriverSQLite)
	require.NoError(t, users.EnsureSchema(context.Background()))

	e := echo.New()
	cfg := config.MockAPIConfig{JWTSecret: secret, AccessTTLMin: 5, BcryptCost: bcrypt.MinCost}
	router.RegisterMockAPI(e, handler.NewAuthAPI(cfg, users, slog.New(slog.NewTextHandler(io.Discard, nil))), secret, nil)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	err = httpclient.New(srv.URL).Post(context.Background(), session.PathRegister,
		map[string]string{"name": "Ada", "email": "ada@example.com", "password": "pw", "role": "STUDENT"}, nil)
	require.NoError(t, err)
	return srv.URL
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	loginPassword = ""
	return out.String(), errOut.String(), err
}

func TestSessionCommands(t *testing.T) {
	t.Setenv("LMS_API_URL", startBackend(t, "s"))
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "storage.json"))
	t.Setenv("LOG_LEVEL", "error")

	_, _, err := execute(t, "", "whoami")
	assert.EqualError(t, err, "not logged in")

	_, stderr, err := execute(t, "", "login", "--email", "ada@example.com", "--password", "nope")
	assert.EqualError(t, err, "Invalid email or password")
	assert.Contains(t, stderr, "[error] Invalid email or password")

	out, stderr, err := execute(t, "pw\n", "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "ada@example.com"`)
	assert.Contains(t, stderr, "[success] Login successful")

	out, _, err = execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "STUDENT"`)

	_, stderr, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Logged out successfully")

	_, _, err = execute(t, "", "whoami")
	assert.EqualError(t, err, "not logged in")
}

func TestReadPassword(t *testing.T) {
	p, err := readPassword(strings.NewReader("secret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret", p)

	p, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", p)

	_, err = readPassword(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("warn").Enabled(ctx, slog.LevelInfo))
	assert.True(t, newLogger("bogus").Enabled(ctx, slog.LevelInfo))
}

func TestWhoami_KeepsTokenWhenBackendUnreachable(t *testing.T) {
	backend := startBackend(t, "s")
	t.Setenv("LMS_API_URL", backend)
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_PATH", filepath.Join(t.TempDir(), "storage.json"))
	t.Setenv("LOG_LEVEL", "error")

	_, _, err := execute(t, "", "login", "--email", "ada@example.com", "--password", "pw")
	require.NoError(t, err)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	t.Setenv("LMS_API_URL", down.URL)
	_, _, err = execute(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate session")

	t.Setenv("LMS_API_URL", backend)
	out, _, err := execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "ada@example.com"`)

	// a backend that cannot verify the token rejects it and it is dropped
	t.Setenv("LMS_API_URL", startBackend(t, "other-secret"))
	_, _, err = execute(t, "", "whoami")
	assert.EqualError(t, err, "not logged in")

	t.Setenv("LMS_API_URL", backend)
	_, _, err = execute(t, "", "whoami")
	assert.EqualError(t, err, "not logged in")
}
