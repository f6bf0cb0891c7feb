package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/session"
)

var (
	loginEmail    string
	loginPassword string
)

var errNotLoggedIn = errors.New("not logged in")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session token",
	Long: `Log in against LMS_API_URL and store the access token in the configured
storage (STORAGE_DRIVER), where "lms serve" picks it up.

The password is read from stdin when --password is not given.

Examples:
  lms login --email ada@example.com
  echo secret | lms login --email ada@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			p, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			password = p
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if !c.store.Login(ctx, loginEmail, password) {
				return errors.New(c.store.Snapshot().Error)
			}
			return printUser(cmd.OutOrStdout(), c)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			c.store.Logout(ctx)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Validate the persisted session and print the user",
	Long: `Re-read the user behind the persisted token from LMS_API_URL.

A token the backend rejects (401/403) is removed from storage. When the
backend cannot be reached the token is kept and the command fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			err := c.store.Refresh(ctx)
			if errors.Is(err, session.ErrNotAuthenticated) {
				return errNotLoggedIn
			}
			if apiErr, ok := httpclient.AsAPIError(err); ok && apiErr.IsUnauthorized() {
				return errNotLoggedIn
			}
			if err != nil {
				return fmt.Errorf("validate session: %w", err)
			}
			return printUser(cmd.OutOrStdout(), c)
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// withClient runs fn with a session client whose notifications are printed
// to stderr.
func withClient(cmd *cobra.Command, fn func(context.Context, *client) error) error {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	toast := notify.Func(func(_ context.Context, n notify.Notification) {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Message)
	})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := newClient(ctx, cfg, logger, toast, nil, "/")
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func printUser(w io.Writer, c *client) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c.store.Snapshot().User)
}

func readPassword(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && f == os.Stdin {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
