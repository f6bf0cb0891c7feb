package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
)

type oauthPayload struct {
	AccessToken string `json:"accessToken"`
}

// parseOAuthToken extracts the access token from the callback payload and
// decodes its claims without verifying the signature.  The claims are only
// good for an optimistic display; CompleteOAuth re-derives the user from
// who-am-I before returning.
func parseOAuthToken(raw string) (string, model.User, error) {
	var p oauthPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", model.User{}, fmt.Errorf("decode payload: %w", err)
	}
	token := strings.TrimSpace(p.AccessToken)
	if token == "" {
		return "", model.User{}, errMissingAccessToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", model.User{}, fmt.Errorf("decode token claims: %w", err)
	}
	return token, userFromClaims(claims), nil
}

func userFromClaims(c jwt.MapClaims) model.User {
	var u model.User
	for _, k := range []string{"id", "sub", "user_id"} {
		v, ok := c[k]
		if !ok {
			continue
		}
		b, _ := json.Marshal(v)
		var id model.UserID
		if json.Unmarshal(b, &id) == nil && id != 0 {
			u.ID = id
			break
		}
	}
	u.Email, _ = c["email"].(string)
	u.Name, _ = c["name"].(string)
	if r, ok := c["role"].(string); ok {
		if role, ok := model.ParseRole(r); ok {
			u.Role = role
		}
	}
	return u
}

// CompleteOAuth finishes a third-party sign-in redirect and returns the
// path the client should navigate to next.  raw is the JSON payload from
// the callback's token parameter.
//
// A malformed payload or one without accessToken leaves the session
// untouched and returns the login view.  Otherwise the token is installed
// exactly as Login would, the user is re-read from who-am-I, and the root
// view is returned; a token who-am-I rejects is dropped again.
func (s *Store) CompleteOAuth(ctx context.Context, raw string) string {
	token, claimed, err := parseOAuthToken(raw)
	if err != nil {
		msg := MsgOAuthMalformed
		if errors.Is(err, errMissingAccessToken) {
			msg = MsgOAuthFailed
		}
		s.log.Warn("session: oauth callback rejected", "error", err)
		s.record("oauth", "failure")
		s.notifier.Notify(ctx, notify.New(notify.LevelError, msg))
		return ViewLogin
	}

	gen := s.begin()
	if !s.establish(ctx, "oauth", gen, token, claimed) {
		return ViewLogin
	}

	if err := s.Refresh(ctx); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return ViewLogin
		}
		s.mu.Lock()
		if gen == s.gen {
			s.clearLocked(ctx)
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		s.log.Warn("session: oauth token failed validation", "error", err)
		s.record("oauth", "rejected")
		s.notifier.Notify(ctx, notify.New(notify.LevelError, MsgOAuthFailed))
		return ViewLogin
	}
	s.notifier.Notify(ctx, notify.New(notify.LevelSuccess, MsgLoginOK))
	return ViewRoot
}
