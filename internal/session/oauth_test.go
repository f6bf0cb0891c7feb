package session

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)
	return s
}

func payload(t *testing.T, token string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"accessToken": token})
	require.NoError(t, err)
	return string(b)
}

func TestParseOAuthToken_Claims(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "9", "email": "o@b.com", "name": "O", "role": "student"})
	got, u, err := parseOAuthToken(payload(t, tok))
	require.NoError(t, err)
	assert.Equal(t, tok, got)
	assert.Equal(t, model.User{ID: 9, Email: "o@b.com", Name: "O", Role: model.RoleStudent}, u)

	tok = signedToken(t, jwt.MapClaims{"id": 4, "role": "GUEST"})
	_, u, err = parseOAuthToken(payload(t, tok))
	require.NoError(t, err)
	assert.Equal(t, model.UserID(4), u.ID)
	assert.Equal(t, model.Role(""), u.Role)
}

func TestCompleteOAuth_Success(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathMe, http.StatusOK, `{"id":9,"email":"o@b.com","name":"Server Name","role":"STUDENT"}`)
	s := h.store(t, OAuthCallbackPath)
	s.Bootstrap(context.Background())

	tok := signedToken(t, jwt.MapClaims{"sub": "9", "email": "o@b.com", "name": "Claimed", "role": "ADMIN"})
	next := s.CompleteOAuth(context.Background(), payload(t, tok))

	assert.Equal(t, ViewRoot, next)
	snap := s.Snapshot()
	assert.Equal(t, tok, snap.Token)
	require.NotNil(t, snap.User)
	// who-am-I is authoritative over the unverified claims
	assert.Equal(t, "Server Name", snap.User.Name)
	assert.Equal(t, model.RoleStudent, snap.User.Role)

	hdr, _ := h.bearer()
	assert.Equal(t, "Bearer "+tok, hdr)
	v, _ := h.persisted(t)
	assert.Equal(t, tok, v)
	assert.Equal(t, MsgLoginOK, h.lastNotification(t).Message)
}

func TestCompleteOAuth_MissingAccessToken(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, OAuthCallbackPath)
	s.Bootstrap(context.Background())

	next := s.CompleteOAuth(context.Background(), `{"refreshToken":"r"}`)

	assert.Equal(t, ViewLogin, next)
	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	_, present := h.bearer()
	assert.False(t, present)
	n := h.lastNotification(t)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, MsgOAuthFailed, n.Message)
	assert.Equal(t, 0, h.backend.callCount(PathMe))
}

// Tokens must carry three segments and an alg header even though the
// signature is not checked here.
func TestCompleteOAuth_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":        `accessToken=abc`,
		"empty":           ``,
		"token not a jwt": `{"accessToken":"abc"}`,
		"bad segment":     `{"accessToken":"aaa.!!!.ccc"}`,
		"no alg header":   `{"accessToken":"eyJ0eXAiOiJKV1QifQ.eyJzdWIiOiIxIn0.c2ln"}`,
		"two segments":    `{"accessToken":"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxIn0"}`,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			s := h.store(t, OAuthCallbackPath)
			s.Bootstrap(context.Background())

			assert.Equal(t, ViewLogin, s.CompleteOAuth(context.Background(), raw))
			snap := s.Snapshot()
			assert.Empty(t, snap.Token)
			assert.Nil(t, snap.User)
			assert.Equal(t, MsgOAuthMalformed, h.lastNotification(t).Message)
			assert.Equal(t, 0, h.backend.callCount(PathMe))
		})
	}
}

func TestCompleteOAuth_MalformedKeepsPriorSession(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")
	require.True(t, s.Login(context.Background(), "a@b.com", "secret"))

	assert.Equal(t, ViewLogin, s.CompleteOAuth(context.Background(), `{}`))
	assert.Equal(t, "xyz", s.Snapshot().Token)
}

func TestCompleteOAuth_RejectedByBackend(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathMe, http.StatusUnauthorized, `{"message":"invalid token"}`)
	s := h.store(t, OAuthCallbackPath)
	s.Bootstrap(context.Background())

	tok := signedToken(t, jwt.MapClaims{"sub": "9", "role": "ADMIN"})
	assert.Equal(t, ViewLogin, s.CompleteOAuth(context.Background(), payload(t, tok)))

	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	_, present := h.bearer()
	assert.False(t, present)
	_, persisted := h.persisted(t)
	assert.False(t, persisted)
	assert.Equal(t, MsgOAuthFailed, h.lastNotification(t).Message)
}
