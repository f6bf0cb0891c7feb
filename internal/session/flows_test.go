package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/storage"
)

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")
	s.Bootstrap(context.Background())

	ok := s.Login(context.Background(), "a@b.com", "secret")
	require.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, "xyz", snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, model.User{ID: 1, Email: "a@b.com", Name: "A", Role: model.RoleInstructor}, *snap.User)
	assert.True(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Error)

	v, persisted := h.persisted(t)
	assert.True(t, persisted)
	assert.Equal(t, "xyz", v)

	hdr, present := h.bearer()
	assert.True(t, present)
	assert.Equal(t, "Bearer xyz", hdr)

	assert.Equal(t, "/instructor", model.LandingPath(snap.Role()))

	n := h.lastNotification(t)
	assert.Equal(t, notify.LevelSuccess, n.Level)
	assert.Equal(t, MsgLoginOK, n.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathLogin, http.StatusUnauthorized, `{"message":"Invalid email or password"}`)
	s := h.store(t, "/login")
	s.Bootstrap(context.Background())

	ok := s.Login(context.Background(), "a@b.com", "wrong")
	assert.False(t, ok)

	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, "Invalid email or password", snap.Error)

	_, persisted := h.persisted(t)
	assert.False(t, persisted)
	_, present := h.bearer()
	assert.False(t, present)

	n := h.lastNotification(t)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Equal(t, "Invalid email or password", n.Message)
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")
	require.True(t, s.Login(context.Background(), "a@b.com", "secret"))

	h.backend.set(PathLogin, http.StatusUnauthorized, `{"error":"invalid credentials"}`)
	assert.False(t, s.Login(context.Background(), "a@b.com", "wrong"))

	snap := s.Snapshot()
	assert.Equal(t, "xyz", snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, "invalid credentials", snap.Error)
	hdr, _ := h.bearer()
	assert.Equal(t, "Bearer xyz", hdr)
}

func TestLogin_ErrorClearedOnNextFlow(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathLogin, http.StatusUnauthorized, `{"message":"nope"}`)
	s := h.store(t, "/login")
	require.False(t, s.Login(context.Background(), "a@b.com", "x"))
	require.Equal(t, "nope", s.Snapshot().Error)

	h.backend.set(PathLogin, http.StatusOK, `{"accessToken":"t2","id":2,"email":"s@b.com","name":"S","role":"STUDENT"}`)
	require.True(t, s.Login(context.Background(), "s@b.com", "x"))
	assert.Empty(t, s.Snapshot().Error)
}

func TestLogin_NetworkErrorUsesGenericMessage(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")
	h.server.Close()

	assert.False(t, s.Login(context.Background(), "a@b.com", "secret"))
	assert.Equal(t, MsgNetworkError, s.Snapshot().Error)
	assert.Equal(t, MsgNetworkError, h.lastNotification(t).Message)
}

func TestLogin_UnstructuredErrorUsesGenericMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathLogin, http.StatusBadGateway, `<html>bad gateway</html>`)
	s := h.store(t, "/login")

	assert.False(t, s.Login(context.Background(), "a@b.com", "secret"))
	assert.Equal(t, MsgNetworkError, s.Snapshot().Error)
}

func TestLogin_ResponseWithoutToken(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathLogin, http.StatusOK, `{"id":1,"email":"a@b.com"}`)
	s := h.store(t, "/login")

	assert.False(t, s.Login(context.Background(), "a@b.com", "secret"))
	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.NotEmpty(t, snap.Error)
}

func TestLogout_ClearsEverythingAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")
	require.True(t, s.Login(context.Background(), "a@b.com", "secret"))

	s.Logout(context.Background())
	first := s.Snapshot()
	assert.Empty(t, first.Token)
	assert.Nil(t, first.User)
	assert.Empty(t, first.Error)
	assert.False(t, first.IsAuthenticated)
	_, present := h.bearer()
	assert.False(t, present)
	_, persisted := h.persisted(t)
	assert.False(t, persisted)
	assert.Equal(t, MsgLogoutOK, h.lastNotification(t).Message)

	s.Logout(context.Background())
	assert.Equal(t, first, s.Snapshot())
	_, present = h.bearer()
	assert.False(t, present)
}

func TestLogout_ClearsStrayHeader(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/")
	h.client.SetBearer("stray")

	s.Logout(context.Background())
	_, present := h.bearer()
	assert.False(t, present)
}

func TestLogoutWhileLoginInFlight(t *testing.T) {
	h := newHarness(t)
	h.backend.gate(PathLogin)
	s := h.store(t, "/login")

	done := make(chan bool)
	go func() { done <- s.Login(context.Background(), "a@b.com", "secret") }()

	<-h.backend.started
	s.Logout(context.Background())
	close(h.backend.release)

	assert.False(t, <-done)
	snap := s.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	_, present := h.bearer()
	assert.False(t, present)
	_, persisted := h.persisted(t)
	assert.False(t, persisted)
}

func TestRegister_MatchesDirectLogin(t *testing.T) {
	direct := newHarness(t)
	ds := direct.store(t, "/login")
	require.True(t, ds.Login(context.Background(), "a@b.com", "secret"))

	h := newHarness(t)
	s := h.store(t, "/register")
	require.True(t, s.Register(context.Background(), "A", "a@b.com", "secret", "instructor"))

	assert.Equal(t, ds.Snapshot().User, s.Snapshot().User)
	assert.Equal(t, ds.Snapshot().Token, s.Snapshot().Token)
	assert.Equal(t, 1, h.backend.callCount(PathRegister))
	assert.Equal(t, 1, h.backend.callCount(PathLogin))

	dh, _ := direct.bearer()
	rh, _ := h.bearer()
	assert.Equal(t, dh, rh)
}

func TestRegister_ServerRejects(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathRegister, http.StatusConflict, `{"message":"Email is already in use"}`)
	s := h.store(t, "/register")

	assert.False(t, s.Register(context.Background(), "A", "a@b.com", "secret", "STUDENT"))
	assert.Equal(t, "Email is already in use", s.Snapshot().Error)
	assert.Equal(t, 0, h.backend.callCount(PathLogin))
}

func TestRegister_LoginFailsAfterAccountCreated(t *testing.T) {
	h := newHarness(t)
	h.backend.set(PathLogin, http.StatusServiceUnavailable, `{"message":"try later"}`)
	s := h.store(t, "/register")

	assert.False(t, s.Register(context.Background(), "A", "a@b.com", "secret", "STUDENT"))
	assert.Equal(t, 1, h.backend.callCount(PathRegister))
	assert.Equal(t, "try later", s.Snapshot().Error)
	assert.Empty(t, s.Snapshot().Token)
}

func TestRegister_InvalidRole(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/register")

	assert.False(t, s.Register(context.Background(), "A", "a@b.com", "secret", "OWNER"))
	assert.Equal(t, MsgInvalidRole, s.Snapshot().Error)
	assert.Equal(t, 0, h.backend.callCount(PathRegister))
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/")
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNotAuthenticated)

	require.True(t, s.Login(context.Background(), "a@b.com", "secret"))
	h.backend.set(PathMe, http.StatusOK, `{"id":1,"email":"a@b.com","name":"Renamed","role":"INSTRUCTOR"}`)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, "Renamed", s.Snapshot().User.Name)
	assert.Equal(t, "Bearer xyz", h.backend.lastAuth(PathMe))

	h.backend.set(PathMe, http.StatusInternalServerError, `{"message":"db down"}`)
	require.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, "xyz", s.Snapshot().Token)

	h.backend.set(PathMe, http.StatusUnauthorized, `{"message":"expired"}`)
	err := s.Refresh(context.Background())
	apiErr, ok := httpclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Empty(t, s.Snapshot().Token)
	_, present := h.bearer()
	assert.False(t, present)
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t)
	s := h.store(t, "/login")

	var seen []Snapshot
	unsub := s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })

	s.Bootstrap(context.Background())
	require.True(t, s.Login(context.Background(), "a@b.com", "secret"))
	s.Logout(context.Background())
	unsub()
	s.Logout(context.Background())

	require.Len(t, seen, 3)
	assert.False(t, seen[0].Loading)
	assert.True(t, seen[1].IsAuthenticated)
	require.NotNil(t, seen[1].User)
	assert.False(t, seen[2].IsAuthenticated)
}

func TestNew_PanicsWithoutDeps(t *testing.T) {
	assert.Panics(t, func() { New(context.Background(), Deps{Storage: storage.NewMemory()}) })
}
