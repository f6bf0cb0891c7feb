package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/storage"
)

type reply struct {
	status int
	body   string
}

// fakeBackend stands in for the three auth endpoints.
type fakeBackend struct {
	mu       sync.Mutex
	login    reply
	register reply
	me       reply
	calls    map[string]int
	auth     map[string]string

	// When set, the handler for that path signals started and waits for
	// release before answering.
	gatePath string
	started  chan struct{}
	release  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		login:    reply{http.StatusOK, `{"accessToken":"xyz","id":1,"email":"a@b.com","name":"A","role":"INSTRUCTOR"}`},
		register: reply{http.StatusCreated, `{"id":1,"email":"a@b.com","name":"A","role":"INSTRUCTOR"}`},
		me:       reply{http.StatusOK, `{"id":1,"email":"a@b.com","name":"A","role":"INSTRUCTOR"}`},
		calls:    make(map[string]int),
		auth:     make(map[string]string),
	}
}

func (f *fakeBackend) set(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch path {
	case PathLogin:
		f.login = reply{status, body}
	case PathRegister:
		f.register = reply{status, body}
	case PathMe:
		f.me = reply{status, body}
	}
}

func (f *fakeBackend) gate(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gatePath = path
	f.started = make(chan struct{})
	f.release = make(chan struct{})
}

func (f *fakeBackend) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeBackend) lastAuth(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.auth[r.URL.Path] = r.Header.Get("Authorization")
	var rep reply
	switch r.URL.Path {
	case PathLogin:
		rep = f.login
	case PathRegister:
		rep = f.register
	case PathMe:
		rep = f.me
	default:
		rep = reply{http.StatusNotFound, `{"message":"not found"}`}
	}
	gated := f.gatePath == r.URL.Path
	started, release := f.started, f.release
	f.mu.Unlock()

	if gated {
		close(started)
		<-release
		// re-read: the test may have changed the reply while we waited
		f.mu.Lock()
		switch r.URL.Path {
		case PathLogin:
			rep = f.login
		case PathMe:
			rep = f.me
		}
		f.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

type harness struct {
	backend *fakeBackend
	server  *httptest.Server
	client  *httpclient.Client
	storage *storage.Memory
	center  *notify.Center
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := newFakeBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return &harness{
		backend: b,
		server:  srv,
		client:  httpclient.New(srv.URL),
		storage: storage.NewMemory(),
		center:  notify.NewCenter(20),
	}
}

func (h *harness) store(t *testing.T, path string) *Store {
	t.Helper()
	return h.storeWith(t, Deps{Path: path})
}

func (h *harness) storeWith(t *testing.T, d Deps) *Store {
	t.Helper()
	d.API = h.client
	d.Storage = h.storage
	d.Notifier = h.center
	d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(context.Background(), d)
}

func (h *harness) persist(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, h.storage.Set(context.Background(), storage.TokenKey, token))
}

func (h *harness) persisted(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := h.storage.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	return v, ok
}

func (h *harness) bearer() (string, bool) { return h.client.Header("Authorization") }

func (h *harness) lastNotification(t *testing.T) notify.Notification {
	t.Helper()
	recent := h.center.Recent()
	require.NotEmpty(t, recent)
	return recent[len(recent)-1]
}
