// Package session owns the client's authentication state: who is logged
// in, with which bearer token, and whether the user is in the middle of a
// password reset.  One Store exists per client instance; every consumer
// reads it through Snapshot or Subscribe and mutates it only through the
// credential flows (Login, Register, Logout, CompleteOAuth), Bootstrap and
// navigation.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/storage"
)

// Backend endpoints consumed by the session.
const (
	PathMe       = "/api/auth/me"
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
)

// Navigation paths the session recognizes.
const (
	ViewRoot            = "/"
	ViewLogin           = "/login"
	ResetPasswordPrefix = "/reset-password"
	OAuthCallbackPath   = "/oauth2/redirect"
	OAuthTokenParam     = "token"
)

// User-visible messages.
const (
	MsgNetworkError   = "Network error. Please try again."
	MsgLoginOK        = "Login successful"
	MsgLogoutOK       = "Logged out successfully"
	MsgInvalidRole    = "Please choose a valid role"
	MsgOAuthFailed    = "Authentication failed"
	MsgOAuthMalformed = "Failed to process authentication response"
)

var (
	// ErrNotAuthenticated is returned by Refresh when no token is held.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrSuperseded means another flow changed the session while a call
	// was in flight; the call's result was discarded.
	ErrSuperseded = errors.New("session: superseded by a newer operation")

	errMissingAccessToken = errors.New("response carries no accessToken")
)

// API is the slice of the shared HTTP client the session drives.
// *httpclient.Client satisfies it.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	SetBearer(token string)
	ClearBearer()
}

// Recorder observes session transitions; see internal/metrics.
type Recorder interface {
	Transition(op, outcome string)
	Authenticated(bool)
}

// Deps wires a Store.  API and Storage are required.
type Deps struct {
	API      API
	Storage  storage.Storage
	Notifier notify.Notifier
	Recorder Recorder
	Logger   *slog.Logger
	// Path is the navigation path the client starts on.
	Path string
	// RecheckResetPath makes Bootstrap consult the live navigation path,
	// instead of the one captured when it started, before clearing a
	// rejected token.
	RecheckResetPath bool
}

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	User                *model.User `json:"user"`
	Token               string      `json:"-"`
	IsPasswordResetFlow bool        `json:"isPasswordResetFlow"`
	Loading             bool        `json:"loading"`
	Error               string      `json:"error,omitempty"`
	IsAuthenticated     bool        `json:"isAuthenticated"`
	Path                string      `json:"path"`
}

// Role returns the user's role, or "" when no user is known.
func (s Snapshot) Role() model.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Store is the single source of truth for the client's session.
type Store struct {
	api      API
	storage  storage.Storage
	notifier notify.Notifier
	rec      Recorder
	log      *slog.Logger
	recheck  bool

	mu        sync.Mutex
	user      *model.User
	token     string
	resetFlow bool
	loading   bool
	lastErr   string
	path      string
	// gen increases on every credential flow and logout; an in-flight
	// call whose generation is stale must not apply its result.
	gen uint64

	bootOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New builds the Store, reading any persisted token eagerly.  The session
// starts loading until Bootstrap completes.
func New(ctx context.Context, d Deps) *Store {
	if d.API == nil || d.Storage == nil {
		panic("session: nil API or Storage passed to New")
	}
	s := &Store{
		api:      d.API,
		storage:  d.Storage,
		notifier: d.Notifier,
		rec:      d.Recorder,
		log:      d.Logger,
		recheck:  d.RecheckResetPath,
		loading:  true,
		path:     d.Path,
		subs:     make(map[int]func(Snapshot)),
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.path == "" {
		s.path = ViewRoot
	}
	s.resetFlow = IsResetPath(s.path)

	token, ok, err := s.storage.Get(ctx, storage.TokenKey)
	if err != nil {
		s.log.Warn("session: read persisted token", "error", err)
	}
	if ok && token != "" {
		s.token = token
		s.api.SetBearer(token)
	} else {
		s.api.ClearBearer()
	}
	return s
}

// IsResetPath reports whether path belongs to the password-reset flow.
func IsResetPath(path string) bool {
	return strings.HasPrefix(path, ResetPasswordPrefix)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:               s.token,
		IsPasswordResetFlow: s.resetFlow,
		Loading:             s.loading,
		Error:               s.lastErr,
		IsAuthenticated:     s.token != "" && !s.resetFlow,
		Path:                s.path,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Subscribe registers fn to receive a Snapshot after every completed
// transition.  Emission is synchronous, on the goroutine that performed
// the transition, after the session lock is released.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(snap Snapshot) {
	if s.rec != nil {
		s.rec.Authenticated(snap.IsAuthenticated)
	}
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) record(op, outcome string) {
	if s.rec != nil {
		s.rec.Transition(op, outcome)
	}
}

// clearLocked drops token, user and header and forgets the persisted
// token.  Callers hold s.mu.
func (s *Store) clearLocked(ctx context.Context) {
	s.token = ""
	s.user = nil
	if err := s.storage.Remove(ctx, storage.TokenKey); err != nil {
		s.log.Warn("session: remove persisted token", "error", err)
	}
	s.api.ClearBearer()
}
