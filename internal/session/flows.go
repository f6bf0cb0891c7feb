package session

import (
	"context"
	"errors"

	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/storage"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	ID          model.UserID `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Role        model.Role   `json:"role"`
}

func (r loginResponse) user() model.User {
	return model.User{ID: r.ID, Email: r.Email, Name: r.Name, Role: r.Role}
}

type registerRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// begin opens a credential flow: it clears the last error and returns the
// flow's generation.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	changed := s.lastErr != ""
	s.lastErr = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if changed {
		s.emit(snap)
	}
	return gen
}

func (s *Store) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// fail records a failed flow: error field, notification, log.  A stale
// flow only logs.
func (s *Store) fail(ctx context.Context, op string, gen uint64, msg string, cause error) {
	s.log.Warn("session: "+op+" failed", "error", cause)
	s.record(op, "failure")

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.lastErr = msg
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	s.notifier.Notify(ctx, notify.New(notify.LevelError, msg))
}

// establish installs token and user atomically: storage, session fields
// and the bearer header change under one lock.
func (s *Store) establish(ctx context.Context, op string, gen uint64, token string, u model.User) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Info("session: discarding stale "+op+" result")
		s.record(op, "superseded")
		return false
	}
	if err := s.storage.Set(ctx, storage.TokenKey, token); err != nil {
		// The in-memory session still works; the next launch starts anonymous.
		s.log.Warn("session: persist token", "error", err)
	}
	s.token = token
	s.user = &u
	s.lastErr = ""
	s.api.SetBearer(token)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record(op, "success")
	s.emit(snap)
	return true
}

func messageFor(err error) string {
	if msg, ok := httpclient.ServerMessage(err); ok {
		return msg
	}
	return MsgNetworkError
}

// Login exchanges credentials for a session.  It never returns an error:
// failure is reported through the return value, Snapshot().Error and an
// error notification.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	gen := s.begin()
	return s.login(ctx, gen, email, password)
}

func (s *Store) login(ctx context.Context, gen uint64, email, password string) bool {
	var resp loginResponse
	err := s.api.Post(ctx, PathLogin, loginRequest{Email: email, Password: password}, &resp)
	if err == nil && resp.AccessToken == "" {
		err = errMissingAccessToken
	}
	if err != nil {
		s.fail(ctx, "login", gen, messageFor(err), err)
		return false
	}
	if !s.establish(ctx, "login", gen, resp.AccessToken, resp.user()) {
		return false
	}
	s.notifier.Notify(ctx, notify.New(notify.LevelSuccess, MsgLoginOK))
	return true
}

// Register creates an account and then logs into it with the same
// credentials.  An account created server-side whose follow-up login
// fails still reports false.
func (s *Store) Register(ctx context.Context, name, email, password, role string) bool {
	gen := s.begin()
	r, ok := model.ParseRole(role)
	if !ok {
		s.fail(ctx, "register", gen, MsgInvalidRole, errors.New("invalid role "+role))
		return false
	}
	req := registerRequest{Name: name, Email: email, Password: password, Role: r}
	if err := s.api.Post(ctx, PathRegister, req, nil); err != nil {
		s.fail(ctx, "register", gen, messageFor(err), err)
		return false
	}
	s.record("register", "success")
	if !s.current(gen) {
		s.record("register", "superseded")
		return false
	}
	return s.login(ctx, gen, email, password)
}

// Logout drops the session locally.  It always succeeds and is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	s.lastErr = ""
	s.clearLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record("logout", "success")
	s.emit(snap)
	s.notifier.Notify(ctx, notify.New(notify.LevelSuccess, MsgLogoutOK))
}

// Refresh re-reads the user from who-am-I.  A 401/403 de-authenticates;
// transport failures leave the session as it is and return the error.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	token, gen := s.token, s.gen
	s.mu.Unlock()
	if token == "" {
		return ErrNotAuthenticated
	}

	var me model.User
	err := s.api.Get(ctx, PathMe, &me)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		apiErr, ok := httpclient.AsAPIError(err)
		if !ok || !apiErr.IsUnauthorized() {
			s.mu.Unlock()
			s.record("refresh", "failure")
			return err
		}
		s.clearLocked(ctx)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.record("refresh", "rejected")
		s.emit(snap)
		return err
	}
	s.user = &me
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record("refresh", "success")
	s.emit(snap)
	return nil
}

// Navigate records the client's current path.  Entering a reset-password
// path forces the unauthenticated posture; leaving it with a token that was
// never validated runs who-am-I before the token is trusted again.
func (s *Store) Navigate(ctx context.Context, path string) {
	if path == "" {
		path = ViewRoot
	}
	s.mu.Lock()
	was := s.resetFlow
	s.path = path
	s.resetFlow = IsResetPath(path)
	left := was && !s.resetFlow
	needsCheck := left && s.token != "" && s.user == nil && !s.loading
	changed := was != s.resetFlow
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.emit(snap)
	}
	if needsCheck {
		if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			// Unverifiable tokens are treated as absent.
			s.mu.Lock()
			if s.user == nil && s.token != "" {
				s.clearLocked(ctx)
			}
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.emit(snap)
		}
	}
}
