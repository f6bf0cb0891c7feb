package session

import (
	"context"

	"github.com/iliyamo/lms-client/internal/model"
)

// Bootstrap reconciles the persisted token with the backend.  It runs
// once per Store; later calls return immediately.
//
// On a reset-password path validation is skipped and the token is kept.
// Otherwise a held token is checked against who-am-I: success fills the
// user, any failure de-authenticates silently.  Loading ends on every path.
func (s *Store) Bootstrap(ctx context.Context) {
	s.bootOnce.Do(func() { s.bootstrap(ctx) })
}

func (s *Store) bootstrap(ctx context.Context) {
	s.mu.Lock()
	path := s.path
	token := s.token
	gen := s.gen
	if IsResetPath(path) {
		s.resetFlow = true
		s.loading = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.log.Debug("session: bootstrap skipped on reset-password path", "path", path)
		s.record("bootstrap", "skipped")
		s.emit(snap)
		return
	}
	if token == "" {
		s.loading = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.record("bootstrap", "anonymous")
		s.emit(snap)
		return
	}
	s.mu.Unlock()

	var me model.User
	err := s.api.Get(ctx, PathMe, &me)

	s.mu.Lock()
	outcome := "validated"
	switch {
	case gen != s.gen:
		// A credential flow finished while validation was in flight; its
		// state is newer than anything this call could write.
		outcome = "superseded"
	case err == nil:
		s.user = &me
	default:
		onReset := IsResetPath(path)
		if s.recheck {
			onReset = IsResetPath(s.path)
		}
		if onReset {
			outcome = "kept"
		} else {
			outcome = "rejected"
			s.clearLocked(ctx)
		}
		s.log.Info("session: stored token failed validation", "error", err, "cleared", !onReset)
	}
	s.loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.record("bootstrap", outcome)
	s.emit(snap)
}
