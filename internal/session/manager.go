package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "opsdesk/internal/log"
)

const DefaultCookieName = "opsdesk_sid"

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session is a loaded visitor session. Handlers mutate State and call
// Manager.Save before writing the response.
type Session struct {
	ID string
	State

	fresh bool
}

// Manager maps the session cookie to stored state.
type Manager struct {
	store  Store
	opts   Options
	logger *applog.Logger
}

func NewManager(store Store, opts Options, logger *applog.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{store: store, opts: opts, logger: logger.WithComponent(applog.ComponentSession)}
}

// Load returns the visitor's session. Unknown, expired or malformed ids get a
// new session with a freshly generated id, never the one the client sent.
func (m *Manager) Load(r *http.Request) *Session {
	ctx := r.Context()
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			st, err := m.store.Load(ctx, c.Value)
			if err == nil {
				return &Session{ID: c.Value, State: st}
			}
			if !errors.Is(err, ErrNotFound) {
				m.logger.WarnContextErr(ctx, "Failed to load session", err)
			}
		}
	}
	return &Session{ID: uuid.NewString(), fresh: true}
}

// Save stores the state and refreshes the cookie. A new session with nothing
// in it is not persisted.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.fresh && s.State.empty() {
		return nil
	}
	if err := m.store.Save(r.Context(), s.ID, s.State); err != nil {
		return err
	}
	s.fresh = false
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes the stored session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.store.Delete(r.Context(), s.ID)
}

// RunPurge removes expired sessions every interval until ctx is done.
func (m *Manager) RunPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.Purge(ctx)
			if err != nil {
				m.logger.WarnContextErr(ctx, "Session purge failed", err)
				continue
			}
			if n > 0 {
				m.logger.DebugContext(ctx, "Purged expired sessions", "count", n)
			}
		}
	}
}
