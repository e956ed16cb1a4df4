package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Namespace binds the session lifecycle to one identity kind.
type Namespace struct {
	Role       model.Role
	TokenKey   string
	ProfileKey string
	// IDKey, when set, mirrors the profile id for callers that only need the id.
	IDKey string
	// LegacyKeys are only ever removed.
	LegacyKeys  []string
	LoginTopic  bus.Topic
	LogoutTopic bus.Topic
}

var (
	UserNamespace = Namespace{
		Role:        model.RoleUser,
		TokenKey:    model.KeyToken,
		ProfileKey:  model.KeyUserProfile,
		LegacyKeys:  []string{model.KeyLegacyUser},
		LoginTopic:  bus.TopicUserLogin,
		LogoutTopic: bus.TopicUserLogout,
	}
	SellerNamespace = Namespace{
		Role:        model.RoleSeller,
		TokenKey:    model.KeySellerToken,
		ProfileKey:  model.KeySellerInfo,
		IDKey:       model.KeySellerID,
		LoginTopic:  bus.TopicSellerLogin,
		LogoutTopic: bus.TopicSellerLogout,
	}
)

func (ns Namespace) keys() []string {
	keys := []string{ns.TokenKey, ns.ProfileKey}
	if ns.IDKey != "" {
		keys = append(keys, ns.IDKey)
	}
	return append(keys, ns.LegacyKeys...)
}

// Session manages one token and profile pair in the store and keeps an
// in-memory mirror of it up to date.
type Session struct {
	ns        Namespace
	store     *kv.Store
	bus       *bus.Bus
	inspector model.TokenInspector
	logger    *logger.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current *model.AuthSession
	sub     *bus.Subscription
	bindCtx context.Context
}

// NewSession creates a Session for ns. inspector may be nil.
func NewSession(
	ns Namespace,
	store *kv.Store,
	bus *bus.Bus,
	inspector model.TokenInspector,
	logger *logger.Logger,
) *Session {
	return &Session{
		ns:        ns,
		store:     store,
		bus:       bus,
		inspector: inspector,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Session) Namespace() Namespace {
	return s.ns
}

// Load reads the stored pair and refreshes the mirror. A pair with either half
// missing is reported as model.ErrUnauthenticated. A profile that does not parse
// is deleted together with its token.
func (s *Session) Load(ctx context.Context) (model.AuthSession, error) {
	sess, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			s.setCurrent(nil)
		}
		return model.AuthSession{}, err
	}
	s.setCurrent(&sess)
	return sess, nil
}

func (s *Session) read(ctx context.Context) (model.AuthSession, error) {
	profile, err := kv.GetJSON[model.Profile](ctx, s.store, s.ns.ProfileKey)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.AuthSession{}, model.ErrUnauthenticated
	case errors.Is(err, model.ErrMalformedRecord):
		s.logger.Warn("Session service: discarding unreadable profile", "role", s.ns.Role, "error", err)
		if err := s.store.Remove(ctx, s.ns.keys()...); err != nil {
			return model.AuthSession{}, fmt.Errorf("failed to clear corrupted session: %w", err)
		}
		return model.AuthSession{}, model.ErrUnauthenticated
	case err != nil:
		return model.AuthSession{}, fmt.Errorf("failed to read profile: %w", err)
	}

	tok, err := s.store.Get(ctx, s.ns.TokenKey)
	if errors.Is(err, model.ErrNotFound) || (err == nil && tok == "") {
		return model.AuthSession{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to read token: %w", err)
	}

	if s.inspector != nil {
		if claims, err := s.inspector.Inspect(tok); err == nil && claims.Expired(s.now()) {
			s.logger.Info("Session service: stored token has expired", "role", s.ns.Role, "expired_at", claims.ExpiresAt)
		}
	}
	return model.AuthSession{Token: tok, Profile: profile}, nil
}

// Login stores profile and token and announces the new session.
func (s *Session) Login(ctx context.Context, profile model.Profile, token string) (model.AuthSession, error) {
	if profile.Role == "" {
		profile.Role = s.ns.Role
	}
	if err := profile.Validate(); err != nil {
		return model.AuthSession{}, fmt.Errorf("invalid profile: %w", err)
	}

	if err := kv.SetJSON(ctx, s.store, s.ns.ProfileKey, profile); err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to store profile: %w", err)
	}
	if err := s.store.Set(ctx, s.ns.TokenKey, token); err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to store token: %w", err)
	}
	if s.ns.IDKey != "" {
		id := profile.ID
		if id == "" {
			id = profile.UserID
		}
		if id != "" {
			if err := s.store.Set(ctx, s.ns.IDKey, id); err != nil {
				return model.AuthSession{}, fmt.Errorf("failed to store %s: %w", s.ns.IDKey, err)
			}
		}
	}

	sess := model.AuthSession{Token: token, Profile: profile}
	s.setCurrent(&sess)
	s.logger.Debug("Session service: logged in", "role", s.ns.Role, "id", profile.ID)
	s.bus.PublishSession(s.ns.LoginTopic, model.SessionChange{Role: s.ns.Role, Session: &sess})
	return sess, nil
}

// Logout removes every key of the namespace and announces the logout.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, s.ns.keys()...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.setCurrent(nil)
	s.logger.Debug("Session service: logged out", "role", s.ns.Role)
	s.bus.PublishSession(s.ns.LogoutTopic, model.SessionChange{Role: s.ns.Role})
	return nil
}

// Expire is Logout for a session the API rejected.
func (s *Session) Expire(ctx context.Context) error {
	s.logger.Info("Session service: session rejected by server, clearing", "role", s.ns.Role)
	return s.Logout(ctx)
}

// Token reads the token straight from the store, so writes made elsewhere
// are visible at once. An absent token is model.ErrUnauthenticated.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.store.Get(ctx, s.ns.TokenKey)
	if errors.Is(err, model.ErrNotFound) || (err == nil && tok == "") {
		return "", model.ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return tok, nil
}

// Profile reads the stored profile without touching the mirror.
func (s *Session) Profile(ctx context.Context) (model.Profile, error) {
	p, err := kv.GetJSON[model.Profile](ctx, s.store, s.ns.ProfileKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrMalformedRecord) {
			return model.Profile{}, model.ErrUnauthenticated
		}
		return model.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return p, nil
}

// Require is the route guard: it returns the stored session or
// model.ErrUnauthenticated, on which callers send the user to the login screen.
func (s *Session) Require(ctx context.Context) (model.AuthSession, error) {
	return s.Load(ctx)
}

// Current returns the mirrored session, or nil when logged out.
func (s *Session) Current() *model.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

func (s *Session) setCurrent(sess *model.AuthSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.current = nil
		return
	}
	c := *sess
	s.current = &c
}

// Bind loads the mirror and keeps it current from login, logout and storage
// events until Close. ctx is used for the reloads triggered by storage events.
func (s *Session) Bind(ctx context.Context) error {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return nil
	}
	s.bindCtx = ctx
	s.sub = s.bus.Subscribe(s.handle, s.ns.LoginTopic, s.ns.LogoutTopic, bus.TopicStorage)
	s.mu.Unlock()

	if _, err := s.Load(ctx); err != nil && !errors.Is(err, model.ErrUnauthenticated) {
		return err
	}
	return nil
}

func (s *Session) handle(e bus.Event) {
	switch e.Topic {
	case s.ns.LoginTopic, s.ns.LogoutTopic:
		if e.Session != nil {
			s.setCurrent(e.Session.Session)
		}
	case bus.TopicStorage:
		if e.Storage == nil || !slices.Contains(s.ns.keys(), e.Storage.Key) {
			return
		}
		s.mu.RLock()
		ctx := s.bindCtx
		s.mu.RUnlock()
		if _, err := s.Load(ctx); err != nil && !errors.Is(err, model.ErrUnauthenticated) {
			s.logger.Error("Session service: failed to reload after storage change", "role", s.ns.Role, "error", err)
		}
	}
}

// Close releases the subscription made by Bind.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}
