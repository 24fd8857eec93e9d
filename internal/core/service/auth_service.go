package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridpoint/auth-api/internal/core/domain"
	"github.com/gridpoint/auth-api/internal/core/ports"
)

// AuthService implements registration, login, logout, and session identity
// resolution on top of the user repository, session store, and password
// hasher.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	audit    ports.AuditRecorder
	metrics  ports.MetricsRecorder
	log      zerolog.Logger
}

// NewAuthService wires an AuthService. audit and metrics may be nil, in
// which case those signals are silently discarded.
func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	hasher ports.PasswordHasher,
	audit ports.AuditRecorder,
	metrics ports.MetricsRecorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		audit:    audit,
		metrics:  metrics,
		log:      log,
	}
}

// Register creates a new account on behalf of an authenticated admin.
//
// Checks run in a fixed order so the HTTP boundary reports the right
// failure: authentication, role, field presence, uniqueness (username
// before email), role parsing. The uniqueness pre-checks give deterministic
// errors; the unique constraints behind Create still decide races between
// concurrent registrations.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, in ports.RegisterInput) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrAuthRequired
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}

	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: check email: %w", err)
	}

	role := domain.RoleUser
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UserRegistered(string(created.Role))
	}
	s.record(ctx, domain.AuditEntry{
		Event:    domain.AuditUserRegistered,
		Username: created.Username,
		UserID:   created.ID,
		ActorID:  actor.ID,
	})
	s.log.Info().
		Str("username", created.Username).
		Str("role", string(created.Role)).
		Str("actor_id", actor.ID).
		Msg("user registered")

	return created, nil
}

// Login verifies credentials and opens a session. An unknown username and a
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string, remember bool) (string, *domain.User, error) {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return "", nil, domain.NewValidationError(missing...)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, s.loginRejected(ctx, username)
		}
		return "", nil, fmt.Errorf("login: find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, s.loginRejected(ctx, username)
	}

	token, err := s.sessions.Create(ctx, user.ID, remember)
	if err != nil {
		return "", nil, fmt.Errorf("login: create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.LoginSucceeded(remember)
	}
	s.record(ctx, domain.AuditEntry{
		Event:    domain.AuditLoginSuccess,
		Username: user.Username,
		UserID:   user.ID,
	})
	s.log.Info().Str("username", user.Username).Bool("remember", remember).Msg("login succeeded")

	return token, user, nil
}

// loginRejected funnels every credential failure through one path so the
// returned error carries no hint about which check failed.
func (s *AuthService) loginRejected(ctx context.Context, username string) error {
	if s.metrics != nil {
		s.metrics.LoginFailed()
	}
	s.record(ctx, domain.AuditEntry{
		Event:    domain.AuditLoginFailure,
		Username: username,
	})
	s.log.Warn().Str("username", username).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

// Logout destroys the actor's session. The call is idempotent: a token that
// is already invalid destroys cleanly.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, token string) error {
	if actor == nil {
		return domain.ErrAuthRequired
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("logout: destroy session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SessionDestroyed()
	}
	s.record(ctx, domain.AuditEntry{
		Event:    domain.AuditLogout,
		Username: actor.Username,
		UserID:   actor.ID,
	})
	return nil
}

// Identify resolves a session token to its user. Every failure collapses to
// ErrAuthRequired; unexpected store errors are returned as-is and surface
// as 5xx.
func (s *AuthService) Identify(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionInvalid) {
			return nil, domain.ErrAuthRequired
		}
		return nil, fmt.Errorf("identify: resolve session: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Orphaned binding: the user vanished under the session.
			_ = s.sessions.Destroy(ctx, token)
			return nil, domain.ErrAuthRequired
		}
		return nil, fmt.Errorf("identify: find user: %w", err)
	}
	return user, nil
}

// EnsureAdmin seeds an admin account if the username does not exist yet.
// Intended for startup bootstrap only; a no-op when the account is present.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, passwordPlain string) error {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(passwordPlain)
	if err != nil {
		return fmt.Errorf("ensure admin: hash password: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateUsername) && !errors.Is(err, domain.ErrDuplicateEmail) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if err == nil {
		s.log.Info().Str("username", username).Msg("bootstrap admin created")
	}
	return nil
}

func (s *AuthService) record(ctx context.Context, entry domain.AuditEntry) {
	if s.audit == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	s.audit.Record(ctx, entry)
}
