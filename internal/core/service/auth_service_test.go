package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gridpoint/auth-api/internal/core/domain"
	"github.com/gridpoint/auth-api/internal/core/ports"
	"github.com/gridpoint/auth-api/internal/pkg/password"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by username
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrDuplicateUsername
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	created := cloneUser(user)
	r.nextID++
	created.ID = fmt.Sprintf("u-%d", r.nextID)
	r.users[created.Username] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.users[username]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubSessionStore struct {
	sessions map[string]string
	nextID   int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]string)}
}

func (s *stubSessionStore) Create(_ context.Context, userID string, _ bool) (string, error) {
	s.nextID++
	token := fmt.Sprintf("tok-%d", s.nextID)
	s.sessions[token] = userID
	return token, nil
}

func (s *stubSessionStore) Resolve(_ context.Context, token string) (string, error) {
	if userID, ok := s.sessions[token]; ok {
		return userID, nil
	}
	return "", domain.ErrSessionInvalid
}

func (s *stubSessionStore) Destroy(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type recordingAudit struct {
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry domain.AuditEntry) {
	r.entries = append(r.entries, entry)
}

type recordingMetrics struct {
	loginSuccesses int
	loginFailures  int
	remembers      []bool
	registered     []string
	destroyed      int
}

func (m *recordingMetrics) LoginSucceeded(remember bool) {
	m.loginSuccesses++
	m.remembers = append(m.remembers, remember)
}
func (m *recordingMetrics) LoginFailed() { m.loginFailures++ }

func (m *recordingMetrics) UserRegistered(role string) { m.registered = append(m.registered, role) }

func (m *recordingMetrics) SessionDestroyed() { m.destroyed++ }

type fixture struct {
	svc      *AuthService
	repo     *stubUserRepo
	sessions *stubSessionStore
	audit    *recordingAudit
	metrics  *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	audit := &recordingAudit{}
	m := &recordingMetrics{}
	svc := NewAuthService(repo, sessions, password.NewBcryptHasher(4), audit, m, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, sessions: sessions, audit: audit, metrics: m}
}

// admin seeds an admin account directly into the stub repo and returns it.
func (f *fixture) admin(t *testing.T) *domain.User {
	t.Helper()
	if err := f.svc.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	u, err := f.repo.FindByUsername(context.Background(), "root")
	if err != nil {
		t.Fatalf("admin lookup failed: %v", err)
	}
	return u
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	user, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.PasswordHash == "pw123" || user.PasswordHash == "" {
		t.Fatalf("password was not hashed: %q", user.PasswordHash)
	}
	if user.ID == "" {
		t.Fatalf("expected assigned id")
	}
}

func TestRegister_RequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Register(context.Background(), nil, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	}); err != domain.ErrAuthRequired {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestRegister_RequiresAdminRole(t *testing.T) {
	f := newFixture(t)
	actor := &domain.User{ID: "u-9", Username: "bob", Role: domain.RoleUser}

	if _, err := f.svc.Register(context.Background(), actor, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	}); err != domain.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	_, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{Username: "alice"})
	ve, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 || ve.Fields[0] != "email" || ve.Fields[1] != "password" {
		t.Fatalf("unexpected missing fields: %v", ve.Fields)
	}
}

func TestRegister_DuplicateUsernameBeforeEmail(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	// Same username and same email: the username conflict must win.
	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "other",
	}); err != domain.ErrDuplicateUsername {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice2", Email: "a@x.com", Password: "other",
	}); err != domain.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123", Role: "superuser",
	}); err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRegister_MixedCaseRole(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	user, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123", Role: "ADMIN",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected role admin, got %s", user.Role)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := f.svc.Login(context.Background(), "alice", "pw123", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected session token")
	}
	if user.Username != "alice" || user.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Login(context.Background(), "", "", false)
	ve, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("unexpected missing fields: %v", ve.Fields)
	}
}

func TestLogin_UnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	if _, err := f.svc.Register(context.Background(), admin, ports.RegisterInput{
		Username: "realuser", Email: "r@x.com", Password: "rightpw",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, errUnknown := f.svc.Login(context.Background(), "nonexistent", "anything", false)
	_, _, errWrong := f.svc.Login(context.Background(), "realuser", "wrongpassword", false)

	if errUnknown != domain.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if errWrong != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("error shapes differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)

	token, user, err := f.svc.Login(context.Background(), "root", "rootpass", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := f.svc.Identify(context.Background(), token); err != nil {
		t.Fatalf("identify before logout failed: %v", err)
	}

	if err := f.svc.Logout(context.Background(), user, token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.svc.Identify(context.Background(), token); err != domain.ErrAuthRequired {
		t.Fatalf("expected ErrAuthRequired after logout, got %v", err)
	}

	// Logging out an already-destroyed token is still not an error.
	if err := f.svc.Logout(context.Background(), admin, token); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
}

func TestIdentify_EmptyToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Identify(context.Background(), ""); err != domain.ErrAuthRequired {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestIdentify_OrphanedSession(t *testing.T) {
	f := newFixture(t)
	f.sessions.sessions["tok-ghost"] = "u-gone"

	if _, err := f.svc.Identify(context.Background(), "tok-ghost"); err != domain.ErrAuthRequired {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, ok := f.sessions.sessions["tok-ghost"]; ok {
		t.Fatalf("orphaned session was not destroyed")
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.admin(t)

	if err := f.svc.EnsureAdmin(context.Background(), "root", "root@example.com", "changed"); err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	// The existing account is untouched: the original password still works.
	if _, _, err := f.svc.Login(context.Background(), "root", "rootpass", false); err != nil {
		t.Fatalf("login with original password failed: %v", err)
	}
}

// Full walkthrough: admin logs in, registers alice, alice logs in, checks
// status, and is denied registration rights.
func TestEndToEndFlow(t *testing.T) {
	f := newFixture(t)
	f.admin(t)
	ctx := context.Background()

	adminToken, _, err := f.svc.Login(ctx, "root", "rootpass", true)
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	adminUser, err := f.svc.Identify(ctx, adminToken)
	if err != nil {
		t.Fatalf("admin identify failed: %v", err)
	}

	if _, err := f.svc.Register(ctx, adminUser, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	}); err != nil {
		t.Fatalf("register alice failed: %v", err)
	}

	aliceToken, _, err := f.svc.Login(ctx, "alice", "pw123", false)
	if err != nil {
		t.Fatalf("alice login failed: %v", err)
	}
	alice, err := f.svc.Identify(ctx, aliceToken)
	if err != nil {
		t.Fatalf("alice identify failed: %v", err)
	}
	if alice.Role != domain.RoleUser {
		t.Fatalf("expected alice role user, got %s", alice.Role)
	}

	if _, err := f.svc.Register(ctx, alice, ports.RegisterInput{
		Username: "mallory", Email: "m@x.com", Password: "pw",
	}); err != domain.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied for alice, got %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.admin(t)
	ctx := context.Background()

	token, user, err := f.svc.Login(ctx, "root", "rootpass", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	_, _, _ = f.svc.Login(ctx, "root", "badpass", false)
	if err := f.svc.Logout(ctx, user, token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	events := make([]string, 0, len(f.audit.entries))
	for _, e := range f.audit.entries {
		events = append(events, e.Event)
		if e.At.IsZero() {
			t.Fatalf("audit entry %s has zero timestamp", e.Event)
		}
	}
	want := []string{domain.AuditLoginSuccess, domain.AuditLoginFailure, domain.AuditLogout}
	if len(events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, events)
		}
	}
}

func TestMetrics_CountOutcomes(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, admin, ports.RegisterInput{
		Username: "alice", Email: "a@x.com", Password: "pw123", Role: "admin",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := f.svc.Login(ctx, "alice", "pw123", true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	_, _, _ = f.svc.Login(ctx, "alice", "badpass", false)
	_, _, _ = f.svc.Login(ctx, "nobody", "pw", false)
	if err := f.svc.Logout(ctx, user, token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	m := f.metrics
	if m.loginSuccesses != 1 || len(m.remembers) != 1 || !m.remembers[0] {
		t.Fatalf("expected one remembered login success, got %d (%v)", m.loginSuccesses, m.remembers)
	}
	if m.loginFailures != 2 {
		t.Fatalf("expected 2 login failures, got %d", m.loginFailures)
	}
	if len(m.registered) != 1 || m.registered[0] != "admin" {
		t.Fatalf("expected one admin registration, got %v", m.registered)
	}
	if m.destroyed != 1 {
		t.Fatalf("expected 1 destroyed session, got %d", m.destroyed)
	}
}

func TestNilRecordersAreOptional(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), newStubSessionStore(), password.NewBcryptHasher(4), nil, nil, zerolog.Nop())
	if err := svc.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	token, _, err := svc.Login(context.Background(), "root", "rootpass", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	user, err := svc.Identify(context.Background(), token)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if err := svc.Logout(context.Background(), user, token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
}
