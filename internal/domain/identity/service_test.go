package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.IDNumber == u.IDNumber {
			return apperr.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(m.users), nil
}

func (m *mockRepo) UpdateRole(_ context.Context, id uuid.UUID, role auth.Role) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return NewService(repo, tokens), repo
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		FirstName: "Jane",
		LastName:  "Roe",
		Email:     "jane@example.com",
		IDNumber:  "ID-1001",
		Password:  "correct horse",
	}
}

func TestRegister_DefaultsToPatientRole(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != auth.RolePatient {
		t.Errorf("new identities must start as patient, got %s", resp.User.Role)
	}
	if resp.Token == "" {
		t.Error("register must issue a token")
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, _ := newTestService()
	req := validRegister()
	req.Email = "  Jane@Example.COM "
	resp, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "jane@example.com" {
		t.Errorf("email not normalized: %q", resp.User.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatal(err)
	}
	req := validRegister()
	req.IDNumber = "ID-1002"
	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict on duplicate email, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := map[string]func(*RegisterRequest){
		"missing name":   func(r *RegisterRequest) { r.FirstName = "" },
		"bad email":      func(r *RegisterRequest) { r.Email = "not-an-email" },
		"missing id":     func(r *RegisterRequest) { r.IDNumber = "" },
		"short password": func(r *RegisterRequest) { r.Password = "short" },
	}
	for name, mutate := range cases {
		req := validRegister()
		mutate(&req)
		if _, err := svc.Register(context.Background(), req); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected ValidationFailed, got %v", name, err)
		}
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "jane@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.User == nil {
		t.Fatal("login must return token and user")
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "jane@example.com", Password: "wrong"})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("wrong password: expected Unauthenticated, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("unknown email: expected Unauthenticated, got %v", err)
	}
}

func TestAssignRole(t *testing.T) {
	svc, repo := newTestService()
	resp, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	id := resp.User.ID

	if err := svc.AssignRole(context.Background(), id, auth.RoleDoctor); err != nil {
		t.Fatalf("first promotion: %v", err)
	}
	if repo.users[id].Role != auth.RoleDoctor {
		t.Fatalf("role not updated, got %s", repo.users[id].Role)
	}

	// same role again is a no-op
	if err := svc.AssignRole(context.Background(), id, auth.RoleDoctor); err != nil {
		t.Errorf("idempotent promotion must succeed: %v", err)
	}

	// a second, different role is refused
	err = svc.AssignRole(context.Background(), id, auth.RolePharmacy)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("role drift must be Conflict, got %v", err)
	}
	if repo.users[id].Role != auth.RoleDoctor {
		t.Errorf("role must be unchanged after refused promotion")
	}
}

type staticResolver struct {
	profile interface{}
	err     error
}

func (s staticResolver) ResolveProfile(context.Context, uuid.UUID, auth.Role) (interface{}, error) {
	return s.profile, s.err
}

func TestMe(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	// no resolver wired: profile is null
	me, err := svc.Me(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Profile != nil {
		t.Error("profile must be null without a resolver")
	}

	// resolver reports no profile yet: still null, not an error
	svc.SetProfileResolver(staticResolver{err: apperr.ErrNotFound})
	me, err = svc.Me(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatalf("me with missing profile: %v", err)
	}
	if me.Profile != nil {
		t.Error("missing profile is a valid transient state")
	}

	svc.SetProfileResolver(staticResolver{profile: map[string]string{"gender": "female"}})
	me, err = svc.Me(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if me.Profile == nil {
		t.Error("resolved profile must be attached")
	}
}

func TestLoadPrincipal_DeletedUser(t *testing.T) {
	svc, repo := newTestService()
	resp, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	id := resp.User.ID

	p, err := svc.LoadPrincipal(context.Background(), id)
	if err != nil {
		t.Fatalf("load principal: %v", err)
	}
	if p.Role != auth.RolePatient || p.Email != "jane@example.com" {
		t.Errorf("unexpected principal %+v", p)
	}

	delete(repo.users, id)
	if _, err := svc.LoadPrincipal(context.Background(), id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted user: expected NotFound, got %v", err)
	}
}
