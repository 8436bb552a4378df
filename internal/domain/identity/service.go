package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
)

// ProfileResolver resolves the role profile for an identity. Implemented by
// the profile package; injected after construction to keep the dependency
// direction profile -> identity.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, userID uuid.UUID, role auth.Role) (interface{}, error)
}

type Service struct {
	repo     Repository
	tokens   *auth.TokenService
	profiles ProfileResolver
}

func NewService(repo Repository, tokens *auth.TokenService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// SetProfileResolver wires the profile lookup used by Me. Optional; without
// it Me returns a null profile.
func (s *Service) SetProfileResolver(r ProfileResolver) {
	s.profiles = r
}

// Register creates a new identity with the patient role. Role promotion
// happens later, when a non-patient profile is registered.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, apperr.Validationf("first_name and last_name are required")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, apperr.Validationf("a valid email is required")
	}
	if req.IDNumber == "" {
		return nil, apperr.Validationf("id_number is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		IDNumber:      req.IDNumber,
		PasswordHash:  hash,
		Role:          auth.RolePatient,
		ContactNumber: req.ContactNumber,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflictf("email or id_number already registered")
		}
		return nil, err
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u}, nil
}

// Login verifies credentials and issues a token. A missing account and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, apperr.ErrUnauthenticated
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u}, nil
}

// Me returns the identity plus its role profile, if one exists yet.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &MeResponse{User: u}
	if s.profiles != nil {
		profile, err := s.profiles.ResolveProfile(ctx, u.ID, u.Role)
		switch {
		case err == nil:
			resp.Profile = profile
		case errors.Is(err, apperr.ErrNotFound):
			// profile not created yet, a valid transient state
		default:
			return nil, err
		}
	}
	return resp, nil
}

// LoadPrincipal satisfies auth.PrincipalLoader.
func (s *Service) LoadPrincipal(ctx context.Context, id uuid.UUID) (*auth.Principal, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{
		ID:        u.ID,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, nil
}

// AssignRole promotes an identity to a role as a side effect of profile
// registration. The promotion happens at most once: it is a no-op when the
// role already matches and a conflict when the identity holds any other
// non-patient role.
func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, role auth.Role) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == role {
		return nil
	}
	if u.Role != auth.RolePatient {
		return apperr.Conflictf("user already holds role %s", u.Role)
	}
	return s.repo.UpdateRole(ctx, userID, role)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// DeleteUser removes an identity. Role profiles go with it through the
// database cascade; clinical records referencing the profiles are retained
// as history.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
