package service

import (
	"context"
	"errors"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/auth"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/services/auth/internal/domain"
	"github.com/diagnosis/coachbook/services/auth/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Me(ctx context.Context, requester authz.Identity) (*domain.User, error)
	ListTrainers(ctx context.Context) ([]domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	AdminCreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	Stats(ctx context.Context) (*domain.Stats, error)

	BootstrapAdmin(ctx context.Context, name, email, password string) error
}

type authService struct {
	userRepo  repository.UserRepository
	statsRepo repository.StatsRepository
	tokens    *auth.TokenIssuer
}

func NewAuthService(
	userRepo repository.UserRepository,
	statsRepo repository.StatsRepository,
	tokens *auth.TokenIssuer,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		tokens:    tokens,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("Please add all fields")
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.authResponse(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, apperr.Auth("Invalid credentials")
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		logger.DebugContext(ctx, "Login failed, unknown email")
		return nil, apperr.Auth("Invalid credentials")
	}

	valid, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !valid {
		logger.DebugContext(ctx, "Login failed, password mismatch", "user_id", user.ID)
		return nil, apperr.Auth("Invalid credentials")
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, req.Password)
	}

	return s.authResponse(user)
}

// upgradeHash replaces a legacy hash after a successful login. Failure only
// means the upgrade is retried on the next login.
func (s *authService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.WarnContext(ctx, "Failed to rehash legacy password", "error", err, "user_id", userID)
		return
	}
	if _, err := s.userRepo.Update(ctx, userID, domain.UserPatch{PasswordHash: &hash}); err != nil {
		logger.WarnContext(ctx, "Failed to store rehashed password", "error", err, "user_id", userID)
	}
}

func (s *authService) Me(ctx context.Context, requester authz.Identity) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, requester.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Auth("Not authorized")
	}
	return user, nil
}

func (s *authService) ListTrainers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.ListByRoles(ctx, domain.TrainerRoles)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *authService) AdminCreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	req.Normalize()
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("Please add all fields")
	}
	if !domain.IsValidRole(req.Role) {
		return nil, apperr.Validation("Invalid role")
	}
	return s.createUser(ctx, req.Name, req.Email, req.Password, req.Role)
}

func (s *authService) createUser(ctx context.Context, name, email, password, role string) (*domain.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("User already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := s.userRepo.Create(ctx, domain.NewUser{Name: name, Email: email, PasswordHash: hash, Role: role})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, apperr.Conflict("User already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *authService) UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	var patch domain.UserPatch
	patch.Name = nonEmpty(req.Name)
	patch.Email = nonEmpty(req.Email)
	patch.Role = nonEmpty(req.Role)

	if patch.Role != nil && !domain.IsValidRole(*patch.Role) {
		return nil, apperr.Validation("Invalid role")
	}
	if pw := nonEmpty(req.Password); pw != nil {
		hash, err := auth.HashPassword(*pw)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		patch.PasswordHash = &hash
	}

	user, err := s.userRepo.Update(ctx, id, patch)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, apperr.Conflict("User already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

func (s *authService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if user == nil {
		return apperr.NotFound("User not found")
	}
	if user.Role == domain.RoleAdmin {
		return apperr.Validation("Cannot delete admin user")
	}

	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return apperr.NotFound("User not found")
	}
	logger.InfoContext(ctx, "User deleted", "deleted_user_id", id)
	return nil
}

func (s *authService) Stats(ctx context.Context) (*domain.Stats, error) {
	var (
		st  domain.Stats
		err error
	)
	if st.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if st.TotalTrainers, err = s.userRepo.CountByRoles(ctx, domain.TrainerRoles); err != nil {
		return nil, apperr.Internal(err)
	}
	if st.TotalAppointments, err = s.statsRepo.CountAppointments(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if st.ActiveAppointments, err = s.statsRepo.CountActiveAppointments(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	return &st, nil
}

// BootstrapAdmin creates the configured admin account if it does not exist
// yet. It is a no-op when email or password is empty.
func (s *authService) BootstrapAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != domain.RoleAdmin {
			logger.Warn("Bootstrap admin email belongs to a non-admin user", "user_id", existing.ID)
		}
		return nil
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := s.createUser(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	logger.Info("Bootstrap admin created", "user_id", user.ID)
	return nil
}

func (s *authService) authResponse(user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &domain.AuthResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
