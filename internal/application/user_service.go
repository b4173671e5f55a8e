package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	"github.com/rentwheel/service-rental/internal/common/auth"
	userDomain "github.com/rentwheel/service-rental/internal/domain/user"
)

// RegisterRequest is the request DTO for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the request DTO for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserDTO is the API response representation of a user.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthDTO carries a freshly issued token and the user it belongs to.
type AuthDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UserService implements account use cases.
type UserService struct {
	repo   userDomain.UserRepository
	jwt    *auth.JWTManager
	images ImageStore
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo userDomain.UserRepository, jwt *auth.JWTManager, images ImageStore, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, jwt: jwt, images: images, logger: logger}
}

// Register creates an account and signs the user in.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthDTO, error) {
	if err := userDomain.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		return nil, err
	}

	email := userDomain.NormalizeEmail(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.NewConflictError("user already exists")
	} else if !apperror.Is(err, apperror.KindNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := userDomain.NewUser(req.Name, email, hash)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID().String()))
	return s.issue(u)
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthDTO, error) {
	u, err := s.repo.FindByEmail(ctx, userDomain.NormalizeEmail(req.Email))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NewUnauthorizedError("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash(), req.Password) {
		return nil, apperror.NewUnauthorizedError("invalid credentials")
	}
	return s.issue(u)
}

// GetUser returns the user by ID.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// BecomeOwner promotes the user to the owner role. The returned token
// carries the new role.
func (s *UserService) BecomeOwner(ctx context.Context, userID uuid.UUID) (*AuthDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.Role() != userDomain.RoleOwner {
		u.PromoteToOwner()
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}
		s.logger.Info("user promoted to owner", zap.String("user_id", userID.String()))
	}
	return s.issue(u)
}

// UploadProfileImage stores a new profile image for the user.
func (s *UserService) UploadProfileImage(ctx context.Context, userID uuid.UUID, image *ImageFile) (*UserDTO, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, apperror.NewValidationError("Image is required")
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, profileImageFolder, *image, profileImageVariant)
	if err != nil {
		s.logger.Error("failed to upload profile image", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperror.NewStoreFailure("failed to upload profile image", err)
	}

	u.SetImage(url)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	result := toUserDTO(u)
	return &result, nil
}

// RemoveProfileImage clears the user's profile image.
func (s *UserService) RemoveProfileImage(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.SetImage("")
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	result := toUserDTO(u)
	return &result, nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *UserService) TokenTTL() time.Duration {
	return s.jwt.TTL()
}

func (s *UserService) issue(u *userDomain.User) (*AuthDTO, error) {
	token, err := s.jwt.Generate(u.ID(), string(u.Role()))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthDTO{Token: token, User: toUserDTO(u)}, nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email(),
		Role:      string(u.Role()),
		Image:     u.ImageURL(),
		CreatedAt: u.CreatedAt(),
	}
}
