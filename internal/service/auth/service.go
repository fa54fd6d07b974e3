package auth

import (
	"context"
	"fmt"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository"
	"github.com/carelink/telehealth-api/pkg/auth"
	"github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/security"
)

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   *auth.JWTService
	hasher   security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, jwtSvc *auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	token, err := s.jwtSvc.GenerateToken(user)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.LoginResponse{Token: token, User: user}, nil
}
