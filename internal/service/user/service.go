package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository"
)

// Service exposes the doctor directory a patient browses before booking.
type Service struct {
	repo repository.UserRepository
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{repo: repo}
}

// ListDoctors returns bookable doctors, optionally narrowed by specialty
// and a name search term.
func (s *Service) ListDoctors(ctx context.Context, specialty, search string) ([]*model.User, error) {
	filters := &model.UserFilters{
		Role:       model.UserRoleDoctor,
		Specialty:  strings.TrimSpace(specialty),
		SearchTerm: strings.TrimSpace(search),
	}

	doctors, err := s.repo.ListDoctors(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
