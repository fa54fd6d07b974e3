package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/telehealth-api/internal/model"
)

type fakeUserRepo struct {
	doctors     []*model.User
	lastFilters *model.UserFilters
	err         error
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) Get(context.Context, uuid.UUID) (*model.User, error) {
	return nil, errors.New("user not found")
}
func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("user not found")
}
func (f *fakeUserRepo) ListDoctors(_ context.Context, filters *model.UserFilters) ([]*model.User, error) {
	f.lastFilters = filters
	return f.doctors, f.err
}

func TestListDoctors_TrimsFilters(t *testing.T) {
	repo := &fakeUserRepo{doctors: []*model.User{
		{Base: model.Base{ID: uuid.New()}, Role: model.UserRoleDoctor, LastName: "Adeyemi"},
	}}
	svc := NewService(repo)

	doctors, err := svc.ListDoctors(context.Background(), "  cardiology ", " ade ")

	require.NoError(t, err)
	require.Len(t, doctors, 1)
	require.NotNil(t, repo.lastFilters)
	assert.Equal(t, model.UserRoleDoctor, repo.lastFilters.Role)
	assert.Equal(t, "cardiology", repo.lastFilters.Specialty)
	assert.Equal(t, "ade", repo.lastFilters.SearchTerm)
}

func TestListDoctors_RepoErrorWrapped(t *testing.T) {
	repo := &fakeUserRepo{err: errors.New("connection refused")}
	svc := NewService(repo)

	_, err := svc.ListDoctors(context.Background(), "", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list doctors")
}
