package mocks

import (
	"context"

	"github.com/BearBump/CargoBox/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of storage.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (models.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Snapshot), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, s models.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
